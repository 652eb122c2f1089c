package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lexica-labs/lexica/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.lexica/data/lexica.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lexica", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "lexica.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VersionStore returns a VersionStore interface backed by this store.
func (s *Store) VersionStore() driven.VersionStore {
	return &versionStore{store: s}
}

// SegmentStore returns a SegmentStore interface backed by this store.
func (s *Store) SegmentStore() driven.SegmentStore {
	return &segmentStore{store: s}
}

// EmbeddingStore returns an EmbeddingStore interface backed by this store.
func (s *Store) EmbeddingStore() driven.EmbeddingStore {
	return &embeddingStore{store: s}
}

// ProcessingStore returns a ProcessingStore interface backed by this store.
func (s *Store) ProcessingStore() driven.ProcessingStore {
	return &processingStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Version Store ====================

// versionStore implements driven.VersionStore.
type versionStore struct {
	store *Store
}

var _ driven.VersionStore = (*versionStore)(nil)

// SaveDocument stores a document's logical identity. Idempotent on ID.
func (s *versionStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document requires an id: %w", domain.ErrInvalidInput)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	docType := doc.DocType
	if docType == "" {
		docType = domain.DocTypeOther
	}
	if !docType.Valid() {
		return fmt.Errorf("unknown doc type %q: %w", docType, domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_uri, doc_type, language, collector, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_uri = excluded.source_uri,
			doc_type = excluded.doc_type,
			language = excluded.language,
			collector = excluded.collector
	`, doc.ID, doc.SourceURI, string(docType), doc.Language, doc.Collector,
		doc.CreatedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *versionStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_uri, doc_type, language, collector, created_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var docType, createdAt string
	if err := row.Scan(&doc.ID, &doc.SourceURI, &docType, &doc.Language,
		&doc.Collector, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.DocType = domain.DocType(docType)
	doc.CreatedAt = parseTime(createdAt)

	return &doc, nil
}

// ListDocuments returns all recorded documents.
func (s *versionStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_uri, doc_type, language, collector, created_at
		FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var docType, createdAt string
		if err := rows.Scan(&doc.ID, &doc.SourceURI, &docType, &doc.Language,
			&doc.Collector, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.DocType = domain.DocType(docType)
		doc.CreatedAt = parseTime(createdAt)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// AppendRevision appends a content-addressed revision. Identical latest
// content is deduplicated; a hash reappearing under an older sequence is
// rejected so the history stays linear.
func (s *versionStore) AppendRevision(
	ctx context.Context, documentID, maskedText string, audit []domain.MaskRecord,
) (*domain.Revision, bool, error) {
	if documentID == "" {
		return nil, false, fmt.Errorf("revision requires a document id: %w", domain.ErrInvalidInput)
	}

	revisionID := domain.HashContent(maskedText)

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var latestID string
	var latestSeq int
	err = tx.QueryRowContext(ctx, `
		SELECT revision_id, sequence FROM revisions
		WHERE document_id = ? ORDER BY sequence DESC LIMIT 1
	`, documentID).Scan(&latestID, &latestSeq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("querying latest revision: %w", err)
	}

	if latestID == revisionID {
		rev, err := s.getRevisionTx(ctx, tx, documentID, revisionID)
		if err != nil {
			return nil, false, err
		}
		return rev, false, nil
	}

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM revisions WHERE document_id = ? AND revision_id = ?
	`, documentID, revisionID).Scan(&existing)
	if err != nil {
		return nil, false, fmt.Errorf("checking revision hash: %w", err)
	}
	if existing > 0 {
		return nil, false, fmt.Errorf("content hash %s already recorded at an earlier sequence: %w",
			revisionID[:12], domain.ErrDuplicateRevision)
	}

	auditJSON, err := json.Marshal(audit)
	if err != nil {
		return nil, false, fmt.Errorf("marshalling mask audit: %w", err)
	}

	rev := &domain.Revision{
		RevisionID: revisionID,
		DocumentID: documentID,
		Sequence:   latestSeq + 1,
		MaskedText: maskedText,
		MaskAudit:  audit,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO revisions (revision_id, document_id, sequence, masked_text, mask_audit, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rev.RevisionID, rev.DocumentID, rev.Sequence, rev.MaskedText,
		string(auditJSON), rev.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, false, fmt.Errorf("inserting revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing revision: %w", err)
	}
	return rev, true, nil
}

// GetRevision retrieves a revision by ID, or the latest revision when
// revisionID is "latest".
func (s *versionStore) GetRevision(ctx context.Context, documentID, revisionID string) (*domain.Revision, error) {
	return s.getRevisionTx(ctx, nil, documentID, revisionID)
}

// getRevisionTx runs the revision query on tx when non-nil, otherwise
// directly on the pool.
func (s *versionStore) getRevisionTx(ctx context.Context, tx *sql.Tx, documentID, revisionID string) (*domain.Revision, error) {
	query := `
		SELECT revision_id, document_id, sequence, masked_text, mask_audit, created_at
		FROM revisions WHERE document_id = ? AND revision_id = ?
	`
	args := []interface{}{documentID, revisionID}
	if revisionID == "" || revisionID == "latest" {
		query = `
			SELECT revision_id, document_id, sequence, masked_text, mask_audit, created_at
			FROM revisions WHERE document_id = ? ORDER BY sequence DESC LIMIT 1
		`
		args = []interface{}{documentID}
	}

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, args...)
	} else {
		row = s.store.db.QueryRowContext(ctx, query, args...)
	}

	var rev domain.Revision
	var auditJSON, createdAt string
	if err := row.Scan(&rev.RevisionID, &rev.DocumentID, &rev.Sequence,
		&rev.MaskedText, &auditJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning revision: %w", err)
	}
	if auditJSON != "" && auditJSON != jsonNull {
		if err := json.Unmarshal([]byte(auditJSON), &rev.MaskAudit); err != nil {
			return nil, fmt.Errorf("unmarshaling mask audit: %w", err)
		}
	}
	rev.CreatedAt = parseTime(createdAt)

	return &rev, nil
}

// GetDocumentByRevision resolves the document owning a revision.
func (s *versionStore) GetDocumentByRevision(ctx context.Context, revisionID string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT d.id, d.source_uri, d.doc_type, d.language, d.collector, d.created_at
		FROM documents d
		JOIN revisions r ON r.document_id = d.id
		WHERE r.revision_id = ?
	`, revisionID)

	var doc domain.Document
	var docType, createdAt string
	if err := row.Scan(&doc.ID, &doc.SourceURI, &docType, &doc.Language,
		&doc.Collector, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.DocType = domain.DocType(docType)
	doc.CreatedAt = parseTime(createdAt)

	return &doc, nil
}

// ListRevisions returns a document's revisions in sequence order.
func (s *versionStore) ListRevisions(ctx context.Context, documentID string) ([]domain.Revision, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT revision_id, document_id, sequence, masked_text, mask_audit, created_at
		FROM revisions WHERE document_id = ? ORDER BY sequence
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying revisions: %w", err)
	}
	defer rows.Close()

	var revs []domain.Revision //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rev domain.Revision
		var auditJSON, createdAt string
		if err := rows.Scan(&rev.RevisionID, &rev.DocumentID, &rev.Sequence,
			&rev.MaskedText, &auditJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		if auditJSON != "" && auditJSON != jsonNull {
			if err := json.Unmarshal([]byte(auditJSON), &rev.MaskAudit); err != nil {
				return nil, fmt.Errorf("unmarshaling mask audit: %w", err)
			}
		}
		rev.CreatedAt = parseTime(createdAt)
		revs = append(revs, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating revisions: %w", err)
	}

	return revs, nil
}

// PurgeDocument removes a document and its revisions. Revisions cascade
// via the foreign key.
func (s *versionStore) PurgeDocument(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID)
	if err != nil {
		return fmt.Errorf("purging document: %w", err)
	}
	return nil
}

// ==================== Segment Store ====================

// segmentStore implements driven.SegmentStore.
type segmentStore struct {
	store *Store
}

var _ driven.SegmentStore = (*segmentStore)(nil)

// SaveSegments stores a complete segment set in one transaction.
func (s *segmentStore) SaveSegments(ctx context.Context, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (id, revision_id, segmenter_version, ordinal, text, type, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			type = excluded.type,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing segment insert: %w", err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		metadataJSON, err := json.Marshal(seg.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling segment metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, seg.ID, seg.RevisionID, seg.SegmenterVersion,
			seg.Ordinal, seg.Text, string(seg.Type), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving segment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetSegments returns the segment set for a revision and segmenter
// version in ordinal order.
func (s *segmentStore) GetSegments(ctx context.Context, revisionID, segmenterVersion string) ([]domain.Segment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, revision_id, segmenter_version, ordinal, text, type, metadata
		FROM segments WHERE revision_id = ? AND segmenter_version = ?
		ORDER BY ordinal
	`, revisionID, segmenterVersion)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var segments []domain.Segment //nolint:prealloc // size unknown from query
	for rows.Next() {
		seg, err := scanSegmentRows(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, *seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segments: %w", err)
	}

	return segments, nil
}

// GetSegment retrieves a segment by ID.
func (s *segmentStore) GetSegment(ctx context.Context, id string) (*domain.Segment, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, revision_id, segmenter_version, ordinal, text, type, metadata
		FROM segments WHERE id = ?
	`, id)

	var seg domain.Segment
	var segType, metadataJSON string
	if err := row.Scan(&seg.ID, &seg.RevisionID, &seg.SegmenterVersion,
		&seg.Ordinal, &seg.Text, &segType, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning segment: %w", err)
	}
	seg.Type = domain.SegmentType(segType)
	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &seg.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling segment metadata: %w", err)
		}
	}

	return &seg, nil
}

// ListSegmentIDs returns the IDs of every segment of a revision across
// all segmenter versions.
func (s *segmentStore) ListSegmentIDs(ctx context.Context, revisionID string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id FROM segments WHERE revision_id = ? ORDER BY id
	`, revisionID)
	if err != nil {
		return nil, fmt.Errorf("querying segment ids: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning segment id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segment ids: %w", err)
	}

	return ids, nil
}

// DeleteByRevision removes all segment sets of a revision.
func (s *segmentStore) DeleteByRevision(ctx context.Context, revisionID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM segments WHERE revision_id = ?", revisionID)
	if err != nil {
		return fmt.Errorf("deleting segments: %w", err)
	}
	return nil
}

// scanSegmentRows scans a segment from *sql.Rows.
func scanSegmentRows(rows *sql.Rows) (*domain.Segment, error) {
	var seg domain.Segment
	var segType, metadataJSON string
	if err := rows.Scan(&seg.ID, &seg.RevisionID, &seg.SegmenterVersion,
		&seg.Ordinal, &seg.Text, &segType, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning segment: %w", err)
	}
	seg.Type = domain.SegmentType(segType)
	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &seg.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling segment metadata: %w", err)
		}
	}
	return &seg, nil
}

// ==================== Embedding Store ====================

// embeddingStore implements driven.EmbeddingStore.
type embeddingStore struct {
	store *Store
}

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

// SaveEmbedding stores one embedding, replacing any previous vector for
// the same segment and model version.
func (s *embeddingStore) SaveEmbedding(ctx context.Context, emb *domain.Embedding) error {
	if emb == nil || emb.SegmentID == "" || emb.ModelVersion == "" {
		return fmt.Errorf("embedding requires segment id and model version: %w", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO embeddings (segment_id, model_version, vector, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(segment_id, model_version) DO UPDATE SET
			vector = excluded.vector
	`, emb.SegmentID, emb.ModelVersion, float32SliceToBytes(emb.Vector),
		time.Now().UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// HasEmbedding reports whether an embedding exists for the segment
// under the model version.
func (s *embeddingStore) HasEmbedding(ctx context.Context, segmentID, modelVersion string) (bool, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM embeddings WHERE segment_id = ? AND model_version = ?
	`, segmentID, modelVersion).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking embedding: %w", err)
	}
	return count > 0, nil
}

// ListEmbeddings returns all embeddings for a model version.
func (s *embeddingStore) ListEmbeddings(ctx context.Context, modelVersion string) ([]domain.Embedding, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT segment_id, model_version, vector
		FROM embeddings WHERE model_version = ?
	`, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var embs []domain.Embedding //nolint:prealloc // size unknown from query
	for rows.Next() {
		var emb domain.Embedding
		var blob []byte
		if err := rows.Scan(&emb.SegmentID, &emb.ModelVersion, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		emb.Vector = bytesToFloat32Slice(blob)
		embs = append(embs, emb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	return embs, nil
}

// DeleteBySegments removes embeddings of the given segments.
func (s *embeddingStore) DeleteBySegments(ctx context.Context, segmentIDs []string) error {
	if len(segmentIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(segmentIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(segmentIDs))
	for i, id := range segmentIDs {
		args[i] = id
	}

	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM embeddings WHERE segment_id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// parseTime parses an RFC3339 string. Returns zero time on parse error.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
