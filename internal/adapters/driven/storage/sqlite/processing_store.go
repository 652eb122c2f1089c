package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// processingStore implements driven.ProcessingStore.
type processingStore struct {
	store *Store
}

var _ driven.ProcessingStore = (*processingStore)(nil)

// SaveRecord inserts or replaces a document's processing record.
func (s *processingStore) SaveRecord(ctx context.Context, rec *domain.ProcessingRecord) error {
	if rec == nil || rec.DocumentID == "" {
		return fmt.Errorf("processing record requires a document id: %w", domain.ErrInvalidInput)
	}
	rec.UpdatedAt = time.Now().UTC()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO processing_records (document_id, status, attempts, stage, last_error, revision_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			status = excluded.status,
			attempts = excluded.attempts,
			stage = excluded.stage,
			last_error = excluded.last_error,
			revision_id = excluded.revision_id,
			updated_at = excluded.updated_at
	`, rec.DocumentID, string(rec.Status), rec.Attempts, rec.Stage,
		nullString(rec.LastError), rec.RevisionID, rec.UpdatedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("saving processing record: %w", err)
	}
	return nil
}

// GetRecord retrieves a document's processing record.
func (s *processingStore) GetRecord(ctx context.Context, documentID string) (*domain.ProcessingRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, status, attempts, stage, last_error, revision_id, updated_at
		FROM processing_records WHERE document_id = ?
	`, documentID)

	rec, err := scanProcessingRecord(row.Scan)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByStatus returns records in the given status.
func (s *processingStore) ListByStatus(ctx context.Context, status domain.ProcessingStatus) ([]domain.ProcessingRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, status, attempts, stage, last_error, revision_id, updated_at
		FROM processing_records WHERE status = ? ORDER BY document_id
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("querying processing records: %w", err)
	}
	defer rows.Close()

	var recs []domain.ProcessingRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanProcessingRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processing records: %w", err)
	}

	return recs, nil
}

// Claim atomically transitions a document to processing. The conditional
// upsert only fires when no other worker holds the document, so exactly
// one concurrent claimant wins.
func (s *processingStore) Claim(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("claim requires a document id: %w", domain.ErrInvalidInput)
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO processing_records (document_id, status, attempts, stage, last_error, revision_id, updated_at)
		VALUES (?, ?, 0, '', NULL, '', ?)
		ON CONFLICT(document_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
		WHERE processing_records.status != ?
	`, documentID, string(domain.StatusProcessing),
		time.Now().UTC().Format(time.RFC3339), string(domain.StatusProcessing))
	if err != nil {
		return fmt.Errorf("claiming document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking claim: %w", err)
	}
	if affected == 0 {
		return domain.ErrDocumentClaimed
	}
	return nil
}

// Release transitions a claimed document to its terminal status.
func (s *processingStore) Release(ctx context.Context, documentID string, status domain.ProcessingStatus, lastError string) error {
	_, err := s.store.db.ExecContext(ctx, `
		UPDATE processing_records
		SET status = ?, last_error = ?, updated_at = ?
		WHERE document_id = ?
	`, string(status), nullString(lastError),
		time.Now().UTC().Format(time.RFC3339), documentID)
	if err != nil {
		return fmt.Errorf("releasing document: %w", err)
	}
	return nil
}

// DeleteRecord removes a document's processing record.
func (s *processingStore) DeleteRecord(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM processing_records WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting processing record: %w", err)
	}
	return nil
}

// scanProcessingRecord scans one record via the given scan function.
func scanProcessingRecord(scan func(...interface{}) error) (*domain.ProcessingRecord, error) {
	var rec domain.ProcessingRecord
	var status, updatedAt string
	var lastError sql.NullString

	if err := scan(&rec.DocumentID, &status, &rec.Attempts, &rec.Stage,
		&lastError, &rec.RevisionID, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning processing record: %w", err)
	}

	rec.Status = domain.ProcessingStatus(status)
	rec.LastError = lastError.String
	rec.UpdatedAt = parseTime(updatedAt)

	return &rec, nil
}
