// Package memory provides in-memory implementations of the driven
// storage ports for testing and ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// Ensure VersionStore implements the interface.
var _ driven.VersionStore = (*VersionStore)(nil)

// VersionStore is an in-memory implementation of driven.VersionStore.
type VersionStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	revisions map[string][]domain.Revision // documentID -> revisions in sequence order
}

// NewVersionStore creates a new in-memory version store.
func NewVersionStore() *VersionStore {
	return &VersionStore{
		documents: make(map[string]domain.Document),
		revisions: make(map[string][]domain.Revision),
	}
}

// SaveDocument stores a document's logical identity.
func (s *VersionStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document requires an id: %w", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *doc
	if stored.DocType == "" {
		stored.DocType = domain.DocTypeOther
	}
	if !stored.DocType.Valid() {
		return fmt.Errorf("unknown doc type %q: %w", stored.DocType, domain.ErrInvalidInput)
	}
	if existing, ok := s.documents[stored.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.documents[stored.ID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *VersionStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all recorded documents sorted by ID.
func (s *VersionStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// AppendRevision appends a content-addressed revision.
func (s *VersionStore) AppendRevision(
	ctx context.Context, documentID, maskedText string, audit []domain.MaskRecord,
) (*domain.Revision, bool, error) {
	if documentID == "" {
		return nil, false, fmt.Errorf("revision requires a document id: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	revisionID := domain.HashContent(maskedText)
	revs := s.revisions[documentID]

	if n := len(revs); n > 0 && revs[n-1].RevisionID == revisionID {
		rev := revs[n-1]
		return &rev, false, nil
	}
	for _, rev := range revs {
		if rev.RevisionID == revisionID {
			return nil, false, fmt.Errorf("content hash %s already recorded at an earlier sequence: %w",
				revisionID[:12], domain.ErrDuplicateRevision)
		}
	}

	rev := domain.Revision{
		RevisionID: revisionID,
		DocumentID: documentID,
		Sequence:   len(revs) + 1,
		MaskedText: maskedText,
		MaskAudit:  audit,
		CreatedAt:  time.Now().UTC(),
	}
	s.revisions[documentID] = append(revs, rev)
	return &rev, true, nil
}

// GetRevision retrieves a revision by ID, or the latest revision when
// revisionID is "latest".
func (s *VersionStore) GetRevision(ctx context.Context, documentID, revisionID string) (*domain.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revs := s.revisions[documentID]
	if len(revs) == 0 {
		return nil, domain.ErrNotFound
	}
	if revisionID == "" || revisionID == "latest" {
		rev := revs[len(revs)-1]
		return &rev, nil
	}
	for _, rev := range revs {
		if rev.RevisionID == revisionID {
			out := rev
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetDocumentByRevision resolves the document owning a revision.
func (s *VersionStore) GetDocumentByRevision(ctx context.Context, revisionID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for documentID, revs := range s.revisions {
		for _, rev := range revs {
			if rev.RevisionID == revisionID {
				doc, ok := s.documents[documentID]
				if !ok {
					return nil, domain.ErrNotFound
				}
				return &doc, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// ListRevisions returns a document's revisions in sequence order.
func (s *VersionStore) ListRevisions(ctx context.Context, documentID string) ([]domain.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revs := s.revisions[documentID]
	out := make([]domain.Revision, len(revs))
	copy(out, revs)
	return out, nil
}

// PurgeDocument removes a document and its revisions.
func (s *VersionStore) PurgeDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, documentID)
	delete(s.revisions, documentID)
	return nil
}
