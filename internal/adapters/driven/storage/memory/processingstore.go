package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// Ensure ProcessingStore implements the interface.
var _ driven.ProcessingStore = (*ProcessingStore)(nil)

// ProcessingStore is an in-memory implementation of driven.ProcessingStore.
type ProcessingStore struct {
	mu      sync.Mutex
	records map[string]domain.ProcessingRecord
}

// NewProcessingStore creates a new in-memory processing store.
func NewProcessingStore() *ProcessingStore {
	return &ProcessingStore{records: make(map[string]domain.ProcessingRecord)}
}

// SaveRecord inserts or replaces a document's processing record.
func (s *ProcessingStore) SaveRecord(ctx context.Context, rec *domain.ProcessingRecord) error {
	if rec == nil || rec.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	stored.UpdatedAt = time.Now().UTC()
	s.records[stored.DocumentID] = stored
	return nil
}

// GetRecord retrieves a document's processing record.
func (s *ProcessingStore) GetRecord(ctx context.Context, documentID string) (*domain.ProcessingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// ListByStatus returns records in the given status sorted by document ID.
func (s *ProcessingStore) ListByStatus(ctx context.Context, status domain.ProcessingStatus) ([]domain.ProcessingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.ProcessingRecord
	for _, rec := range s.records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

// Claim atomically transitions a document to processing.
func (s *ProcessingStore) Claim(ctx context.Context, documentID string) error {
	if documentID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[documentID]
	if ok && rec.Status == domain.StatusProcessing {
		return domain.ErrDocumentClaimed
	}
	rec.DocumentID = documentID
	rec.Status = domain.StatusProcessing
	rec.UpdatedAt = time.Now().UTC()
	s.records[documentID] = rec
	return nil
}

// Release transitions a claimed document to its terminal status.
func (s *ProcessingStore) Release(ctx context.Context, documentID string, status domain.ProcessingStatus, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[documentID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = status
	rec.LastError = lastError
	rec.UpdatedAt = time.Now().UTC()
	s.records[documentID] = rec
	return nil
}

// DeleteRecord removes a document's processing record.
func (s *ProcessingStore) DeleteRecord(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, documentID)
	return nil
}
