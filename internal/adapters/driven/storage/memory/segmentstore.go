package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// Ensure SegmentStore implements the interface.
var _ driven.SegmentStore = (*SegmentStore)(nil)

// SegmentStore is an in-memory implementation of driven.SegmentStore.
type SegmentStore struct {
	mu       sync.RWMutex
	segments map[string]domain.Segment
}

// NewSegmentStore creates a new in-memory segment store.
func NewSegmentStore() *SegmentStore {
	return &SegmentStore{segments: make(map[string]domain.Segment)}
}

// SaveSegments stores a complete segment set.
func (s *SegmentStore) SaveSegments(ctx context.Context, segments []domain.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seg := range segments {
		s.segments[seg.ID] = seg
	}
	return nil
}

// GetSegments returns the segment set for a revision and segmenter
// version in ordinal order.
func (s *SegmentStore) GetSegments(ctx context.Context, revisionID, segmenterVersion string) ([]domain.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Segment
	for _, seg := range s.segments {
		if seg.RevisionID == revisionID && seg.SegmenterVersion == segmenterVersion {
			out = append(out, seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

// GetSegment retrieves a segment by ID.
func (s *SegmentStore) GetSegment(ctx context.Context, id string) (*domain.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seg, ok := s.segments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &seg, nil
}

// ListSegmentIDs returns the IDs of every segment of a revision across
// all segmenter versions.
func (s *SegmentStore) ListSegmentIDs(ctx context.Context, revisionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, seg := range s.segments {
		if seg.RevisionID == revisionID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteByRevision removes all segment sets of a revision.
func (s *SegmentStore) DeleteByRevision(ctx context.Context, revisionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, seg := range s.segments {
		if seg.RevisionID == revisionID {
			delete(s.segments, id)
		}
	}
	return nil
}

// Ensure EmbeddingStore implements the interface.
var _ driven.EmbeddingStore = (*EmbeddingStore)(nil)

// embeddingKey identifies one stored embedding.
type embeddingKey struct {
	segmentID    string
	modelVersion string
}

// EmbeddingStore is an in-memory implementation of driven.EmbeddingStore.
type EmbeddingStore struct {
	mu         sync.RWMutex
	embeddings map[embeddingKey]domain.Embedding
}

// NewEmbeddingStore creates a new in-memory embedding store.
func NewEmbeddingStore() *EmbeddingStore {
	return &EmbeddingStore{embeddings: make(map[embeddingKey]domain.Embedding)}
}

// SaveEmbedding stores one embedding.
func (s *EmbeddingStore) SaveEmbedding(ctx context.Context, emb *domain.Embedding) error {
	if emb == nil || emb.SegmentID == "" || emb.ModelVersion == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings[embeddingKey{emb.SegmentID, emb.ModelVersion}] = *emb
	return nil
}

// HasEmbedding reports whether an embedding exists.
func (s *EmbeddingStore) HasEmbedding(ctx context.Context, segmentID, modelVersion string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.embeddings[embeddingKey{segmentID, modelVersion}]
	return ok, nil
}

// ListEmbeddings returns all embeddings for a model version.
func (s *EmbeddingStore) ListEmbeddings(ctx context.Context, modelVersion string) ([]domain.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Embedding
	for key, emb := range s.embeddings {
		if key.modelVersion == modelVersion {
			out = append(out, emb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentID < out[j].SegmentID })
	return out, nil
}

// DeleteBySegments removes embeddings of the given segments.
func (s *EmbeddingStore) DeleteBySegments(ctx context.Context, segmentIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.embeddings {
		for _, id := range segmentIDs {
			if key.segmentID == id {
				delete(s.embeddings, key)
				break
			}
		}
	}
	return nil
}
