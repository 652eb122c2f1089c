package driven

import (
	"context"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

// SegmentStore persists segments keyed by (revision, segmenter version,
// ordinal). Segment sets are immutable: re-segmenting a revision under a
// new segmenter version adds a fresh set, old sets are retained so past
// retrievals stay reproducible.
type SegmentStore interface {
	// SaveSegments stores a complete segment set for one revision and
	// segmenter version in a single transaction.
	SaveSegments(ctx context.Context, segments []domain.Segment) error

	// GetSegments returns the segment set for a revision and segmenter
	// version in ordinal order. Empty result means not yet segmented.
	GetSegments(ctx context.Context, revisionID, segmenterVersion string) ([]domain.Segment, error)

	// GetSegment retrieves a segment by ID.
	// Returns domain.ErrNotFound if absent.
	GetSegment(ctx context.Context, id string) (*domain.Segment, error)

	// ListSegmentIDs returns the IDs of every segment of a revision
	// across all segmenter versions. Used for purging dependents.
	ListSegmentIDs(ctx context.Context, revisionID string) ([]string, error)

	// DeleteByRevision removes all segment sets of a revision (purge).
	DeleteByRevision(ctx context.Context, revisionID string) error
}

// EmbeddingStore persists embeddings keyed by (segment, model version)
// so the in-memory vector index can be rebuilt at startup.
type EmbeddingStore interface {
	// SaveEmbedding stores one embedding. Idempotent per
	// (segment, model version).
	SaveEmbedding(ctx context.Context, emb *domain.Embedding) error

	// HasEmbedding reports whether an embedding exists for the segment
	// under the model version.
	HasEmbedding(ctx context.Context, segmentID, modelVersion string) (bool, error)

	// ListEmbeddings returns all embeddings for a model version.
	ListEmbeddings(ctx context.Context, modelVersion string) ([]domain.Embedding, error)

	// DeleteBySegments removes embeddings of the given segments (purge).
	DeleteBySegments(ctx context.Context, segmentIDs []string) error
}
