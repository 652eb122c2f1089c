package driven

import (
	"context"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

// VectorMeta is the filterable metadata attached to an indexed vector.
// Filters are applied before similarity ranking so top-k is computed
// over the filtered candidate set.
type VectorMeta struct {
	// DocumentID is the owning document.
	DocumentID string

	// RevisionID is the owning revision.
	RevisionID string

	// DocType is the owning document's type.
	DocType domain.DocType

	// SegmenterVersion produced the underlying segment.
	SegmenterVersion string
}

// VectorIndex stores segment embeddings partitioned by model version.
// Vectors produced by different model versions live in disjoint spaces
// and are never compared against each other.
type VectorIndex interface {
	// Upsert inserts or replaces the vector for a segment within the
	// model version's space. Atomic per segment: a concurrent query
	// observes either the old vector or the new one, never a blend.
	Upsert(ctx context.Context, segmentID string, vector []float32, modelVersion string, meta VectorMeta) error

	// Query returns the k nearest segments by cosine similarity within
	// the model version's space, after applying the metadata filter.
	// Ties are broken by segment ID ascending so results are stable.
	// A query vector whose dimensionality does not match the space
	// yields domain.ErrIncompatibleModel.
	Query(ctx context.Context, vector []float32, modelVersion string, k int, filter *domain.QueryFilter) ([]domain.VectorHit, error)

	// DeleteByRevision removes all vectors of a revision across every
	// model version (purge).
	DeleteByRevision(ctx context.Context, revisionID string) error

	// Count reports the number of vectors held for a model version.
	Count(ctx context.Context, modelVersion string) (int, error)

	// Close releases resources held by the index.
	Close() error
}
