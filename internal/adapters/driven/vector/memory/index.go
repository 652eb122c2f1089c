// Package memory provides an in-memory vector index with cosine
// similarity search, partitioned by embedding model version.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// entry is one indexed segment vector.
type entry struct {
	segmentID string
	vector    []float32
	norm      float64
	meta      driven.VectorMeta
}

// space holds all vectors of one model version. Dimensionality is fixed
// by the first vector inserted.
type space struct {
	dims    int
	entries map[string]entry
}

// Index is an exact-scan cosine similarity index. Vectors of different
// model versions live in disjoint spaces and are never compared. Safe
// for concurrent use.
type Index struct {
	mu     sync.RWMutex
	spaces map[string]*space
}

// Compile-time check that Index satisfies the port.
var _ driven.VectorIndex = (*Index)(nil)

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{spaces: make(map[string]*space)}
}

// Upsert inserts or replaces the vector for a segment within the model
// version's space. The space's dimensionality is set by its first
// vector; later mismatches are rejected.
func (idx *Index) Upsert(ctx context.Context, segmentID string, vector []float32, modelVersion string, meta driven.VectorMeta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if segmentID == "" || modelVersion == "" || len(vector) == 0 {
		return fmt.Errorf("upsert requires segment id, model version and a vector: %w", domain.ErrInvalidInput)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	sp, ok := idx.spaces[modelVersion]
	if !ok {
		sp = &space{dims: len(vector), entries: make(map[string]entry)}
		idx.spaces[modelVersion] = sp
	}
	if len(vector) != sp.dims {
		return fmt.Errorf("vector has %d dimensions, space %q has %d: %w",
			len(vector), modelVersion, sp.dims, domain.ErrIncompatibleModel)
	}

	owned := make([]float32, len(vector))
	copy(owned, vector)
	sp.entries[segmentID] = entry{
		segmentID: segmentID,
		vector:    owned,
		norm:      norm(owned),
		meta:      meta,
	}
	return nil
}

// Query returns the k most similar segments within the model version's
// space, after applying the metadata filter. Results are ordered by
// score descending with segment ID ascending as the tie-break. An
// unknown model version yields no results.
func (idx *Index) Query(ctx context.Context, vector []float32, modelVersion string, k int, filter *domain.QueryFilter) ([]domain.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	sp, ok := idx.spaces[modelVersion]
	if !ok {
		return nil, nil
	}
	if len(vector) != sp.dims {
		return nil, fmt.Errorf("query vector has %d dimensions, space %q has %d: %w",
			len(vector), modelVersion, sp.dims, domain.ErrIncompatibleModel)
	}

	qnorm := norm(vector)
	hits := make([]domain.VectorHit, 0, len(sp.entries))
	for _, e := range sp.entries {
		if !matchesFilter(e.meta, filter) {
			continue
		}
		hits = append(hits, domain.VectorHit{
			SegmentID: e.segmentID,
			Score:     cosine(vector, qnorm, e.vector, e.norm),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].SegmentID < hits[j].SegmentID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteByRevision removes all vectors of a revision across every model
// version.
func (idx *Index) DeleteByRevision(ctx context.Context, revisionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, sp := range idx.spaces {
		for id, e := range sp.entries {
			if e.meta.RevisionID == revisionID {
				delete(sp.entries, id)
			}
		}
	}
	return nil
}

// Count reports the number of vectors held for a model version.
func (idx *Index) Count(ctx context.Context, modelVersion string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	sp, ok := idx.spaces[modelVersion]
	if !ok {
		return 0, nil
	}
	return len(sp.entries), nil
}

// Close releases the index's memory.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.spaces = make(map[string]*space)
	return nil
}

// matchesFilter applies the pre-filter to one entry's metadata.
func matchesFilter(meta driven.VectorMeta, filter *domain.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if len(filter.DocTypes) > 0 && !containsDocType(filter.DocTypes, meta.DocType) {
		return false
	}
	if len(filter.DocumentIDs) > 0 && !containsString(filter.DocumentIDs, meta.DocumentID) {
		return false
	}
	if filter.SegmenterVersion != "" && filter.SegmenterVersion != meta.SegmenterVersion {
		return false
	}
	return true
}

func containsDocType(types []domain.DocType, t domain.DocType) bool {
	for _, dt := range types {
		if dt == t {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// norm returns the Euclidean norm of v.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity given precomputed norms.
// Zero-norm vectors score zero against everything.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
