package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

func metaFor(docID string, docType domain.DocType) driven.VectorMeta {
	return driven.VectorMeta{
		DocumentID:       docID,
		RevisionID:       "rev-" + docID,
		DocType:          docType,
		SegmenterVersion: "v1",
	}
}

func TestUpsertAndQuery(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "s1", []float32{1, 0, 0}, "m1", metaFor("d1", domain.DocTypeStatute)))
	require.NoError(t, idx.Upsert(ctx, "s2", []float32{0, 1, 0}, "m1", metaFor("d1", domain.DocTypeStatute)))
	require.NoError(t, idx.Upsert(ctx, "s3", []float32{0.9, 0.1, 0}, "m1", metaFor("d2", domain.DocTypeDecision)))

	hits, err := idx.Query(ctx, []float32{1, 0, 0}, "m1", 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "s1", hits[0].SegmentID)
	assert.Equal(t, "s3", hits[1].SegmentID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestQuery_TieBreakBySegmentID(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	// Identical vectors, identical scores; order must still be stable.
	require.NoError(t, idx.Upsert(ctx, "s-b", []float32{1, 0}, "m1", metaFor("d1", domain.DocTypeOther)))
	require.NoError(t, idx.Upsert(ctx, "s-a", []float32{1, 0}, "m1", metaFor("d1", domain.DocTypeOther)))

	hits, err := idx.Query(ctx, []float32{1, 0}, "m1", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "s-a", hits[0].SegmentID)
	assert.Equal(t, "s-b", hits[1].SegmentID)
}

func TestModelVersionIsolation(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "s1", []float32{1, 0}, "m1", metaFor("d1", domain.DocTypeOther)))
	require.NoError(t, idx.Upsert(ctx, "s2", []float32{1, 0, 0}, "m2", metaFor("d1", domain.DocTypeOther)))

	hits, err := idx.Query(ctx, []float32{1, 0}, "m1", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].SegmentID)

	// The m1 space is two-dimensional; a three-dimensional query is
	// incompatible, not silently empty.
	_, err = idx.Query(ctx, []float32{1, 0, 0}, "m1", 10, nil)
	assert.ErrorIs(t, err, domain.ErrIncompatibleModel)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "s1", []float32{1, 0}, "m1", metaFor("d1", domain.DocTypeOther)))
	err := idx.Upsert(ctx, "s2", []float32{1, 0, 0}, "m1", metaFor("d1", domain.DocTypeOther))
	assert.ErrorIs(t, err, domain.ErrIncompatibleModel)
}

func TestUpsert_ReplacesVector(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "s1", []float32{1, 0}, "m1", metaFor("d1", domain.DocTypeOther)))
	require.NoError(t, idx.Upsert(ctx, "s1", []float32{0, 1}, "m1", metaFor("d1", domain.DocTypeOther)))

	n, err := idx.Count(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Query(ctx, []float32{0, 1}, "m1", 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestQuery_Filter(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "s1", []float32{1, 0}, "m1", metaFor("d1", domain.DocTypeStatute)))
	require.NoError(t, idx.Upsert(ctx, "s2", []float32{1, 0}, "m1", metaFor("d2", domain.DocTypeDecision)))

	hits, err := idx.Query(ctx, []float32{1, 0}, "m1", 10, &domain.QueryFilter{
		DocTypes: []domain.DocType{domain.DocTypeDecision},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s2", hits[0].SegmentID)

	hits, err = idx.Query(ctx, []float32{1, 0}, "m1", 10, &domain.QueryFilter{
		DocumentIDs: []string{"d1"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].SegmentID)
}

func TestDeleteByRevision(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "s1", []float32{1, 0}, "m1", metaFor("d1", domain.DocTypeOther)))
	require.NoError(t, idx.Upsert(ctx, "s2", []float32{0, 1}, "m1", metaFor("d2", domain.DocTypeOther)))
	require.NoError(t, idx.Upsert(ctx, "s1", []float32{1, 0, 0}, "m2", metaFor("d1", domain.DocTypeOther)))

	require.NoError(t, idx.DeleteByRevision(ctx, "rev-d1"))

	n, err := idx.Count(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = idx.Count(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQuery_UnknownModelVersion(t *testing.T) {
	idx := NewIndex()
	hits, err := idx.Query(context.Background(), []float32{1}, "missing", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUpsert_Invalid(t *testing.T) {
	idx := NewIndex()
	err := idx.Upsert(context.Background(), "", nil, "", driven.VectorMeta{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
