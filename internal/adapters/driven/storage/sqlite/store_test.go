package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)
	assert.NotEmpty(t, store.Path())
}

func TestVersionStore_DocumentRoundtrip(t *testing.T) {
	store := newTestStore(t)
	vs := store.VersionStore()
	ctx := context.Background()

	doc := &domain.Document{
		ID:        "doc-1",
		SourceURI: "file:///tmp/judgment.txt",
		DocType:   domain.DocTypeDecision,
		Language:  "zh-TW",
		Collector: "importer",
	}
	require.NoError(t, vs.SaveDocument(ctx, doc))

	got, err := vs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.SourceURI, got.SourceURI)
	assert.Equal(t, domain.DocTypeDecision, got.DocType)
	assert.Equal(t, "zh-TW", got.Language)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = vs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionStore_SaveDocument_Invalid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.VersionStore().SaveDocument(ctx, &domain.Document{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = store.VersionStore().SaveDocument(ctx, &domain.Document{ID: "d", DocType: "memo"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVersionStore_AppendRevision(t *testing.T) {
	store := newTestStore(t)
	vs := store.VersionStore()
	ctx := context.Background()

	require.NoError(t, vs.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))

	rev1, created, err := vs.AppendRevision(ctx, "doc-1", "第一版內容", nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, rev1.Sequence)
	assert.Equal(t, domain.HashContent("第一版內容"), rev1.RevisionID)

	// Identical latest content deduplicates instead of appending.
	again, created, err := vs.AppendRevision(ctx, "doc-1", "第一版內容", nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, rev1.RevisionID, again.RevisionID)
	assert.Equal(t, 1, again.Sequence)

	rev2, created, err := vs.AppendRevision(ctx, "doc-1", "第二版內容", nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, rev2.Sequence)

	// Reverting to a hash recorded at an earlier sequence is rejected.
	_, _, err = vs.AppendRevision(ctx, "doc-1", "第一版內容", nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateRevision)
}

func TestVersionStore_DedupIsPerDocument(t *testing.T) {
	store := newTestStore(t)
	vs := store.VersionStore()
	ctx := context.Background()

	require.NoError(t, vs.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))
	require.NoError(t, vs.SaveDocument(ctx, &domain.Document{ID: "doc-2"}))

	_, created, err := vs.AppendRevision(ctx, "doc-1", "相同內容", nil)
	require.NoError(t, err)
	assert.True(t, created)

	// The same content in another document is an independent revision.
	rev, created, err := vs.AppendRevision(ctx, "doc-2", "相同內容", nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, rev.Sequence)
}

func TestVersionStore_MaskAuditRoundtrip(t *testing.T) {
	store := newTestStore(t)
	vs := store.VersionStore()
	ctx := context.Background()

	require.NoError(t, vs.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))

	audit := []domain.MaskRecord{
		{Start: 5, End: 17, Category: "PHONE", RuleID: "phone", OriginalHash: domain.HashContent("0912-345-678")},
	}
	rev, _, err := vs.AppendRevision(ctx, "doc-1", "電話：[REDACTED:PHONE]", audit)
	require.NoError(t, err)

	got, err := vs.GetRevision(ctx, "doc-1", rev.RevisionID)
	require.NoError(t, err)
	assert.Equal(t, audit, got.MaskAudit)
}

func TestVersionStore_GetRevisionLatest(t *testing.T) {
	store := newTestStore(t)
	vs := store.VersionStore()
	ctx := context.Background()

	require.NoError(t, vs.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))
	_, _, err := vs.AppendRevision(ctx, "doc-1", "v1", nil)
	require.NoError(t, err)
	rev2, _, err := vs.AppendRevision(ctx, "doc-1", "v2", nil)
	require.NoError(t, err)

	latest, err := vs.GetRevision(ctx, "doc-1", "latest")
	require.NoError(t, err)
	assert.Equal(t, rev2.RevisionID, latest.RevisionID)

	revs, err := vs.ListRevisions(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, 1, revs[0].Sequence)
	assert.Equal(t, 2, revs[1].Sequence)
}

func TestVersionStore_PurgeDocument(t *testing.T) {
	store := newTestStore(t)
	vs := store.VersionStore()
	ctx := context.Background()

	require.NoError(t, vs.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))
	_, _, err := vs.AppendRevision(ctx, "doc-1", "內容", nil)
	require.NoError(t, err)

	require.NoError(t, vs.PurgeDocument(ctx, "doc-1"))

	_, err = vs.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	revs, err := vs.ListRevisions(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, revs)
}

func TestSegmentStore_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ss := store.SegmentStore()
	ctx := context.Background()

	segments := []domain.Segment{
		{
			ID: "seg-1", RevisionID: "rev-1", SegmenterVersion: "v1", Ordinal: 0,
			Text: "主文\n", Type: domain.SegmentParagraph,
			Metadata: domain.SegmentMetadata{LegalTerms: []string{"損害賠償"}},
		},
		{
			ID: "seg-2", RevisionID: "rev-1", SegmenterVersion: "v1", Ordinal: 1,
			Text: "第184條", Type: domain.SegmentArticle,
			Metadata: domain.SegmentMetadata{LawRefs: []string{"第184條"}},
		},
	}
	require.NoError(t, ss.SaveSegments(ctx, segments))

	got, err := ss.GetSegments(ctx, "rev-1", "v1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, segments[0].Metadata, got[0].Metadata)
	assert.Equal(t, 1, got[1].Ordinal)

	seg, err := ss.GetSegment(ctx, "seg-2")
	require.NoError(t, err)
	assert.Equal(t, domain.SegmentArticle, seg.Type)

	_, err = ss.GetSegment(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Other segmenter versions are separate sets.
	none, err := ss.GetSegments(ctx, "rev-1", "v2")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, ss.DeleteByRevision(ctx, "rev-1"))
	got, err = ss.GetSegments(ctx, "rev-1", "v1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddingStore_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	es := store.EmbeddingStore()
	ctx := context.Background()

	emb := &domain.Embedding{
		SegmentID:    "seg-1",
		Vector:       []float32{0.25, -1.5, 3.75},
		ModelVersion: "m1",
	}
	require.NoError(t, es.SaveEmbedding(ctx, emb))

	ok, err := es.HasEmbedding(ctx, "seg-1", "m1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = es.HasEmbedding(ctx, "seg-1", "m2")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := es.ListEmbeddings(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, emb.Vector, list[0].Vector)

	require.NoError(t, es.DeleteBySegments(ctx, []string{"seg-1"}))
	ok, err = es.HasEmbedding(ctx, "seg-1", "m1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProcessingStore_ClaimRelease(t *testing.T) {
	store := newTestStore(t)
	ps := store.ProcessingStore()
	ctx := context.Background()

	require.NoError(t, ps.Claim(ctx, "doc-1"))
	assert.ErrorIs(t, ps.Claim(ctx, "doc-1"), domain.ErrDocumentClaimed)

	require.NoError(t, ps.Release(ctx, "doc-1", domain.StatusFailed, "embed stage timed out"))

	rec, err := ps.GetRecord(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Equal(t, "embed stage timed out", rec.LastError)

	// A released document can be claimed again.
	require.NoError(t, ps.Claim(ctx, "doc-1"))
}

func TestProcessingStore_RecordRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ps := store.ProcessingStore()
	ctx := context.Background()

	rec := &domain.ProcessingRecord{
		DocumentID: "doc-1",
		Status:     domain.StatusCompleted,
		Attempts:   2,
		Stage:      domain.StageEmbed,
		RevisionID: "rev-abc",
	}
	require.NoError(t, ps.SaveRecord(ctx, rec))

	got, err := ps.GetRecord(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, domain.StageEmbed, got.Stage)
	assert.Equal(t, "rev-abc", got.RevisionID)
	assert.Empty(t, got.LastError)

	_, err = ps.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProcessingStore_ListByStatus(t *testing.T) {
	store := newTestStore(t)
	ps := store.ProcessingStore()
	ctx := context.Background()

	require.NoError(t, ps.SaveRecord(ctx, &domain.ProcessingRecord{DocumentID: "a", Status: domain.StatusFailed}))
	require.NoError(t, ps.SaveRecord(ctx, &domain.ProcessingRecord{DocumentID: "b", Status: domain.StatusCompleted}))
	require.NoError(t, ps.SaveRecord(ctx, &domain.ProcessingRecord{DocumentID: "c", Status: domain.StatusFailed}))

	failed, err := ps.ListByStatus(ctx, domain.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "a", failed[0].DocumentID)
	assert.Equal(t, "c", failed[1].DocumentID)
}

func TestFloat32BytesRoundtrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.14159}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
