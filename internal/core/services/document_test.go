package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driving"
)

// newDocumentEnv ingests two revisions of one document and returns the
// environment plus a document service over it.
func newDocumentEnv(t *testing.T) (*pipelineEnv, *Document) {
	t.Helper()
	env := newPipelineEnv(t, nil)
	orch := env.orchestrator(t)
	ctx := context.Background()

	v1 := "主文\n被告應給付原告新臺幣五十萬元。\n訴訟費用由被告負擔。\n"
	v2 := "主文\n被告應給付原告新臺幣五十萬元。\n訴訟費用由被告負擔。\n本判決得假執行。\n"

	for _, text := range []string{v1, v2} {
		res, err := orch.Process(ctx, driving.IngestRequest{
			DocumentID: "doc-1",
			DocType:    domain.DocTypeDecision,
			Text:       text,
		})
		require.NoError(t, err)
		require.NoError(t, res.Err)
	}

	svc := NewDocument(env.cfg, env.versions, env.segments, env.embeddings, env.index, env.processing)
	return env, svc
}

func TestHistory_ListsRevisionsWithCounts(t *testing.T) {
	_, svc := newDocumentEnv(t)

	infos, err := svc.History(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, 1, infos[0].Revision.Sequence)
	assert.Equal(t, 2, infos[1].Revision.Sequence)
	for _, info := range infos {
		assert.Empty(t, info.Revision.MaskedText, "history omits revision text")
		assert.Positive(t, info.Segments)
	}
}

func TestDiff_InsertedLine(t *testing.T) {
	_, svc := newDocumentEnv(t)
	ctx := context.Background()

	infos, err := svc.History(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	ops, err := svc.Diff(ctx, "doc-1", infos[0].Revision.RevisionID, infos[1].Revision.RevisionID)
	require.NoError(t, err)
	require.NotEmpty(t, ops)

	var inserted []string
	for _, op := range ops {
		switch op.Kind {
		case domain.DiffInsert, domain.DiffReplace:
			inserted = append(inserted, op.Lines...)
		case domain.DiffEqual:
			assert.Empty(t, op.Lines)
			assert.Equal(t, op.FromEnd-op.FromStart, op.ToEnd-op.ToStart)
		case domain.DiffDelete:
			t.Fatalf("unexpected delete op: %+v", op)
		}
	}
	assert.Contains(t, inserted, "本判決得假執行。")
}

func TestDiff_LatestAlias(t *testing.T) {
	_, svc := newDocumentEnv(t)
	ctx := context.Background()

	infos, err := svc.History(ctx, "doc-1")
	require.NoError(t, err)

	ops, err := svc.Diff(ctx, "doc-1", infos[0].Revision.RevisionID, "latest")
	require.NoError(t, err)
	assert.NotEmpty(t, ops)

	same, err := svc.Diff(ctx, "doc-1", "latest", "latest")
	require.NoError(t, err)
	for _, op := range same {
		assert.Equal(t, domain.DiffEqual, op.Kind)
	}
}

func TestDiff_UnknownRevision(t *testing.T) {
	_, svc := newDocumentEnv(t)

	_, err := svc.Diff(context.Background(), "doc-1", "no-such-revision", "latest")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSegments_OrdinalOrderAndTotality(t *testing.T) {
	_, svc := newDocumentEnv(t)

	segs, err := svc.Segments(context.Background(), "doc-1", "latest")
	require.NoError(t, err)
	require.NotEmpty(t, segs)

	var rebuilt string
	for i, seg := range segs {
		assert.Equal(t, i, seg.Ordinal)
		rebuilt += seg.Text
	}

	doc, err := svc.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeDecision, doc.DocType)
	assert.Contains(t, rebuilt, "本判決得假執行。")
}

func TestPurge_RemovesAllDependentState(t *testing.T) {
	env, svc := newDocumentEnv(t)
	ctx := context.Background()

	revs, err := env.versions.ListRevisions(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, revs, 2)

	require.NoError(t, svc.Purge(ctx, "doc-1"))

	_, err = env.versions.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, rev := range revs {
		ids, err := env.segments.ListSegmentIDs(ctx, rev.RevisionID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	}

	embs, err := env.embeddings.ListEmbeddings(ctx, env.embedder.ModelVersion())
	require.NoError(t, err)
	assert.Empty(t, embs)

	count, err := env.index.Count(ctx, env.embedder.ModelVersion())
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = env.processing.GetRecord(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
