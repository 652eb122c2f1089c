package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/lexica/internal/adapters/driven/embedding/local"
	"github.com/lexica-labs/lexica/internal/adapters/driven/storage/memory"
	vectormemory "github.com/lexica-labs/lexica/internal/adapters/driven/vector/memory"
	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
	"github.com/lexica-labs/lexica/internal/core/ports/driving"
	"github.com/lexica-labs/lexica/internal/masking"
	"github.com/lexica-labs/lexica/internal/segmenter"
)

const sampleText = "臺灣臺北地方法院民事判決\n原告主張被告應給付新臺幣五十萬元。\n聯絡電話：0912-345-678，請於上班時間來電。\n"

// countingEmbedder wraps an embedding service and counts Embed calls.
type countingEmbedder struct {
	driven.EmbeddingService

	mu    sync.Mutex
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.EmbeddingService.Embed(ctx, text)
}

func (e *countingEmbedder) embedCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// flakyEmbedder fails the first failures calls, then delegates.
type flakyEmbedder struct {
	driven.EmbeddingService

	mu       sync.Mutex
	failures int
}

func (e *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	fail := e.failures > 0
	if fail {
		e.failures--
	}
	e.mu.Unlock()
	if fail {
		return nil, errors.New("embedding backend unavailable")
	}
	return e.EmbeddingService.Embed(ctx, text)
}

// pipelineEnv bundles the stores and adapters behind one orchestrator.
type pipelineEnv struct {
	versions   *memory.VersionStore
	segments   *memory.SegmentStore
	embeddings *memory.EmbeddingStore
	processing *memory.ProcessingStore
	index      *vectormemory.Index
	embedder   driven.EmbeddingService
	cfg        domain.PipelineConfig
}

func newPipelineEnv(t *testing.T, embedder driven.EmbeddingService) *pipelineEnv {
	t.Helper()

	if embedder == nil {
		embedder = local.NewEmbeddingService(0, "")
	}
	return &pipelineEnv{
		versions:   memory.NewVersionStore(),
		segments:   memory.NewSegmentStore(),
		embeddings: memory.NewEmbeddingStore(),
		processing: memory.NewProcessingStore(),
		index:      vectormemory.NewIndex(),
		embedder:   embedder,
		cfg: domain.PipelineConfig{
			Workers:      2,
			MaxRetries:   2,
			RetryBackoff: time.Millisecond,
		},
	}
}

func (env *pipelineEnv) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()

	engine, err := masking.NewEngine(domain.DefaultDetectorRules())
	require.NoError(t, err)

	registry := segmenter.NewRegistry()
	registry.Register(segmenter.NewV1())

	return NewOrchestrator(env.cfg, engine, env.versions, env.segments,
		env.embeddings, registry, env.embedder, env.index, env.processing, nil)
}

func TestProcess_EndToEnd(t *testing.T) {
	env := newPipelineEnv(t, nil)
	orch := env.orchestrator(t)
	ctx := context.Background()

	res, err := orch.Process(ctx, driving.IngestRequest{
		DocumentID: "doc-1",
		DocType:    domain.DocTypeDecision,
		Language:   "zh-TW",
		Text:       sampleText,
	})
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.True(t, res.Created)
	assert.NotEmpty(t, res.RevisionID)
	assert.Positive(t, res.Segments)
	assert.Equal(t, 1, res.Masked, "the phone number should be masked")

	rev, err := env.versions.GetRevision(ctx, "doc-1", "latest")
	require.NoError(t, err)
	assert.NotContains(t, rev.MaskedText, "0912-345-678")
	assert.Contains(t, rev.MaskedText, "[REDACTED:PHONE]")
	require.Len(t, rev.MaskAudit, 1)
	assert.Equal(t, "PHONE", rev.MaskAudit[0].Category)

	segs, err := env.segments.GetSegments(ctx, res.RevisionID, "v1")
	require.NoError(t, err)
	require.Len(t, segs, res.Segments)

	count, err := env.index.Count(ctx, env.embedder.ModelVersion())
	require.NoError(t, err)
	assert.Equal(t, res.Segments, count)

	rec, err := orch.Status(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, rec.Status)
	assert.Equal(t, res.RevisionID, rec.RevisionID)
}

func TestProcess_InvalidInput(t *testing.T) {
	env := newPipelineEnv(t, nil)
	orch := env.orchestrator(t)

	_, err := orch.Process(context.Background(), driving.IngestRequest{DocumentID: "doc-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = orch.Process(context.Background(), driving.IngestRequest{
		DocumentID: "doc-1",
		DocType:    domain.DocType("memo"),
		Text:       "text",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcess_UnchangedContentDeduplicates(t *testing.T) {
	env := newPipelineEnv(t, nil)
	orch := env.orchestrator(t)
	ctx := context.Background()

	req := driving.IngestRequest{DocumentID: "doc-1", Text: sampleText}

	first, err := orch.Process(ctx, req)
	require.NoError(t, err)
	require.NoError(t, first.Err)
	require.True(t, first.Created)

	second, err := orch.Process(ctx, req)
	require.NoError(t, err)
	require.NoError(t, second.Err)
	assert.False(t, second.Created)
	assert.Equal(t, first.RevisionID, second.RevisionID)

	revs, err := env.versions.ListRevisions(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, revs, 1)
}

func TestProcess_SkipsCommittedEmbeddings(t *testing.T) {
	counting := &countingEmbedder{EmbeddingService: local.NewEmbeddingService(0, "")}
	env := newPipelineEnv(t, counting)
	orch := env.orchestrator(t)
	ctx := context.Background()

	req := driving.IngestRequest{DocumentID: "doc-1", Text: sampleText}

	first, err := orch.Process(ctx, req)
	require.NoError(t, err)
	require.NoError(t, first.Err)
	after := counting.embedCalls()
	assert.Equal(t, first.Segments, after)

	second, err := orch.Process(ctx, req)
	require.NoError(t, err)
	require.NoError(t, second.Err)
	assert.Equal(t, after, counting.embedCalls(), "committed embeddings must not be recomputed")
}

func TestProcess_ClaimedDocumentRejected(t *testing.T) {
	env := newPipelineEnv(t, nil)
	orch := env.orchestrator(t)
	ctx := context.Background()

	require.NoError(t, env.processing.Claim(ctx, "doc-1"))

	_, err := orch.Process(ctx, driving.IngestRequest{DocumentID: "doc-1", Text: sampleText})
	assert.ErrorIs(t, err, domain.ErrDocumentClaimed)
}

func TestProcess_RetriesTransientFailures(t *testing.T) {
	flaky := &flakyEmbedder{EmbeddingService: local.NewEmbeddingService(0, ""), failures: 2}
	env := newPipelineEnv(t, flaky)
	orch := env.orchestrator(t)
	ctx := context.Background()

	res, err := orch.Process(ctx, driving.IngestRequest{DocumentID: "doc-1", Text: sampleText})
	require.NoError(t, err)
	require.NoError(t, res.Err)

	rec, err := orch.Status(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, rec.Status)
	assert.Equal(t, 3, rec.Attempts)
}

func TestProcess_ExhaustedRetriesFail(t *testing.T) {
	flaky := &flakyEmbedder{EmbeddingService: local.NewEmbeddingService(0, ""), failures: 10}
	env := newPipelineEnv(t, flaky)
	orch := env.orchestrator(t)
	ctx := context.Background()

	res, err := orch.Process(ctx, driving.IngestRequest{DocumentID: "doc-1", Text: sampleText})
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, domain.ErrStageFailed)

	rec, err := orch.Status(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.NotEmpty(t, rec.LastError)
	assert.NotEmpty(t, rec.RevisionID, "the revision committed before the embed stage failed")
}

func TestProcessBatch_ReportsPerDocument(t *testing.T) {
	env := newPipelineEnv(t, nil)
	orch := env.orchestrator(t)
	ctx := context.Background()

	reqs := []driving.IngestRequest{
		{DocumentID: "doc-1", Text: "第一份判決全文。\n"},
		{DocumentID: "doc-2", Text: ""},
		{DocumentID: "doc-3", Text: "第三份判決全文。\n"},
	}

	results, err := orch.ProcessBatch(ctx, reqs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "doc-1", results[0].DocumentID)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, domain.ErrInvalidInput)
	assert.Equal(t, "doc-3", results[2].DocumentID)
	assert.NoError(t, results[2].Err)
}

func TestRetryFailed_RecoversCommittedRevisions(t *testing.T) {
	flaky := &flakyEmbedder{EmbeddingService: local.NewEmbeddingService(0, ""), failures: 10}
	env := newPipelineEnv(t, flaky)
	ctx := context.Background()

	res, err := env.orchestrator(t).Process(ctx, driving.IngestRequest{DocumentID: "doc-1", Text: sampleText})
	require.NoError(t, err)
	require.Error(t, res.Err)

	// A fresh orchestrator over the same stores with a healthy backend.
	env.embedder = local.NewEmbeddingService(0, "")
	orch := env.orchestrator(t)

	retried, err := orch.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, retried)

	rec, err := orch.Status(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, rec.Status)
}

func TestRebuildIndex_RestoresVectors(t *testing.T) {
	env := newPipelineEnv(t, nil)
	orch := env.orchestrator(t)
	ctx := context.Background()

	res, err := orch.Process(ctx, driving.IngestRequest{DocumentID: "doc-1", Text: sampleText})
	require.NoError(t, err)
	require.NoError(t, res.Err)

	// A fresh index simulates a restart.
	env.index = vectormemory.NewIndex()
	orch = env.orchestrator(t)

	loaded, err := orch.RebuildIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Segments, loaded)

	count, err := env.index.Count(ctx, env.embedder.ModelVersion())
	require.NoError(t, err)
	assert.Equal(t, res.Segments, count)
}
