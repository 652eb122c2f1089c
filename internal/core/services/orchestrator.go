package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
	"github.com/lexica-labs/lexica/internal/core/ports/driving"
)

// Ensure Orchestrator implements the interface.
var _ driving.PipelineOrchestrator = (*Orchestrator)(nil)

// Orchestrator runs documents through the pipeline stages in order:
// mask, version, segment, embed. Stages checkpoint through storage, so
// a retried document skips work that already committed.
type Orchestrator struct {
	cfg        domain.PipelineConfig
	masker     driven.Masker
	versions   driven.VersionStore
	segments   driven.SegmentStore
	embeddings driven.EmbeddingStore
	segmenters driven.SegmenterRegistry
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	processing driven.ProcessingStore
	metrics    driven.Metrics
}

// NewOrchestrator creates a pipeline orchestrator. The configuration is
// normalized, so zero fields fall back to defaults. A nil metrics sink
// is replaced with a no-op.
func NewOrchestrator(
	cfg domain.PipelineConfig,
	masker driven.Masker,
	versions driven.VersionStore,
	segments driven.SegmentStore,
	embeddings driven.EmbeddingStore,
	segmenters driven.SegmenterRegistry,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	processing driven.ProcessingStore,
	metrics driven.Metrics,
) *Orchestrator {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	cfg = cfg.Normalize()
	if cfg.ModelVersion == "" && embedder != nil {
		cfg.ModelVersion = embedder.ModelVersion()
	}
	return &Orchestrator{
		cfg:        cfg,
		masker:     masker,
		versions:   versions,
		segments:   segments,
		embeddings: embeddings,
		segmenters: segmenters,
		embedder:   embedder,
		index:      index,
		processing: processing,
		metrics:    metrics,
	}
}

// Process runs one document through the pipeline synchronously.
// The document is claimed for the duration so concurrent submissions of
// the same ID cannot interleave.
func (o *Orchestrator) Process(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	if req.DocumentID == "" || req.Text == "" {
		return nil, fmt.Errorf("ingest requires document id and text: %w", domain.ErrInvalidInput)
	}
	if req.DocType == "" {
		req.DocType = domain.DocTypeOther
	}
	if !req.DocType.Valid() {
		return nil, fmt.Errorf("unknown doc type %q: %w", req.DocType, domain.ErrInvalidInput)
	}

	if err := o.processing.Claim(ctx, req.DocumentID); err != nil {
		return nil, fmt.Errorf("claiming %s: %w", req.DocumentID, err)
	}

	result := o.runWithRetries(ctx, req)

	status := domain.StatusCompleted
	lastError := ""
	if result.Err != nil {
		status = domain.StatusFailed
		lastError = result.Err.Error()
		o.metrics.IncDocumentsFailed()
	} else {
		o.metrics.IncDocumentsProcessed()
	}
	if err := o.processing.Release(ctx, req.DocumentID, status, lastError); err != nil {
		log.Printf("orchestrator: releasing %s: %v", req.DocumentID, err)
	}

	return result, nil
}

// ProcessBatch runs documents through the pipeline with bounded
// parallelism. Failures are reported per document; the batch always
// runs to completion unless the context is cancelled.
func (o *Orchestrator) ProcessBatch(ctx context.Context, reqs []driving.IngestRequest) ([]driving.IngestResult, error) {
	results := make([]driving.IngestResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			res, err := o.Process(gctx, req)
			if err != nil {
				results[i] = driving.IngestResult{DocumentID: req.DocumentID, Err: err}
				return nil
			}
			results[i] = *res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Reprocess re-runs the segment and embed stages over a document's
// latest revision, e.g. after a segmenter upgrade or a failure past the
// version stage.
func (o *Orchestrator) Reprocess(ctx context.Context, documentID string) (*driving.IngestResult, error) {
	if err := o.processing.Claim(ctx, documentID); err != nil {
		return nil, fmt.Errorf("claiming %s: %w", documentID, err)
	}

	result := &driving.IngestResult{DocumentID: documentID}
	err := o.withRetries(ctx, result, func() (string, error) {
		rev, err := o.versions.GetRevision(ctx, documentID, "latest")
		if err != nil {
			return domain.StageVersion, err
		}
		result.RevisionID = rev.RevisionID

		segs, err := o.runSegmentStage(ctx, rev)
		if err != nil {
			return domain.StageSegment, err
		}
		result.Segments = len(segs)

		doc, err := o.versions.GetDocument(ctx, documentID)
		if err != nil {
			return domain.StageSegment, err
		}
		if err := o.runEmbedStage(ctx, doc, rev, segs); err != nil {
			return domain.StageEmbed, err
		}
		return "", nil
	})
	result.Err = err

	status := domain.StatusCompleted
	lastError := ""
	if err != nil {
		status = domain.StatusFailed
		lastError = err.Error()
		o.metrics.IncDocumentsFailed()
	} else {
		o.metrics.IncDocumentsProcessed()
	}
	if relErr := o.processing.Release(ctx, documentID, status, lastError); relErr != nil {
		log.Printf("orchestrator: releasing %s: %v", documentID, relErr)
	}

	return result, nil
}

// RetryFailed re-submits failed documents that have a committed
// revision. Documents that failed before the version stage have no
// stored text and cannot be retried without re-ingestion.
func (o *Orchestrator) RetryFailed(ctx context.Context) (int, error) {
	failed, err := o.processing.ListByStatus(ctx, domain.StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("listing failed documents: %w", err)
	}

	retried := 0
	for _, rec := range failed {
		if rec.RevisionID == "" {
			log.Printf("orchestrator: %s failed before a revision committed, needs re-ingestion", rec.DocumentID)
			continue
		}
		res, err := o.Reprocess(ctx, rec.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrDocumentClaimed) {
				continue
			}
			return retried, err
		}
		if res.Err == nil {
			retried++
		}
	}
	return retried, nil
}

// Status returns a document's processing record.
func (o *Orchestrator) Status(ctx context.Context, documentID string) (*domain.ProcessingRecord, error) {
	return o.processing.GetRecord(ctx, documentID)
}

// RebuildIndex reloads persisted embeddings into the vector index.
// Called at startup since the index itself is in-memory.
func (o *Orchestrator) RebuildIndex(ctx context.Context) (int, error) {
	stored, err := o.embeddings.ListEmbeddings(ctx, o.cfg.ModelVersion)
	if err != nil {
		return 0, fmt.Errorf("listing embeddings: %w", err)
	}
	if len(stored) == 0 {
		return 0, nil
	}
	vectors := make(map[string][]float32, len(stored))
	for _, emb := range stored {
		vectors[emb.SegmentID] = emb.Vector
	}

	docs, err := o.versions.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing documents: %w", err)
	}

	loaded := 0
	for _, doc := range docs {
		revs, err := o.versions.ListRevisions(ctx, doc.ID)
		if err != nil {
			return loaded, fmt.Errorf("listing revisions of %s: %w", doc.ID, err)
		}
		for _, rev := range revs {
			segs, err := o.segments.GetSegments(ctx, rev.RevisionID, o.cfg.SegmenterVersion)
			if err != nil {
				return loaded, fmt.Errorf("loading segments of %s: %w", rev.RevisionID, err)
			}
			for _, seg := range segs {
				vec, ok := vectors[seg.ID]
				if !ok {
					continue
				}
				err := o.index.Upsert(ctx, seg.ID, vec, o.cfg.ModelVersion, driven.VectorMeta{
					DocumentID:       doc.ID,
					RevisionID:       rev.RevisionID,
					DocType:          doc.DocType,
					SegmenterVersion: seg.SegmenterVersion,
				})
				if err != nil {
					return loaded, fmt.Errorf("indexing segment %s: %w", seg.ID, err)
				}
				loaded++
			}
		}
	}
	return loaded, nil
}

// runWithRetries executes the full stage sequence under the retry
// policy and returns the per-document result.
func (o *Orchestrator) runWithRetries(ctx context.Context, req driving.IngestRequest) *driving.IngestResult {
	result := &driving.IngestResult{DocumentID: req.DocumentID}
	result.Err = o.withRetries(ctx, result, func() (string, error) {
		return o.runStages(ctx, req, result)
	})
	return result
}

// withRetries runs fn up to MaxRetries+1 times with exponential
// backoff. fn reports the failing stage for the processing record.
func (o *Orchestrator) withRetries(ctx context.Context, result *driving.IngestResult, fn func() (string, error)) error {
	backoff := o.cfg.RetryBackoff
	var lastErr error

	for attempt := 1; attempt <= o.cfg.MaxRetries+1; attempt++ {
		stage, err := fn()
		o.saveAttempt(ctx, result, stage, attempt, err)
		if err == nil {
			return nil
		}
		if stage == domain.StageSegment {
			o.metrics.IncSegmentationFailures()
		}
		lastErr = fmt.Errorf("%s stage: %w", stage, err)

		// Invalid input never heals on retry.
		if errors.Is(err, domain.ErrInvalidInput) ||
			errors.Is(err, domain.ErrDuplicateRevision) ||
			errors.Is(err, domain.ErrNotFound) {
			break
		}
		if attempt > o.cfg.MaxRetries {
			break
		}

		o.metrics.IncRetries()
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", domain.ErrStageFailed, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("%w: %w", domain.ErrStageFailed, lastErr)
}

// saveAttempt records pipeline progress for operators. Failures to save
// are logged, not fatal; the record is observability, not ground truth.
func (o *Orchestrator) saveAttempt(ctx context.Context, result *driving.IngestResult, stage string, attempt int, stageErr error) {
	rec := &domain.ProcessingRecord{
		DocumentID: result.DocumentID,
		Status:     domain.StatusProcessing,
		Attempts:   attempt,
		Stage:      stage,
		RevisionID: result.RevisionID,
	}
	if stageErr != nil {
		rec.LastError = stageErr.Error()
	}
	if err := o.processing.SaveRecord(ctx, rec); err != nil {
		log.Printf("orchestrator: saving processing record for %s: %v", result.DocumentID, err)
	}
}

// runStages executes mask, version, segment and embed once, skipping
// whatever already committed. Returns the stage a failure belongs to.
func (o *Orchestrator) runStages(ctx context.Context, req driving.IngestRequest, result *driving.IngestResult) (string, error) {
	masked, err := o.masker.Mask(ctx, req.Text)
	if err != nil {
		return domain.StageMask, err
	}
	result.Masked = len(masked.Audit)
	for _, rec := range masked.Audit {
		o.metrics.IncMaskHits(rec.Category, 1)
	}

	doc := &domain.Document{
		ID:        req.DocumentID,
		SourceURI: req.SourceURI,
		Collector: req.Collector,
		DocType:   req.DocType,
		Language:  req.Language,
	}
	if err := o.versions.SaveDocument(ctx, doc); err != nil {
		return domain.StageVersion, err
	}

	rev, created, err := o.versions.AppendRevision(ctx, req.DocumentID, masked.MaskedText, masked.Audit)
	if err != nil {
		return domain.StageVersion, err
	}
	result.RevisionID = rev.RevisionID
	result.Created = created

	segs, err := o.runSegmentStage(ctx, rev)
	if err != nil {
		return domain.StageSegment, err
	}
	result.Segments = len(segs)

	if err := o.runEmbedStage(ctx, doc, rev, segs); err != nil {
		return domain.StageEmbed, err
	}
	return "", nil
}

// runSegmentStage returns the revision's segment set, reusing a stored
// set when the segmenter version already processed this revision.
func (o *Orchestrator) runSegmentStage(ctx context.Context, rev *domain.Revision) ([]domain.Segment, error) {
	existing, err := o.segments.GetSegments(ctx, rev.RevisionID, o.cfg.SegmenterVersion)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	seg, err := o.segmenters.Get(o.cfg.SegmenterVersion)
	if err != nil {
		return nil, err
	}
	segs, err := seg.Segment(ctx, rev.RevisionID, rev.MaskedText)
	if err != nil {
		return nil, err
	}
	if err := o.segments.SaveSegments(ctx, segs); err != nil {
		return nil, err
	}
	return segs, nil
}

// runEmbedStage embeds and indexes segments that are not yet committed
// under the active model version. Each segment commits independently,
// so a mid-batch failure resumes where it stopped.
func (o *Orchestrator) runEmbedStage(ctx context.Context, doc *domain.Document, rev *domain.Revision, segs []domain.Segment) error {
	meta := driven.VectorMeta{
		DocumentID:       doc.ID,
		RevisionID:       rev.RevisionID,
		DocType:          doc.DocType,
		SegmenterVersion: o.cfg.SegmenterVersion,
	}

	for _, seg := range segs {
		done, err := o.embeddings.HasEmbedding(ctx, seg.ID, o.cfg.ModelVersion)
		if err != nil {
			return err
		}
		if done {
			continue
		}

		vec, err := o.embedder.Embed(ctx, seg.Text)
		if err != nil {
			return fmt.Errorf("embedding segment %s: %w", seg.ID, err)
		}
		if err := o.embeddings.SaveEmbedding(ctx, &domain.Embedding{
			SegmentID:    seg.ID,
			Vector:       vec,
			ModelVersion: o.cfg.ModelVersion,
		}); err != nil {
			return err
		}
		if err := o.index.Upsert(ctx, seg.ID, vec, o.cfg.ModelVersion, meta); err != nil {
			return err
		}
	}
	return nil
}
