package driving

import (
	"context"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

// IngestRequest describes one raw document submitted to the pipeline.
type IngestRequest struct {
	// DocumentID is the logical document identity. Required.
	DocumentID string

	// SourceURI records where the text came from.
	SourceURI string

	// Collector names the system or person submitting the document.
	Collector string

	// DocType classifies the document. Defaults to DocTypeOther.
	DocType domain.DocType

	// Language is a BCP 47 tag, e.g. "zh-TW".
	Language string

	// Text is the raw, unmasked document text. Required.
	Text string
}

// IngestResult reports the pipeline outcome for one document.
type IngestResult struct {
	// DocumentID is the processed document.
	DocumentID string

	// RevisionID is the revision produced, or the existing revision when
	// the content was unchanged.
	RevisionID string

	// Created is false when ingestion deduplicated against the latest
	// revision and wrote nothing new.
	Created bool

	// Segments is the number of segments produced for the revision.
	Segments int

	// Masked is the number of PII spans replaced.
	Masked int

	// Err is the terminal error after retries were exhausted, nil on
	// success.
	Err error
}

// PipelineOrchestrator runs documents through the full pipeline:
// mask, version, segment, embed and index.
type PipelineOrchestrator interface {
	// Process runs one document through the pipeline synchronously.
	Process(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// ProcessBatch runs documents through the pipeline with bounded
	// parallelism. One result per request, in request order. Failures
	// are reported per document and do not abort the batch.
	ProcessBatch(ctx context.Context, reqs []IngestRequest) ([]IngestResult, error)

	// Reprocess re-runs the latest revision of a document through the
	// segment and embed stages, e.g. after a segmenter upgrade.
	Reprocess(ctx context.Context, documentID string) (*IngestResult, error)

	// RetryFailed re-submits all documents in failed status. Returns
	// the number of documents retried.
	RetryFailed(ctx context.Context) (int, error)

	// Status returns a document's processing record.
	Status(ctx context.Context, documentID string) (*domain.ProcessingRecord, error)
}
