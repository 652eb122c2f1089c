package domain

import "time"

// Default capacity parameters. These are operational limits, not
// architectural invariants; all are overridable via configuration.
const (
	// DefaultWorkers bounds parallel document processing.
	DefaultWorkers = 8

	// DefaultMaxRetries bounds per-document retries of transient
	// stage failures.
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the initial backoff; doubled per attempt.
	DefaultRetryBackoff = 500 * time.Millisecond

	// DefaultTokenBudget bounds the retrieval context per query.
	DefaultTokenBudget = 2048

	// DefaultOverfetchFactor multiplies k when over-fetching candidates
	// to leave room for deduplication.
	DefaultOverfetchFactor = 4

	// DefaultTopK is the number of segments targeted per context.
	DefaultTopK = 8
)

// PipelineConfig configures the processing and retrieval pipeline.
// It is passed explicitly at construction; behaviour is never patched
// at runtime.
type PipelineConfig struct {
	// Workers is the fixed worker pool size for ingestion.
	Workers int

	// MaxRetries bounds retries of a failed pipeline stage.
	MaxRetries int

	// RetryBackoff is the initial retry delay, doubled per attempt.
	RetryBackoff time.Duration

	// SegmenterVersion selects the segmenter used for new revisions.
	SegmenterVersion string

	// ModelVersion selects the embedding model version for new
	// embeddings and for query-time look-ups.
	ModelVersion string

	// TokenBudget bounds the retrieval context per query.
	TokenBudget int

	// TopK is the number of segments targeted per context; the vector
	// index is over-fetched by OverfetchFactor to allow deduplication.
	TopK int

	// OverfetchFactor multiplies TopK for candidate retrieval.
	OverfetchFactor int

	// Rules is the ordered PII detector rule set.
	Rules []DetectorRule
}

// Normalize fills zero fields with defaults and returns the result.
func (c PipelineConfig) Normalize() PipelineConfig {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.TokenBudget <= 0 {
		c.TokenBudget = DefaultTokenBudget
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.OverfetchFactor <= 0 {
		c.OverfetchFactor = DefaultOverfetchFactor
	}
	if c.SegmenterVersion == "" {
		c.SegmenterVersion = "v1"
	}
	if len(c.Rules) == 0 {
		c.Rules = DefaultDetectorRules()
	}
	return c
}
