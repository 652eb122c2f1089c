package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document, revision or segment
	// does not exist. Surfaced to the caller, never retried.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed input or a bad configuration
	// rule. Rejected before any state mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateRevision indicates an attempt to insert a revision whose
	// content hash already exists under a different sequence number.
	// Plain content dedup returns the existing revision instead.
	ErrDuplicateRevision = errors.New("duplicate revision")

	// ErrIncompatibleModel indicates a vector query against embeddings of
	// a different model version. Fatal for that query; never silently
	// degraded to a wrong comparison.
	ErrIncompatibleModel = errors.New("incompatible embedding model version")

	// ErrStageFailed indicates a transient pipeline stage failure
	// (I/O, embedding-service timeout). Retried with bounded backoff.
	ErrStageFailed = errors.New("pipeline stage failed")

	// ErrDocumentClaimed indicates the document is already being
	// processed by another worker.
	ErrDocumentClaimed = errors.New("document already claimed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Ingestion and retrieval require embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGeneratorUnavailable indicates the answer generator is not
	// configured. Question answering is disabled without it.
	ErrGeneratorUnavailable = errors.New("answer generator unavailable")
)
