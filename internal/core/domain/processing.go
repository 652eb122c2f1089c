package domain

import "time"

// ProcessingStatus tracks a document through the pipeline.
type ProcessingStatus string

const (
	// StatusPending means the document is queued but not started.
	StatusPending ProcessingStatus = "pending"

	// StatusProcessing means a worker currently holds the document.
	StatusProcessing ProcessingStatus = "processing"

	// StatusCompleted means all stages committed.
	StatusCompleted ProcessingStatus = "completed"

	// StatusFailed means retries were exhausted. The originating stage
	// and error are recorded; the document is never silently dropped.
	StatusFailed ProcessingStatus = "failed"
)

// ProcessingRecord is the operator-visible state of one document's trip
// through the pipeline.
type ProcessingRecord struct {
	// DocumentID identifies the document.
	DocumentID string

	// Status is the current pipeline status.
	Status ProcessingStatus

	// Attempts counts processing attempts including the first.
	Attempts int

	// Stage names the last stage that ran (mask, version, segment, embed).
	Stage string

	// LastError is the most recent error message, empty on success.
	// Never contains unmasked document text.
	LastError string

	// RevisionID is set once a revision has been committed.
	RevisionID string

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time
}

// Pipeline stage names recorded in ProcessingRecord.Stage.
const (
	StageMask    = "mask"
	StageVersion = "version"
	StageSegment = "segment"
	StageEmbed   = "embed"
)
