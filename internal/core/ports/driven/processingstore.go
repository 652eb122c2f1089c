package driven

import (
	"context"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

// ProcessingStore persists per-document pipeline state: status, stage
// checkpoints and attempt counts. It also backs the claim protocol that
// keeps concurrent workers from processing the same document twice.
type ProcessingStore interface {
	// SaveRecord inserts or replaces a document's processing record.
	SaveRecord(ctx context.Context, rec *domain.ProcessingRecord) error

	// GetRecord retrieves a document's processing record.
	// Returns domain.ErrNotFound if absent.
	GetRecord(ctx context.Context, documentID string) (*domain.ProcessingRecord, error)

	// ListByStatus returns records in the given status.
	ListByStatus(ctx context.Context, status domain.ProcessingStatus) ([]domain.ProcessingRecord, error)

	// Claim atomically transitions a document to processing. Returns
	// domain.ErrDocumentClaimed if another worker already holds it.
	Claim(ctx context.Context, documentID string) error

	// Release transitions a claimed document to its terminal status.
	Release(ctx context.Context, documentID string, status domain.ProcessingStatus, lastError string) error

	// DeleteRecord removes a document's processing record (purge).
	DeleteRecord(ctx context.Context, documentID string) error
}

// SchedulerStore persists scheduled task state and execution history.
type SchedulerStore interface {
	// GetTask retrieves a task by ID.
	// Returns nil and no error if the task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// SaveTask inserts or updates a task.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// ListTasks returns all known tasks.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// RecordResult appends a task execution result.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// ListResults returns the most recent results for a task, newest
	// first, capped at limit.
	ListResults(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)
}
