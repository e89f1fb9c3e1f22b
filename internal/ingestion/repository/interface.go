package repository

import (
	"context"
	"time"
)

// Job statuses. A job moves pending -> processing -> completed or failed;
// completed and failed are terminal. Stuck processing jobs can be released
// back to pending by maintenance.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job is one queued note ingestion request. ResultData holds the structured
// payload as raw JSON once the job completes; ErrorMessage is set only on
// failure. Exactly one of the two is populated on a terminal job.
type Job struct {
	ID           int64
	RawText      string
	Status       string
	ResultData   *string
	ErrorMessage *string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
	CompletedAt  *time.Time
}

// Repository defines persistence operations for the ingestion job queue. The
// job table is the only shared state between the API and the worker.
type Repository interface {
	// Enqueue inserts a new pending job and returns it.
	Enqueue(ctx context.Context, rawText string) (Job, error)

	// ClaimNext atomically claims the oldest pending job, marking it
	// processing and stamping processed_at. It never blocks on jobs claimed
	// by concurrent workers; when nothing is pending it returns ok=false.
	ClaimNext(ctx context.Context) (Job, bool, error)

	// Complete marks a processing job completed, storing the structured
	// result payload as JSON. Completing a job that is not processing is a
	// conflict.
	Complete(ctx context.Context, id int64, resultData string) error

	// Fail marks a processing job failed with a reason. Failing a job that is
	// not processing is a conflict.
	Fail(ctx context.Context, id int64, reason string) error

	GetByID(ctx context.Context, id int64) (Job, error)

	// Recent returns the newest jobs regardless of status.
	Recent(ctx context.Context, limit int) ([]Job, error)

	// ReleaseStuck returns processing jobs whose claim is older than the
	// cutoff back to pending, and reports how many were released.
	ReleaseStuck(ctx context.Context, olderThan time.Time) (int64, error)

	// DeleteFinishedBefore removes terminal jobs with the given status whose
	// completion is older than the cutoff.
	DeleteFinishedBefore(ctx context.Context, status string, olderThan time.Time) (int64, error)
}
