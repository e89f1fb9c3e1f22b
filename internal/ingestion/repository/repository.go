package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spms_backend/platform/apperr"
)

const jobNotFoundMessage = "ingestion job not found"

const jobColumns = `job_id, raw_text, status, result_data, error_message, created_at, processed_at, completed_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new ingestion job repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.RawText, &j.Status, &j.ResultData, &j.ErrorMessage,
		&j.CreatedAt, &j.ProcessedAt, &j.CompletedAt,
	)
	return j, err
}

// Enqueue inserts a new pending job.
func (r *Repo) Enqueue(ctx context.Context, rawText string) (Job, error) {
	query := `
		INSERT INTO ingest_jobs (raw_text, status)
		VALUES ($1, 'pending')
		RETURNING ` + jobColumns

	j, err := scanJob(r.pool.QueryRow(ctx, query, rawText))
	if err != nil {
		return Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return j, nil
}

// ClaimNext atomically claims the oldest pending job. The inner SELECT locks
// the candidate row with SKIP LOCKED so concurrent workers never claim the
// same job and never wait on each other's claims.
func (r *Repo) ClaimNext(ctx context.Context) (Job, bool, error) {
	query := `
		UPDATE ingest_jobs
		SET status = 'processing', processed_at = now()
		WHERE job_id = (
			SELECT job_id
			FROM ingest_jobs
			WHERE status = 'pending'
			ORDER BY created_at ASC, job_id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	j, err := scanJob(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, false, nil
		}
		return Job{}, false, fmt.Errorf("claim next job: %w", err)
	}
	return j, true, nil
}

// Complete marks a processing job completed, storing the result payload.
func (r *Repo) Complete(ctx context.Context, id int64, resultData string) error {
	query := `
		UPDATE ingest_jobs
		SET status = 'completed', result_data = $2, error_message = NULL, completed_at = now()
		WHERE job_id = $1 AND status = 'processing'`

	return r.finishJob(ctx, id, query, resultData, "complete job")
}

// Fail marks a processing job failed with a reason.
func (r *Repo) Fail(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE ingest_jobs
		SET status = 'failed', error_message = $2, completed_at = now()
		WHERE job_id = $1 AND status = 'processing'`

	return r.finishJob(ctx, id, query, reason, "fail job")
}

// finishJob runs a guarded terminal update. A miss is disambiguated into not
// found (no such job) or conflict (job not in the processing state).
func (r *Repo) finishJob(ctx context.Context, id int64, query, payload, op string) error {
	tag, err := r.pool.Exec(ctx, query, id, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status string
	err = r.pool.QueryRow(ctx, `SELECT status FROM ingest_jobs WHERE job_id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(jobNotFoundMessage)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return apperr.Conflict(fmt.Sprintf("job is %s, not processing", status))
}

// GetByID retrieves a job by its ID.
func (r *Repo) GetByID(ctx context.Context, id int64) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ingest_jobs WHERE job_id = $1`

	j, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, apperr.NotFound(jobNotFoundMessage)
		}
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// Recent retrieves the newest jobs regardless of status.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM ingest_jobs
		ORDER BY created_at DESC, job_id DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// ReleaseStuck returns long-claimed processing jobs to pending so a live
// worker can pick them up again after a crash mid-claim.
func (r *Repo) ReleaseStuck(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE ingest_jobs
		SET status = 'pending', processed_at = NULL
		WHERE status = 'processing' AND processed_at < $1`

	tag, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("release stuck jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteFinishedBefore removes old terminal jobs of the given status.
func (r *Repo) DeleteFinishedBefore(ctx context.Context, status string, olderThan time.Time) (int64, error) {
	if status != StatusCompleted && status != StatusFailed {
		return 0, apperr.Validation("only terminal jobs can be deleted")
	}

	query := `DELETE FROM ingest_jobs WHERE status = $1 AND completed_at < $2`

	tag, err := r.pool.Exec(ctx, query, status, olderThan)
	if err != nil {
		return 0, fmt.Errorf("delete finished jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
