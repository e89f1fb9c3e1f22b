package worker

import (
	"context"
	"time"

	"spms_backend/internal/ingestion/repository"
	"spms_backend/platform/logger"
)

const (
	defaultReclaimInterval = time.Minute
	defaultReclaimAfter    = 15 * time.Minute

	defaultCleanupInterval       = time.Hour
	defaultCompletedJobRetention = 14 * 24 * time.Hour
	defaultFailedJobRetention    = 30 * 24 * time.Hour
)

// StuckJobReclaimer periodically returns long-claimed processing jobs to
// pending. A worker that dies mid-job leaves its claim behind; without this
// the job would stay processing forever.
type StuckJobReclaimer struct {
	repo         repository.Repository
	log          *logger.Logger
	interval     time.Duration
	reclaimAfter time.Duration
}

// NewStuckJobReclaimer creates a reclaimer. Non-positive durations fall back
// to defaults.
func NewStuckJobReclaimer(repo repository.Repository, log *logger.Logger, interval, reclaimAfter time.Duration) *StuckJobReclaimer {
	if interval <= 0 {
		interval = defaultReclaimInterval
	}
	if reclaimAfter <= 0 {
		reclaimAfter = defaultReclaimAfter
	}
	return &StuckJobReclaimer{repo: repo, log: log, interval: interval, reclaimAfter: reclaimAfter}
}

// Run reclaims until the context is cancelled.
func (r *StuckJobReclaimer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.reclaim(ctx)
		}
	}
}

func (r *StuckJobReclaimer) reclaim(ctx context.Context) {
	released, err := r.repo.ReleaseStuck(ctx, time.Now().Add(-r.reclaimAfter))
	if err != nil {
		r.log.Warn("stuck job reclaim failed", "error", err)
		return
	}
	if released > 0 {
		r.log.Info("released stuck jobs back to pending", "released", released)
	}
}

// JobCleanup periodically removes old finished ingestion jobs.
type JobCleanup struct {
	repo               repository.Repository
	log                *logger.Logger
	interval           time.Duration
	completedRetention time.Duration
	failedRetention    time.Duration
}

// NewJobCleanup creates a cleanup loop. Non-positive durations fall back to
// defaults.
func NewJobCleanup(repo repository.Repository, log *logger.Logger, interval, completedRetention, failedRetention time.Duration) *JobCleanup {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	if completedRetention <= 0 {
		completedRetention = defaultCompletedJobRetention
	}
	if failedRetention <= 0 {
		failedRetention = defaultFailedJobRetention
	}
	return &JobCleanup{
		repo:               repo,
		log:                log,
		interval:           interval,
		completedRetention: completedRetention,
		failedRetention:    failedRetention,
	}
}

// Run cleans until the context is cancelled.
func (c *JobCleanup) Run(ctx context.Context) error {
	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *JobCleanup) cleanup(ctx context.Context) {
	now := time.Now()

	deleted := int64(0)
	for _, target := range []struct {
		status    string
		retention time.Duration
	}{
		{repository.StatusCompleted, c.completedRetention},
		{repository.StatusFailed, c.failedRetention},
	} {
		n, err := c.repo.DeleteFinishedBefore(ctx, target.status, now.Add(-target.retention))
		if err != nil {
			c.log.Warn("job cleanup failed", "status", target.status, "error", err)
			continue
		}
		deleted += n
	}

	if deleted > 0 {
		c.log.Info("job cleanup deleted finished jobs", "deleted", deleted)
	}
}
