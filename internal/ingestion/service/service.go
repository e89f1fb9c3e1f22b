// Package service implements the ingestion queue surface: accepting notes and
// reading job state.
package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"spms_backend/internal/events"
	"spms_backend/internal/ingestion/repository"
	"spms_backend/internal/ingestion/transport"
	"spms_backend/platform/apperr"
	"spms_backend/platform/logger"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// Service provides business logic for the ingestion job queue.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new ingestion service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Enqueue accepts a raw note into the queue. Processing happens later in the
// worker; the caller only gets the job handle back.
func (s *Service) Enqueue(ctx context.Context, req transport.EnqueueNoteRequest) (transport.EnqueueNoteResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return transport.EnqueueNoteResponse{}, apperr.Validation("note text is required")
	}

	job, err := s.repo.Enqueue(ctx, req.Text)
	if err != nil {
		return transport.EnqueueNoteResponse{}, err
	}

	s.log.JobEvent("note enqueued", job.ID)
	if s.bus != nil {
		s.bus.Publish(ctx, events.NoteEnqueued{BaseEvent: events.NewBaseEvent(), JobID: job.ID})
	}

	return transport.EnqueueNoteResponse{JobID: job.ID, Status: job.Status}, nil
}

// GetJob retrieves one job by ID.
func (s *Service) GetJob(ctx context.Context, id int64) (transport.JobResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.JobResponse{}, err
	}
	return toJobResponse(job), nil
}

// RecentJobs retrieves the newest jobs. The limit is clamped to a sane range;
// zero means the default page size.
func (s *Service) RecentJobs(ctx context.Context, limit int) (transport.JobListResponse, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	jobs, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return transport.JobListResponse{}, err
	}

	items := make([]transport.JobResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, toJobResponse(j))
	}
	return transport.JobListResponse{Items: items, Total: len(items)}, nil
}

func toJobResponse(j repository.Job) transport.JobResponse {
	resp := transport.JobResponse{
		ID:           j.ID,
		RawText:      j.RawText,
		Status:       j.Status,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt.Format(time.RFC3339),
		ProcessedAt:  formatTimePtr(j.ProcessedAt),
		CompletedAt:  formatTimePtr(j.CompletedAt),
	}
	if j.ResultData != nil {
		resp.ResultData = json.RawMessage(*j.ResultData)
	}
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
