package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"spms_backend/internal/ingestion/repository"
	"spms_backend/internal/ingestion/transport"
	"spms_backend/platform/apperr"
	"spms_backend/platform/logger"
)

type fakeRepo struct {
	jobs        map[int64]repository.Job
	nextID      int64
	recentLimit int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: make(map[int64]repository.Job), nextID: 1}
}

func (f *fakeRepo) Enqueue(_ context.Context, rawText string) (repository.Job, error) {
	j := repository.Job{ID: f.nextID, RawText: rawText, Status: repository.StatusPending, CreatedAt: time.Now()}
	f.nextID++
	f.jobs[j.ID] = j
	return j, nil
}

func (f *fakeRepo) ClaimNext(_ context.Context) (repository.Job, bool, error) {
	return repository.Job{}, false, nil
}

func (f *fakeRepo) Complete(_ context.Context, _ int64, _ string) error { return nil }
func (f *fakeRepo) Fail(_ context.Context, _ int64, _ string) error    { return nil }

func (f *fakeRepo) GetByID(_ context.Context, id int64) (repository.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return repository.Job{}, apperr.NotFound("ingestion job not found")
	}
	return j, nil
}

func (f *fakeRepo) Recent(_ context.Context, limit int) ([]repository.Job, error) {
	f.recentLimit = limit
	out := make([]repository.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ReleaseStuck(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func (f *fakeRepo) DeleteFinishedBefore(_ context.Context, _ string, _ time.Time) (int64, error) {
	return 0, nil
}

func TestEnqueueReturnsPendingJobHandle(t *testing.T) {
	svc := New(newFakeRepo(), nil, logger.New("test"))

	resp, err := svc.Enqueue(context.Background(), transport.EnqueueNoteRequest{Text: "met acme today"})
	if err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	if resp.JobID != 1 {
		t.Errorf("job id = %d, want 1", resp.JobID)
	}
	if resp.Status != repository.StatusPending {
		t.Errorf("status = %s, want pending", resp.Status)
	}
}

func TestEnqueueRejectsBlankText(t *testing.T) {
	svc := New(newFakeRepo(), nil, logger.New("test"))

	_, err := svc.Enqueue(context.Background(), transport.EnqueueNoteRequest{Text: "   \n\t"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("kind = %v, want validation error", apperr.GetKind(err))
	}
}

func TestRecentJobsClampsLimit(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, logger.New("test"))
	for i := 0; i < 5; i++ {
		repo.Enqueue(context.Background(), fmt.Sprintf("note %d", i))
	}

	tests := []struct {
		in   int
		want int
	}{
		{0, defaultRecentLimit},
		{-3, defaultRecentLimit},
		{7, 7},
		{100000, maxRecentLimit},
	}
	for _, tt := range tests {
		if _, err := svc.RecentJobs(context.Background(), tt.in); err != nil {
			t.Fatalf("RecentJobs(%d) returned error: %v", tt.in, err)
		}
		if repo.recentLimit != tt.want {
			t.Errorf("RecentJobs(%d) queried with limit %d, want %d", tt.in, repo.recentLimit, tt.want)
		}
	}
}

func TestGetJobUnknownID(t *testing.T) {
	svc := New(newFakeRepo(), nil, logger.New("test"))

	_, err := svc.GetJob(context.Background(), 404)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("kind = %v, want not found", apperr.GetKind(err))
	}
}
