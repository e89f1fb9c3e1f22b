package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	accountstransport "spms_backend/internal/accounts/transport"
	"spms_backend/internal/ingestion/parser"
	"spms_backend/internal/ingestion/repository"
	pipelinedomain "spms_backend/internal/pipeline/domain"
	pipelinerepo "spms_backend/internal/pipeline/repository"
	"spms_backend/platform/apperr"
	"spms_backend/platform/logger"
)

type fakeJobs struct {
	mu     sync.Mutex
	jobs   map[int64]repository.Job
	nextID int64
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[int64]repository.Job), nextID: 1}
}

func (f *fakeJobs) Enqueue(_ context.Context, rawText string) (repository.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := repository.Job{
		ID:        f.nextID,
		RawText:   rawText,
		Status:    repository.StatusPending,
		CreatedAt: time.Now(),
	}
	f.nextID++
	f.jobs[j.ID] = j
	return j, nil
}

func (f *fakeJobs) ClaimNext(_ context.Context) (repository.Job, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.jobs))
	for id := range f.jobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		j := f.jobs[id]
		if j.Status != repository.StatusPending {
			continue
		}
		now := time.Now()
		j.Status = repository.StatusProcessing
		j.ProcessedAt = &now
		f.jobs[id] = j
		return j, true, nil
	}
	return repository.Job{}, false, nil
}

func (f *fakeJobs) Complete(_ context.Context, id int64, resultData string) error {
	return f.finish(id, repository.StatusCompleted, &resultData, nil)
}

func (f *fakeJobs) Fail(_ context.Context, id int64, reason string) error {
	return f.finish(id, repository.StatusFailed, nil, &reason)
}

func (f *fakeJobs) finish(id int64, status string, resultData, reason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	j, ok := f.jobs[id]
	if !ok {
		return apperr.NotFound("ingestion job not found")
	}
	if j.Status != repository.StatusProcessing {
		return apperr.Conflict("job is " + j.Status + ", not processing")
	}
	now := time.Now()
	j.Status = status
	j.ResultData = resultData
	j.ErrorMessage = reason
	j.CompletedAt = &now
	f.jobs[id] = j
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id int64) (repository.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return repository.Job{}, apperr.NotFound("ingestion job not found")
	}
	return j, nil
}

func (f *fakeJobs) Recent(_ context.Context, limit int) ([]repository.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeJobs) ReleaseStuck(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var released int64
	for id, j := range f.jobs {
		if j.Status == repository.StatusProcessing && j.ProcessedAt != nil && j.ProcessedAt.Before(olderThan) {
			j.Status = repository.StatusPending
			j.ProcessedAt = nil
			f.jobs[id] = j
			released++
		}
	}
	return released, nil
}

func (f *fakeJobs) DeleteFinishedBefore(_ context.Context, status string, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, j := range f.jobs {
		if j.Status == status && j.CompletedAt != nil && j.CompletedAt.Before(olderThan) {
			delete(f.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeParser struct {
	notes map[string]parser.ParsedNote
}

func (f *fakeParser) Parse(_ context.Context, rawText string) (parser.ParsedNote, error) {
	note, ok := f.notes[rawText]
	if !ok {
		return parser.ParsedNote{}, &parser.ParseError{Reason: "no company name identified in note"}
	}
	return note, nil
}

type fakeAccounts struct {
	mu         sync.Mutex
	clients    map[string]string // company name -> client id
	activities []recordedActivity
	nextSeq    int
}

type recordedActivity struct {
	clientID   string
	dealID     *int
	actionType string
	content    string
	jobID      int64
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{clients: make(map[string]string), nextSeq: 1}
}

func (f *fakeAccounts) FindOrCreateClient(_ context.Context, companyName string) (accountstransport.ClientResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.clients[companyName]
	if !ok {
		id = fmt.Sprintf("CLI-%03d", f.nextSeq)
		f.nextSeq++
		f.clients[companyName] = id
	}
	return accountstransport.ClientResponse{ID: id, CompanyName: companyName}, nil
}

func (f *fakeAccounts) RecordIngestedActivity(_ context.Context, clientID string, dealID *int, actionType, content string, jobID int64) (accountstransport.ActivityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, recordedActivity{clientID: clientID, dealID: dealID, actionType: actionType, content: content, jobID: jobID})
	return accountstransport.ActivityResponse{ClientID: clientID, ActionType: actionType, Content: content}, nil
}

type fakeDeals struct {
	mu     sync.Mutex
	deals  map[string]pipelinerepo.Deal // clientID|name
	nextID int
}

func newFakeDeals() *fakeDeals {
	return &fakeDeals{deals: make(map[string]pipelinerepo.Deal), nextID: 1}
}

func (f *fakeDeals) FindOrCreate(_ context.Context, clientID, name, stage string) (pipelinerepo.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := clientID + "|" + name
	if d, ok := f.deals[key]; ok {
		return d, nil
	}
	d := pipelinerepo.Deal{ID: f.nextID, ClientID: &clientID, Name: name, Stage: stage}
	f.nextID++
	f.deals[key] = d
	return d, nil
}

func newTestWorker(jobs *fakeJobs, p parser.NoteParser, accounts *fakeAccounts, deals *fakeDeals) *Worker {
	return New(jobs, p, accounts, deals, nil, logger.New("test"), time.Second)
}

func TestProcessCompletesJobEndToEnd(t *testing.T) {
	jobs := newFakeJobs()
	accounts := newFakeAccounts()
	deals := newFakeDeals()
	p := &fakeParser{notes: map[string]parser.ParsedNote{
		"met acme about the erp deal": {
			CompanyName: "Acme Industries",
			ActionType:  "meeting",
			Content:     "Kickoff meeting about ERP rollout",
			DealName:    "ERP rollout",
			DealStage:   "L1",
		},
	}}
	w := newTestWorker(jobs, p, accounts, deals)

	enqueued, _ := jobs.Enqueue(context.Background(), "met acme about the erp deal")
	w.drain(context.Background())

	job, _ := jobs.GetByID(context.Background(), enqueued.ID)
	if job.Status != repository.StatusCompleted {
		t.Fatalf("job status = %s, want completed (error: %v)", job.Status, job.ErrorMessage)
	}
	if job.ResultData == nil {
		t.Fatal("completed job has no result payload")
	}
	var result jobResult
	if err := json.Unmarshal([]byte(*job.ResultData), &result); err != nil {
		t.Fatalf("result payload is not valid JSON: %v", err)
	}
	if result.CompanyName != "Acme Industries" || result.ClientID != "CLI-001" {
		t.Errorf("result = %+v, want Acme Industries / CLI-001", result)
	}
	if result.DealID == nil || *result.DealID != 1 {
		t.Errorf("result deal id = %v, want 1", result.DealID)
	}
	if job.CompletedAt == nil || job.ProcessedAt == nil {
		t.Errorf("timestamps not stamped: processed=%v completed=%v", job.ProcessedAt, job.CompletedAt)
	}

	if len(accounts.activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(accounts.activities))
	}
	a := accounts.activities[0]
	if a.clientID != "CLI-001" || a.actionType != "meeting" || a.dealID == nil || *a.dealID != 1 {
		t.Errorf("unexpected activity: %+v", a)
	}
	if a.jobID != enqueued.ID {
		t.Errorf("activity job ref = %d, want %d", a.jobID, enqueued.ID)
	}

	d, _ := deals.FindOrCreate(context.Background(), "CLI-001", "ERP rollout", "")
	if d.Stage != "L1" {
		t.Errorf("deal stage = %s, want L1", d.Stage)
	}
}

func TestProcessUnknownStageDefaultsToInitial(t *testing.T) {
	jobs := newFakeJobs()
	accounts := newFakeAccounts()
	deals := newFakeDeals()
	p := &fakeParser{notes: map[string]parser.ParsedNote{
		"note": {CompanyName: "Acme", DealName: "ERP rollout", DealStage: "sometime next quarter"},
	}}
	w := newTestWorker(jobs, p, accounts, deals)

	jobs.Enqueue(context.Background(), "note")
	w.drain(context.Background())

	d, _ := deals.FindOrCreate(context.Background(), "CLI-001", "ERP rollout", "")
	if d.Stage != pipelinedomain.InitialStage {
		t.Errorf("deal stage = %s, want %s", d.Stage, pipelinedomain.InitialStage)
	}
}

func TestProcessWithoutDealNameSkipsDealMaterialization(t *testing.T) {
	jobs := newFakeJobs()
	accounts := newFakeAccounts()
	deals := newFakeDeals()
	p := &fakeParser{notes: map[string]parser.ParsedNote{
		"note": {CompanyName: "Acme", ActionType: "email", Content: "Sent follow-up"},
	}}
	w := newTestWorker(jobs, p, accounts, deals)

	enqueued, _ := jobs.Enqueue(context.Background(), "note")
	w.drain(context.Background())

	job, _ := jobs.GetByID(context.Background(), enqueued.ID)
	if job.ResultData == nil {
		t.Fatal("completed job has no result payload")
	}
	var result jobResult
	if err := json.Unmarshal([]byte(*job.ResultData), &result); err != nil {
		t.Fatalf("result payload is not valid JSON: %v", err)
	}
	if result.ClientID != "CLI-001" || result.DealID != nil {
		t.Errorf("result = %+v, want CLI-001 with no deal", result)
	}
	if len(deals.deals) != 0 {
		t.Errorf("deal created without a deal name: %+v", deals.deals)
	}
	if accounts.activities[0].dealID != nil {
		t.Errorf("activity linked to a deal that should not exist")
	}
}

func TestDrainSurvivesParseFailure(t *testing.T) {
	jobs := newFakeJobs()
	accounts := newFakeAccounts()
	deals := newFakeDeals()
	p := &fakeParser{notes: map[string]parser.ParsedNote{
		"good note": {CompanyName: "Acme", Content: "Call summary"},
	}}
	w := newTestWorker(jobs, p, accounts, deals)

	bad, _ := jobs.Enqueue(context.Background(), "gibberish")
	good, _ := jobs.Enqueue(context.Background(), "good note")
	w.drain(context.Background())

	badJob, _ := jobs.GetByID(context.Background(), bad.ID)
	if badJob.Status != repository.StatusFailed {
		t.Errorf("bad job status = %s, want failed", badJob.Status)
	}
	if badJob.ErrorMessage == nil || *badJob.ErrorMessage != "no company name identified in note" {
		t.Errorf("bad job error = %v, want parse reason", badJob.ErrorMessage)
	}

	goodJob, _ := jobs.GetByID(context.Background(), good.ID)
	if goodJob.Status != repository.StatusCompleted {
		t.Errorf("good job status = %s, want completed; one bad job must not stall the queue", goodJob.Status)
	}
}

func TestConcurrentClaimsAreDistinct(t *testing.T) {
	jobs := newFakeJobs()
	const n = 20
	for i := 0; i < n; i++ {
		jobs.Enqueue(context.Background(), fmt.Sprintf("note %d", i))
	}

	var mu sync.Mutex
	seen := make(map[int64]int)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, ok, err := jobs.ClaimNext(context.Background())
				if err != nil {
					t.Errorf("ClaimNext returned error: %v", err)
					return
				}
				if !ok {
					return
				}
				mu.Lock()
				seen[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Fatalf("claimed %d distinct jobs, want %d", len(seen), n)
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("job %d claimed %d times", id, count)
		}
	}
}

func TestFinishGuardsRejectNonProcessingJobs(t *testing.T) {
	jobs := newFakeJobs()
	enqueued, _ := jobs.Enqueue(context.Background(), "note")

	// Still pending: nothing has claimed it.
	if err := jobs.Complete(context.Background(), enqueued.ID, "done"); apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("completing a pending job: kind = %v, want conflict", apperr.GetKind(err))
	}

	claimed, _, _ := jobs.ClaimNext(context.Background())
	if err := jobs.Complete(context.Background(), claimed.ID, "done"); err != nil {
		t.Fatalf("completing a processing job returned error: %v", err)
	}
	if err := jobs.Fail(context.Background(), claimed.ID, "late failure"); apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("failing a completed job: kind = %v, want conflict", apperr.GetKind(err))
	}

	if err := jobs.Complete(context.Background(), 404, "done"); apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("completing a missing job: kind = %v, want not found", apperr.GetKind(err))
	}
}

func TestStuckJobReclaimerReleasesOldClaims(t *testing.T) {
	jobs := newFakeJobs()
	jobs.Enqueue(context.Background(), "stuck note")
	claimed, _, _ := jobs.ClaimNext(context.Background())

	// Backdate the claim past the reclaim cutoff.
	jobs.mu.Lock()
	j := jobs.jobs[claimed.ID]
	old := time.Now().Add(-time.Hour)
	j.ProcessedAt = &old
	jobs.jobs[claimed.ID] = j
	jobs.mu.Unlock()

	r := NewStuckJobReclaimer(jobs, logger.New("test"), time.Minute, 15*time.Minute)
	r.reclaim(context.Background())

	job, _ := jobs.GetByID(context.Background(), claimed.ID)
	if job.Status != repository.StatusPending {
		t.Errorf("job status = %s, want pending after reclaim", job.Status)
	}
	if job.ProcessedAt != nil {
		t.Errorf("processed_at not cleared on reclaim")
	}
}

func TestJobCleanupKeepsRecentJobs(t *testing.T) {
	jobs := newFakeJobs()

	oldJob, _ := jobs.Enqueue(context.Background(), "old")
	jobs.ClaimNext(context.Background())
	jobs.Complete(context.Background(), oldJob.ID, "done")

	jobs.mu.Lock()
	j := jobs.jobs[oldJob.ID]
	past := time.Now().Add(-30 * 24 * time.Hour)
	j.CompletedAt = &past
	jobs.jobs[oldJob.ID] = j
	jobs.mu.Unlock()

	recentJob, _ := jobs.Enqueue(context.Background(), "recent")
	jobs.ClaimNext(context.Background())
	jobs.Complete(context.Background(), recentJob.ID, "done")

	c := NewJobCleanup(jobs, logger.New("test"), time.Hour, 14*24*time.Hour, 30*24*time.Hour)
	c.cleanup(context.Background())

	if _, err := jobs.GetByID(context.Background(), oldJob.ID); apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("old completed job not deleted")
	}
	if _, err := jobs.GetByID(context.Background(), recentJob.ID); err != nil {
		t.Errorf("recent job deleted by cleanup: %v", err)
	}
}
