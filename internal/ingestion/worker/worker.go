// Package worker drains the ingestion job queue: it claims pending jobs,
// parses the raw note, and writes the extracted client, activity, and deal
// records.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	accountstransport "spms_backend/internal/accounts/transport"
	"spms_backend/internal/events"
	"spms_backend/internal/ingestion/parser"
	"spms_backend/internal/ingestion/repository"
	pipelinedomain "spms_backend/internal/pipeline/domain"
	pipelinerepo "spms_backend/internal/pipeline/repository"
	"spms_backend/platform/logger"
)

const defaultPollInterval = 10 * time.Second

// jobResult is the structured payload stored on a completed job.
type jobResult struct {
	CompanyName string `json:"companyName"`
	ClientID    string `json:"clientId"`
	ActionType  string `json:"actionType"`
	DealName    string `json:"dealName,omitempty"`
	DealStage   string `json:"dealStage,omitempty"`
	DealID      *int   `json:"dealId,omitempty"`
}

// Accounts is the slice of the accounts service the worker needs.
type Accounts interface {
	FindOrCreateClient(ctx context.Context, companyName string) (accountstransport.ClientResponse, error)
	RecordIngestedActivity(ctx context.Context, clientID string, dealID *int, actionType, content string, jobID int64) (accountstransport.ActivityResponse, error)
}

// Deals is the slice of the pipeline repository the worker needs.
type Deals interface {
	FindOrCreate(ctx context.Context, clientID, name, stage string) (pipelinerepo.Deal, error)
}

// Worker polls the job queue and processes claimed jobs one at a time. A
// failing job is marked failed and the loop moves on; nothing a single job
// does can stop the worker.
type Worker struct {
	jobs     repository.Repository
	parser   parser.NoteParser
	accounts Accounts
	deals    Deals
	bus      events.Bus
	log      *logger.Logger
	interval time.Duration
}

// New creates a new ingestion worker.
func New(jobs repository.Repository, noteParser parser.NoteParser, accounts Accounts, deals Deals, bus events.Bus, log *logger.Logger, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Worker{
		jobs:     jobs,
		parser:   noteParser,
		accounts: accounts,
		deals:    deals,
		bus:      bus,
		log:      log,
		interval: interval,
	}
}

// Run polls until the context is cancelled. Each tick drains every pending
// job before sleeping again.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("ingestion worker started", "pollInterval", w.interval.String())

	w.drain(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("ingestion worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, ok, err := w.jobs.ClaimNext(ctx)
		if err != nil {
			w.log.Error("failed to claim next job", "error", err)
			return
		}
		if !ok {
			return
		}

		w.process(ctx, job)
	}
}

// process runs one claimed job to a terminal state. Every failure path marks
// the job failed with a reason; errors never propagate out.
func (w *Worker) process(ctx context.Context, job repository.Job) {
	w.log.JobEvent("job claimed", job.ID)

	note, err := w.parser.Parse(ctx, job.RawText)
	if err != nil {
		w.failJob(ctx, job.ID, parseFailureReason(err))
		return
	}

	client, err := w.accounts.FindOrCreateClient(ctx, note.CompanyName)
	if err != nil {
		w.failJob(ctx, job.ID, "client resolution failed: "+err.Error())
		return
	}

	var dealID *int
	if note.DealName != "" {
		stage := note.DealStage
		if !pipelinedomain.IsKnownStage(stage) {
			stage = pipelinedomain.InitialStage
		}
		deal, err := w.deals.FindOrCreate(ctx, client.ID, note.DealName, stage)
		if err != nil {
			w.failJob(ctx, job.ID, "deal resolution failed: "+err.Error())
			return
		}
		dealID = &deal.ID
	}

	content := note.Content
	if content == "" {
		content = job.RawText
	}
	if _, err := w.accounts.RecordIngestedActivity(ctx, client.ID, dealID, note.ActionType, content, job.ID); err != nil {
		w.failJob(ctx, job.ID, "activity write failed: "+err.Error())
		return
	}

	result, err := json.Marshal(jobResult{
		CompanyName: note.CompanyName,
		ClientID:    client.ID,
		ActionType:  note.ActionType,
		DealName:    note.DealName,
		DealStage:   note.DealStage,
		DealID:      dealID,
	})
	if err != nil {
		w.failJob(ctx, job.ID, "result encoding failed: "+err.Error())
		return
	}
	if err := w.jobs.Complete(ctx, job.ID, string(result)); err != nil {
		w.log.JobError("failed to mark job completed", job.ID, err)
		return
	}

	w.log.JobEvent("job completed", job.ID)
	if w.bus != nil {
		w.bus.Publish(ctx, events.NoteIngested{
			BaseEvent: events.NewBaseEvent(),
			JobID:     job.ID,
			ClientID:  client.ID,
			DealID:    dealID,
		})
	}
}

func (w *Worker) failJob(ctx context.Context, id int64, reason string) {
	if err := w.jobs.Fail(ctx, id, reason); err != nil {
		w.log.JobError("failed to mark job failed", id, err)
		return
	}

	w.log.JobEvent("job failed: "+reason, id)
	if w.bus != nil {
		w.bus.Publish(ctx, events.NoteIngestFailed{
			BaseEvent: events.NewBaseEvent(),
			JobID:     id,
			Reason:    reason,
		})
	}
}

func parseFailureReason(err error) string {
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Reason
	}
	return "note parsing failed: " + err.Error()
}
