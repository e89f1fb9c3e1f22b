// Package ingestion provides the note ingestion bounded context module: the
// queue surface over HTTP plus the worker-side construction helpers.
package ingestion

import (
	"context"
	"time"

	"spms_backend/internal/events"
	apphttp "spms_backend/internal/http"
	"spms_backend/internal/ingestion/handler"
	"spms_backend/internal/ingestion/parser"
	"spms_backend/internal/ingestion/repository"
	"spms_backend/internal/ingestion/service"
	"spms_backend/internal/ingestion/worker"
	"spms_backend/platform/config"
	"spms_backend/platform/logger"
	"spms_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the ingestion bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the ingestion module with all its
// dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "ingestion"
}

// Service returns the ingestion service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the job repository for the worker binary.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts note ingestion routes on the provided router context.
// The enqueue route is rate limited per client IP.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/notes")
	if ctx.NotesRateLimiter != nil {
		m.handler.RegisterRoutes(group, ctx.NotesRateLimiter.RateLimit())
		return
	}
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// NewWorker builds the polling worker over this module's job repository.
func (m *Module) NewWorker(noteParser parser.NoteParser, accounts worker.Accounts, deals worker.Deals, bus events.Bus, log *logger.Logger, pollInterval time.Duration) *worker.Worker {
	return worker.New(m.repo, noteParser, accounts, deals, bus, log, pollInterval)
}

// NewMaintenance builds the stuck-job reclaimer and cleanup loops from the
// worker configuration.
func (m *Module) NewMaintenance(cfg config.WorkerConfig, log *logger.Logger) (*worker.StuckJobReclaimer, *worker.JobCleanup) {
	reclaimer := worker.NewStuckJobReclaimer(m.repo, log, cfg.GetWorkerReclaimInterval(), cfg.GetWorkerReclaimAfter())
	cleanup := worker.NewJobCleanup(m.repo, log, cfg.GetJobCleanupInterval(), cfg.GetCompletedJobRetention(), cfg.GetFailedJobRetention())
	return reclaimer, cleanup
}

// NewParser constructs the configured note parser. Callers should check
// IsParserEnabled before calling; building without an API key fails.
func NewParser(ctx context.Context, cfg config.ParserConfig) (parser.NoteParser, error) {
	return parser.NewGeminiParser(ctx, cfg)
}
