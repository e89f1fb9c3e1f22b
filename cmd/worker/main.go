package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spms_backend/internal/accounts"
	"spms_backend/internal/events"
	"spms_backend/internal/ingestion"
	"spms_backend/internal/pipeline"
	"spms_backend/platform/config"
	"spms_backend/platform/db"
	"spms_backend/platform/logger"
	"spms_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	if !cfg.IsParserEnabled() {
		log.Error("GEMINI_API_KEY not configured; worker cannot parse notes")
		panic("GEMINI_API_KEY not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// The worker reuses the same modules as the API: accounts for clients and
	// the work log, pipeline for deal materialization, ingestion for the
	// queue itself.
	accountsModule := accounts.NewModule(pool, eventBus, log)

	pipelineModule, err := pipeline.NewModule(pool, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize pipeline module", "error", err)
		panic("failed to initialize pipeline module: " + err.Error())
	}

	ingestionModule := ingestion.NewModule(pool, eventBus, val, log)

	noteParser, err := ingestion.NewParser(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize note parser", "error", err)
		panic("failed to initialize note parser: " + err.Error())
	}

	w := ingestionModule.NewWorker(noteParser, accountsModule.Service(), pipelineModule.Repository(), eventBus, log, cfg.GetWorkerPollInterval())
	reclaimer, cleanup := ingestionModule.NewMaintenance(cfg, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return reclaimer.Run(gctx) })
	g.Go(func() error { return cleanup.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker exited with error", "error", err)
		panic("worker exited with error: " + err.Error())
	}
	log.Info("worker stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
