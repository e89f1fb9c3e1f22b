// Package pipeline provides the deal pipeline bounded context module.
// This file defines the module that encapsulates all pipeline setup and route
// registration.
package pipeline

import (
	"spms_backend/internal/events"
	apphttp "spms_backend/internal/http"
	"spms_backend/internal/pipeline/gates"
	"spms_backend/internal/pipeline/handler"
	"spms_backend/internal/pipeline/repository"
	"spms_backend/internal/pipeline/service"
	"spms_backend/platform/config"
	"spms_backend/platform/logger"
	"spms_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the deal pipeline bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the pipeline module with all its
// dependencies. Gate rules are loaded once at startup; a missing rules file
// yields an empty rule set so every transition is gated by the lifecycle graph
// alone.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg config.GateRulesConfig, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	rules, err := gates.LoadRules(cfg.GetGateRulesPath())
	if err != nil {
		return nil, err
	}
	gate := gates.NewEvaluator(rules, repo)

	svc := service.New(repo, gate, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipeline"
}

// Service returns the pipeline service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the pipeline repository for external use.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts pipeline routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/deals"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
