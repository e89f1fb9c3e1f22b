// Package accounts provides the client accounts bounded context module.
// This file defines the module that encapsulates all accounts setup and route
// registration.
package accounts

import (
	"context"
	"fmt"

	"spms_backend/internal/accounts/domain"
	"spms_backend/internal/accounts/handler"
	"spms_backend/internal/accounts/repository"
	"spms_backend/internal/accounts/service"
	"spms_backend/internal/events"
	apphttp "spms_backend/internal/http"
	"spms_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the accounts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the accounts module with all its
// dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	// Subscribe to stage changes so every accepted transition leaves a trail
	// in the client's work log.
	eventBus.Subscribe(events.DealStageChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.DealStageChanged)
		if !ok {
			return nil
		}
		if e.ClientID == "" {
			return nil
		}

		content := fmt.Sprintf("Deal #%d moved %s -> %s", e.DealID, e.FromStage, e.ToStage)
		if e.Forced {
			content += " (forced)"
		}
		if e.AutoChain {
			content += " (auto)"
		}

		dealID := e.DealID
		if _, err := svc.RecordActivity(ctx, e.ClientID, &dealID, domain.ActionStageChange, content); err != nil {
			log.Error("failed to record stage change activity", "error", err, "dealId", e.DealID, "clientId", e.ClientID)
			return err
		}
		return nil
	}))

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "accounts"
}

// Service returns the accounts service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts client routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/clients"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
