// Package service implements account management: client resolution by company
// name and the per-client work log.
package service

import (
	"context"
	"strings"
	"time"

	"spms_backend/internal/accounts/domain"
	"spms_backend/internal/accounts/repository"
	"spms_backend/internal/accounts/transport"
	"spms_backend/platform/apperr"
	"spms_backend/platform/logger"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// Service provides business logic for clients and their work log.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new accounts service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// FindOrCreateClient resolves a client by company name, creating it when
// absent. The name is trimmed; a blank name is rejected.
func (s *Service) FindOrCreateClient(ctx context.Context, companyName string) (transport.ClientResponse, error) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return transport.ClientResponse{}, apperr.Validation("company name is required")
	}

	client, err := s.repo.FindOrCreateClient(ctx, name)
	if err != nil {
		return transport.ClientResponse{}, err
	}
	return toClientResponse(client), nil
}

// GetClient retrieves a client by its CLI-NNN code.
func (s *Service) GetClient(ctx context.Context, id string) (transport.ClientResponse, error) {
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return transport.ClientResponse{}, err
	}
	return toClientResponse(client), nil
}

// ListClients retrieves all clients.
func (s *Service) ListClients(ctx context.Context) (transport.ClientListResponse, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return transport.ClientListResponse{}, err
	}

	items := make([]transport.ClientResponse, 0, len(clients))
	for _, c := range clients {
		items = append(items, toClientResponse(c))
	}
	return transport.ClientListResponse{Items: items, Total: len(items)}, nil
}

// RecordActivity appends a manually sourced work log entry for the client.
// The action type is normalized into the declared vocabulary, unknown values
// falling back to the default.
func (s *Service) RecordActivity(ctx context.Context, clientID string, dealID *int, actionType, content string) (transport.ActivityResponse, error) {
	return s.recordActivity(ctx, clientID, dealID, actionType, content, domain.SourceManual, nil)
}

// RecordIngestedActivity appends a work log entry written by the ingestion
// worker, referencing the job it came from.
func (s *Service) RecordIngestedActivity(ctx context.Context, clientID string, dealID *int, actionType, content string, jobID int64) (transport.ActivityResponse, error) {
	return s.recordActivity(ctx, clientID, dealID, actionType, content, domain.SourceAI, &jobID)
}

func (s *Service) recordActivity(ctx context.Context, clientID string, dealID *int, actionType, content, source string, refID *int64) (transport.ActivityResponse, error) {
	if strings.TrimSpace(clientID) == "" {
		return transport.ActivityResponse{}, apperr.Validation("client id is required")
	}

	entry, err := s.repo.AddActivity(ctx, repository.AddActivityParams{
		ClientID:   clientID,
		DealID:     dealID,
		ActionType: domain.NormalizeActionType(actionType),
		Content:    content,
		Source:     source,
		RefID:      refID,
	})
	if err != nil {
		return transport.ActivityResponse{}, err
	}
	return toActivityResponse(entry), nil
}

// ListActivities retrieves a client's work log, newest first. The limit is
// clamped to a sane range; zero means the default page size.
func (s *Service) ListActivities(ctx context.Context, clientID string, limit int) (transport.ActivityListResponse, error) {
	if _, err := s.repo.GetClient(ctx, clientID); err != nil {
		return transport.ActivityListResponse{}, err
	}

	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	entries, err := s.repo.ListActivities(ctx, clientID, limit)
	if err != nil {
		return transport.ActivityListResponse{}, err
	}

	items := make([]transport.ActivityResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toActivityResponse(e))
	}
	return transport.ActivityListResponse{ClientID: clientID, Items: items, Total: len(items)}, nil
}

func toClientResponse(c repository.Client) transport.ClientResponse {
	return transport.ClientResponse{
		ID:          c.ID,
		CompanyName: c.CompanyName,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func toActivityResponse(e repository.ActivityEntry) transport.ActivityResponse {
	return transport.ActivityResponse{
		ID:         e.ID,
		ClientID:   e.ClientID,
		DealID:     e.DealID,
		ActionType: e.ActionType,
		Content:    e.Content,
		Source:     e.Source,
		RefID:      e.RefID,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
}
