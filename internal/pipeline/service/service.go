// Package service implements the deal transition engine: stage validation,
// gate evaluation, persistence, and the post-signing auto-chain.
package service

import (
	"context"
	"time"

	"spms_backend/internal/events"
	"spms_backend/internal/pipeline/domain"
	"spms_backend/internal/pipeline/gates"
	"spms_backend/internal/pipeline/repository"
	"spms_backend/internal/pipeline/transport"
	"spms_backend/platform/apperr"
	"spms_backend/platform/logger"
)

// Service provides business logic for the deal pipeline.
type Service struct {
	repo repository.Repository
	gate *gates.Evaluator
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new pipeline service.
func New(repo repository.Repository, gate *gates.Evaluator, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, gate: gate, bus: bus, log: log}
}

// Create creates a new deal, defaulting to the initial pre-sale stage.
func (s *Service) Create(ctx context.Context, req transport.CreateDealRequest) (transport.DealResponse, error) {
	stage := domain.InitialStage
	if req.Stage != nil {
		stage = *req.Stage
	}
	if !domain.IsKnownStage(stage) {
		return transport.DealResponse{}, apperr.Validation("unknown stage: " + stage)
	}

	priority := "Medium"
	if req.Priority != nil {
		priority = *req.Priority
	}

	deal, err := s.repo.Create(ctx, repository.CreateDealParams{
		ClientID: req.ClientID,
		Name:     req.Name,
		Stage:    stage,
		Owner:    req.Owner,
		Priority: priority,
	})
	if err != nil {
		return transport.DealResponse{}, err
	}

	return toDealResponse(deal), nil
}

// GetByID retrieves a deal by ID.
func (s *Service) GetByID(ctx context.Context, id int) (transport.DealResponse, error) {
	deal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DealResponse{}, err
	}
	return toDealResponse(deal), nil
}

// List retrieves all deals.
func (s *Service) List(ctx context.Context) (transport.DealListResponse, error) {
	deals, err := s.repo.List(ctx)
	if err != nil {
		return transport.DealListResponse{}, err
	}

	items := make([]transport.DealResponse, 0, len(deals))
	for _, d := range deals {
		items = append(items, toDealResponse(d))
	}
	return transport.DealListResponse{Items: items, Total: len(items)}, nil
}

// NextStages returns the legal next stages from the deal's current stage.
func (s *Service) NextStages(ctx context.Context, id int) (transport.NextStagesResponse, error) {
	deal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.NextStagesResponse{}, err
	}

	legal := domain.LegalNextStages(deal.Stage)
	options := make([]transport.StageOption, 0, len(legal))
	for _, stage := range legal {
		options = append(options, transport.StageOption{Stage: stage, Name: domain.StageName(stage)})
	}

	return transport.NextStagesResponse{CurrentStage: deal.Stage, NextStages: options}, nil
}

// Transition moves a deal to the target stage.
//
// Without force, the gate rules for the target stage are evaluated first and
// any missing analysis fields fail the call with *domain.GateBlockedError;
// then the lifecycle graph is consulted and an unreachable target fails with
// *domain.IllegalTransitionError. With force both checks are skipped,
// terminal stages included. Entering the signed stage immediately chains the
// deal into the first post-sale stage with a second stage_changed_at stamp;
// that system write bypasses every check.
//
// Rejected transitions never touch the deal row.
func (s *Service) Transition(ctx context.Context, id int, targetStage string, force bool) (transport.DealResponse, error) {
	if !domain.IsKnownStage(targetStage) {
		return transport.DealResponse{}, apperr.Validation("unknown stage: " + targetStage)
	}

	deal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DealResponse{}, err
	}

	if !force {
		missing, err := s.gate.Evaluate(ctx, id, targetStage)
		if err != nil {
			return transport.DealResponse{}, err
		}
		if len(missing) > 0 {
			return transport.DealResponse{}, &domain.GateBlockedError{
				Target:        targetStage,
				MissingLabels: missing,
			}
		}

		if !domain.IsLegalTransition(deal.Stage, targetStage) {
			return transport.DealResponse{}, &domain.IllegalTransitionError{
				Current: deal.Stage,
				Target:  targetStage,
				Allowed: domain.LegalNextStages(deal.Stage),
			}
		}
	}

	updated, err := s.repo.UpdateStage(ctx, id, targetStage)
	if err != nil {
		return transport.DealResponse{}, err
	}
	s.publishStageChanged(ctx, deal.Stage, updated, force, false)

	// Signing is transient: entering the signed stage always chains straight
	// into post-sale planning.
	if updated.Stage == domain.StageSigned {
		chained, err := s.repo.UpdateStage(ctx, id, domain.StagePlanning)
		if err != nil {
			return transport.DealResponse{}, err
		}
		s.publishStageChanged(ctx, domain.StageSigned, chained, false, true)
		updated = chained
	}

	return toDealResponse(updated), nil
}

func (s *Service) publishStageChanged(ctx context.Context, from string, deal repository.Deal, forced, autoChain bool) {
	if s.bus == nil {
		return
	}

	clientID := ""
	if deal.ClientID != nil {
		clientID = *deal.ClientID
	}

	s.bus.Publish(ctx, events.DealStageChanged{
		BaseEvent: events.NewBaseEvent(),
		DealID:    deal.ID,
		ClientID:  clientID,
		FromStage: from,
		ToStage:   deal.Stage,
		Forced:    forced,
		AutoChain: autoChain,
	})
}

// GetAnalysis retrieves a deal's MEDDIC record. A deal without a record yields
// an empty record rather than an error, matching the editing surface.
func (s *Service) GetAnalysis(ctx context.Context, dealID int) (transport.AnalysisResponse, error) {
	if _, err := s.repo.GetByID(ctx, dealID); err != nil {
		return transport.AnalysisResponse{}, err
	}

	a, err := s.repo.GetAnalysis(ctx, dealID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.AnalysisResponse{DealID: dealID}, nil
		}
		return transport.AnalysisResponse{}, err
	}

	return toAnalysisResponse(a), nil
}

// SaveAnalysis upserts a deal's MEDDIC record.
func (s *Service) SaveAnalysis(ctx context.Context, dealID int, req transport.SaveAnalysisRequest) (transport.AnalysisResponse, error) {
	if _, err := s.repo.GetByID(ctx, dealID); err != nil {
		return transport.AnalysisResponse{}, err
	}

	err := s.repo.SaveAnalysis(ctx, repository.Analysis{
		DealID:           dealID,
		Metrics:          req.Metrics,
		EconomicBuyer:    req.EconomicBuyer,
		DecisionCriteria: req.DecisionCriteria,
		DecisionProcess:  req.DecisionProcess,
		IdentifyPain:     req.IdentifyPain,
		Champion:         req.Champion,
	})
	if err != nil {
		return transport.AnalysisResponse{}, err
	}

	a, err := s.repo.GetAnalysis(ctx, dealID)
	if err != nil {
		return transport.AnalysisResponse{}, err
	}
	return toAnalysisResponse(a), nil
}

func toDealResponse(d repository.Deal) transport.DealResponse {
	return transport.DealResponse{
		ID:             d.ID,
		ClientID:       d.ClientID,
		Name:           d.Name,
		Stage:          d.Stage,
		StageName:      domain.StageName(d.Stage),
		StageChangedAt: d.StageChangedAt.Format(time.RFC3339),
		Owner:          d.Owner,
		Priority:       d.Priority,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      d.UpdatedAt.Format(time.RFC3339),
	}
}

func toAnalysisResponse(a repository.Analysis) transport.AnalysisResponse {
	return transport.AnalysisResponse{
		DealID:           a.DealID,
		Metrics:          a.Metrics,
		EconomicBuyer:    a.EconomicBuyer,
		DecisionCriteria: a.DecisionCriteria,
		DecisionProcess:  a.DecisionProcess,
		IdentifyPain:     a.IdentifyPain,
		Champion:         a.Champion,
		UpdatedAt:        a.UpdatedAt.Format(time.RFC3339),
	}
}
