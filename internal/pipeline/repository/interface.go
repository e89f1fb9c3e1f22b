package repository

import (
	"context"
	"time"
)

// Deal is the tracked sales opportunity row.
type Deal struct {
	ID             int
	ClientID       *string
	Name           string
	Stage          string
	StageChangedAt time.Time
	Owner          *string
	Priority       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Analysis is the MEDDIC record backing stage gates, one row per deal.
type Analysis struct {
	DealID           int
	Metrics          string
	EconomicBuyer    string
	DecisionCriteria string
	DecisionProcess  string
	IdentifyPain     string
	Champion         string
	UpdatedAt        time.Time
}

// CreateDealParams contains data for creating a new deal.
type CreateDealParams struct {
	ClientID *string
	Name     string
	Stage    string
	Owner    *string
	Priority string
}

// Repository defines persistence operations for deals and their analysis
// records.
type Repository interface {
	Create(ctx context.Context, p CreateDealParams) (Deal, error)
	GetByID(ctx context.Context, id int) (Deal, error)
	List(ctx context.Context) ([]Deal, error)
	ListByStages(ctx context.Context, stages []string) ([]Deal, error)

	// UpdateStage persists the new stage and stamps stage_changed_at.
	UpdateStage(ctx context.Context, id int, stage string) (Deal, error)

	// FindOrCreate resolves a deal by exact name within a client, creating it
	// at the given initial stage when absent. Never duplicates under
	// concurrent callers.
	FindOrCreate(ctx context.Context, clientID, name, stage string) (Deal, error)

	GetAnalysis(ctx context.Context, dealID int) (Analysis, error)
	SaveAnalysis(ctx context.Context, a Analysis) error

	// AnalysisFields exposes the analysis record as a flat field→text map for
	// gate evaluation. A deal without a record yields an empty map.
	AnalysisFields(ctx context.Context, dealID int) (map[string]string, error)
}
