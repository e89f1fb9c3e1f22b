package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spms_backend/platform/apperr"
)

const dealNotFoundMessage = "deal not found"

const dealColumns = `deal_id, client_id, deal_name, stage, stage_changed_at, owner, priority, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new deals repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanDeal(row pgx.Row) (Deal, error) {
	var d Deal
	err := row.Scan(
		&d.ID, &d.ClientID, &d.Name, &d.Stage, &d.StageChangedAt,
		&d.Owner, &d.Priority, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// Create inserts a new deal.
func (r *Repo) Create(ctx context.Context, p CreateDealParams) (Deal, error) {
	query := `
		INSERT INTO deals (client_id, deal_name, stage, owner, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + dealColumns

	d, err := scanDeal(r.pool.QueryRow(ctx, query, p.ClientID, p.Name, p.Stage, p.Owner, p.Priority))
	if err != nil {
		return Deal{}, fmt.Errorf("create deal: %w", err)
	}
	return d, nil
}

// GetByID retrieves a deal by its ID.
func (r *Repo) GetByID(ctx context.Context, id int) (Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE deal_id = $1`

	d, err := scanDeal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Deal{}, apperr.NotFound(dealNotFoundMessage)
		}
		return Deal{}, fmt.Errorf("get deal by id: %w", err)
	}
	return d, nil
}

// List retrieves all deals ordered by ID.
func (r *Repo) List(ctx context.Context) ([]Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals ORDER BY deal_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	return collectDeals(rows)
}

// ListByStages retrieves deals whose stage is in the given set, ordered by ID.
func (r *Repo) ListByStages(ctx context.Context, stages []string) ([]Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE stage = ANY($1) ORDER BY deal_id`

	rows, err := r.pool.Query(ctx, query, stages)
	if err != nil {
		return nil, fmt.Errorf("list deals by stages: %w", err)
	}
	defer rows.Close()

	return collectDeals(rows)
}

func collectDeals(rows pgx.Rows) ([]Deal, error) {
	deals := make([]Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return deals, nil
}

// UpdateStage persists the new stage and stamps stage_changed_at.
func (r *Repo) UpdateStage(ctx context.Context, id int, stage string) (Deal, error) {
	query := `
		UPDATE deals
		SET stage = $2, stage_changed_at = now(), updated_at = now()
		WHERE deal_id = $1
		RETURNING ` + dealColumns

	d, err := scanDeal(r.pool.QueryRow(ctx, query, id, stage))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Deal{}, apperr.NotFound(dealNotFoundMessage)
		}
		return Deal{}, fmt.Errorf("update deal stage: %w", err)
	}
	return d, nil
}

// FindOrCreate resolves a deal by exact name within a client, creating it at
// the given initial stage when absent. The UNIQUE(client_id, deal_name)
// constraint plus ON CONFLICT DO NOTHING keeps concurrent callers from
// creating duplicates; the loser of the race falls through to the select.
func (r *Repo) FindOrCreate(ctx context.Context, clientID, name, stage string) (Deal, error) {
	insert := `
		INSERT INTO deals (client_id, deal_name, stage)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id, deal_name) DO NOTHING
		RETURNING ` + dealColumns

	d, err := scanDeal(r.pool.QueryRow(ctx, insert, clientID, name, stage))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, fmt.Errorf("find or create deal: %w", err)
	}

	query := `SELECT ` + dealColumns + ` FROM deals WHERE client_id = $1 AND deal_name = $2`
	d, err = scanDeal(r.pool.QueryRow(ctx, query, clientID, name))
	if err != nil {
		return Deal{}, fmt.Errorf("find or create deal: %w", err)
	}
	return d, nil
}

// GetAnalysis retrieves the MEDDIC record for a deal.
func (r *Repo) GetAnalysis(ctx context.Context, dealID int) (Analysis, error) {
	query := `
		SELECT deal_id, metrics, economic_buyer, decision_criteria,
		       decision_process, identify_pain, champion, updated_at
		FROM deal_meddic
		WHERE deal_id = $1`

	var a Analysis
	err := r.pool.QueryRow(ctx, query, dealID).Scan(
		&a.DealID, &a.Metrics, &a.EconomicBuyer, &a.DecisionCriteria,
		&a.DecisionProcess, &a.IdentifyPain, &a.Champion, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Analysis{}, apperr.NotFound("analysis record not found")
		}
		return Analysis{}, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

// SaveAnalysis upserts the MEDDIC record for a deal.
func (r *Repo) SaveAnalysis(ctx context.Context, a Analysis) error {
	query := `
		INSERT INTO deal_meddic (
			deal_id, metrics, economic_buyer, decision_criteria,
			decision_process, identify_pain, champion, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (deal_id) DO UPDATE SET
			metrics = EXCLUDED.metrics,
			economic_buyer = EXCLUDED.economic_buyer,
			decision_criteria = EXCLUDED.decision_criteria,
			decision_process = EXCLUDED.decision_process,
			identify_pain = EXCLUDED.identify_pain,
			champion = EXCLUDED.champion,
			updated_at = now()`

	_, err := r.pool.Exec(ctx, query,
		a.DealID, a.Metrics, a.EconomicBuyer, a.DecisionCriteria,
		a.DecisionProcess, a.IdentifyPain, a.Champion,
	)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// AnalysisFields exposes the analysis record as a flat field→text map for
// gate evaluation. A deal without a record yields an empty map.
func (r *Repo) AnalysisFields(ctx context.Context, dealID int) (map[string]string, error) {
	a, err := r.GetAnalysis(ctx, dealID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	return map[string]string{
		"metrics":           a.Metrics,
		"economic_buyer":    a.EconomicBuyer,
		"decision_criteria": a.DecisionCriteria,
		"decision_process":  a.DecisionProcess,
		"identify_pain":     a.IdentifyPain,
		"champion":          a.Champion,
	}, nil
}
