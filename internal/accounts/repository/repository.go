package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spms_backend/platform/apperr"
)

const clientNotFoundMessage = "client not found"

const clientColumns = `client_id, company_name, created_at`

const activityColumns = `entry_id, client_id, deal_id, action_type, content, source, ref_id, created_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new accounts repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.CompanyName, &c.CreatedAt)
	return c, err
}

func scanActivity(row pgx.Row) (ActivityEntry, error) {
	var e ActivityEntry
	err := row.Scan(&e.ID, &e.ClientID, &e.DealID, &e.ActionType, &e.Content, &e.Source, &e.RefID, &e.CreatedAt)
	return e, err
}

// FindOrCreateClient resolves a client by company name, inserting it with the
// next CLI-NNN code when absent. The code comes from a dedicated sequence so
// concurrent inserts never collide; a losing insert under the unique company
// name constraint falls back to the winner's row.
func (r *Repo) FindOrCreateClient(ctx context.Context, companyName string) (Client, error) {
	insert := `
		INSERT INTO clients (client_id, company_name)
		VALUES ('CLI-' || lpad(nextval('client_id_seq')::text, 3, '0'), $1)
		ON CONFLICT (company_name) DO NOTHING
		RETURNING ` + clientColumns

	c, err := scanClient(r.pool.QueryRow(ctx, insert, companyName))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Client{}, fmt.Errorf("create client: %w", err)
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE company_name = $1`
	c, err = scanClient(r.pool.QueryRow(ctx, query, companyName))
	if err != nil {
		return Client{}, fmt.Errorf("find client by company name: %w", err)
	}
	return c, nil
}

// GetClient retrieves a client by its CLI-NNN code.
func (r *Repo) GetClient(ctx context.Context, id string) (Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE client_id = $1`

	c, err := scanClient(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// ListClients retrieves all clients ordered by code.
func (r *Repo) ListClients(ctx context.Context) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY client_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

// AddActivity inserts a work log entry.
func (r *Repo) AddActivity(ctx context.Context, p AddActivityParams) (ActivityEntry, error) {
	query := `
		INSERT INTO work_log (client_id, deal_id, action_type, content, source, ref_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + activityColumns

	e, err := scanActivity(r.pool.QueryRow(ctx, query, p.ClientID, p.DealID, p.ActionType, p.Content, p.Source, p.RefID))
	if err != nil {
		return ActivityEntry{}, fmt.Errorf("add activity: %w", err)
	}
	return e, nil
}

// ListActivities retrieves a client's work log, newest first.
func (r *Repo) ListActivities(ctx context.Context, clientID string, limit int) ([]ActivityEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM work_log
		WHERE client_id = $1
		ORDER BY created_at DESC, entry_id DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	entries := make([]ActivityEntry, 0)
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return entries, nil
}
