package repository

import (
	"context"
	"time"
)

// Client is a tracked company. The ID is a human-readable sequential code in
// the form CLI-001.
type Client struct {
	ID          string
	CompanyName string
	CreatedAt   time.Time
}

// ActivityEntry is one work log row for a client. Source records whether the
// entry came from a user action or the ingestion worker; RefID points at the
// originating ingestion job for worker-written rows.
type ActivityEntry struct {
	ID         int64
	ClientID   string
	DealID     *int
	ActionType string
	Content    string
	Source     string
	RefID      *int64
	CreatedAt  time.Time
}

// AddActivityParams contains data for recording a new activity entry.
type AddActivityParams struct {
	ClientID   string
	DealID     *int
	ActionType string
	Content    string
	Source     string
	RefID      *int64
}

// Repository defines persistence operations for clients and their work log.
type Repository interface {
	// FindOrCreateClient resolves a client by exact company name, assigning
	// the next sequential CLI-NNN code when absent. Never duplicates under
	// concurrent callers.
	FindOrCreateClient(ctx context.Context, companyName string) (Client, error)

	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)

	AddActivity(ctx context.Context, p AddActivityParams) (ActivityEntry, error)

	// ListActivities returns a client's work log, newest first.
	ListActivities(ctx context.Context, clientID string, limit int) ([]ActivityEntry, error)
}
