package storage

import (
	"context"

	"trade-journal-lab/internal/domain"
)

// TradeStore provides access to the trades table.
// Rows are append-only and keyed by ticket.
type TradeStore interface {
	// Insert adds a new row. Returns ErrDuplicateKey if the ticket exists.
	Insert(ctx context.Context, row *domain.TradeRow) error

	// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, rows []*domain.TradeRow) error

	// GetByID retrieves a row by ticket. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, ticket string) (*domain.TradeRow, error)

	// GetByBatch retrieves the rows of one import batch in insertion order.
	GetByBatch(ctx context.Context, batchID string) ([]*domain.TradeRow, error)

	// GetAll retrieves every row in insertion order.
	GetAll(ctx context.Context) ([]*domain.TradeRow, error)

	// ExistingTickets returns the subset of tickets already stored.
	ExistingTickets(ctx context.Context, tickets []string) (map[string]struct{}, error)
}

// BreakdownSnapshotStore provides access to breakdown_snapshots storage.
type BreakdownSnapshotStore interface {
	// InsertBulk adds multiple rows atomically.
	// Fails entire batch if any (snapshot_id, dimension, bucket_key) exists.
	InsertBulk(ctx context.Context, rows []*domain.BreakdownSnapshot) error

	// GetBySnapshot retrieves every row of one snapshot, ordered by dimension then bucket order.
	GetBySnapshot(ctx context.Context, snapshotID string) ([]*domain.BreakdownSnapshot, error)

	// GetByDimension retrieves rows for a dimension across snapshots, ordered by computed_at then bucket order.
	GetByDimension(ctx context.Context, dimension domain.Dimension) ([]*domain.BreakdownSnapshot, error)
}
