package storage

import (
	"context"

	"trade-journal-lab/internal/domain"
)

// ImportBatchStore records the outcome of every import so that a restarted
// process can list what has been loaded without re-reading the sources.
type ImportBatchStore interface {
	// Record saves a finished batch. Returns ErrDuplicateKey if the batch id exists.
	Record(ctx context.Context, batch *domain.ImportBatch) error

	// GetByID returns one batch. Returns ErrNotFound if it was never recorded.
	GetByID(ctx context.Context, batchID string) (*domain.ImportBatch, error)

	// List returns all batches ordered by import time ASC.
	List(ctx context.Context) ([]*domain.ImportBatch, error)
}
