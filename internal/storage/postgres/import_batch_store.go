package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/storage"
)

// ImportBatchStore implements storage.ImportBatchStore using PostgreSQL.
type ImportBatchStore struct {
	pool *Pool
}

// NewImportBatchStore creates a new ImportBatchStore.
func NewImportBatchStore(pool *Pool) *ImportBatchStore {
	return &ImportBatchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ImportBatchStore = (*ImportBatchStore)(nil)

// Record saves a finished batch. Returns ErrDuplicateKey if the batch id exists.
func (s *ImportBatchStore) Record(ctx context.Context, b *domain.ImportBatch) error {
	if b == nil || b.BatchID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO import_batches (
			batch_id, source, accepted, rejected, warnings, imported_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		b.BatchID, b.Source, b.Accepted, b.Rejected, b.Warnings, b.ImportedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert import batch: %w", err)
	}
	return nil
}

// GetByID returns one batch. Returns ErrNotFound if it was never recorded.
func (s *ImportBatchStore) GetByID(ctx context.Context, batchID string) (*domain.ImportBatch, error) {
	query := `
		SELECT batch_id, source, accepted, rejected, warnings, imported_at
		FROM import_batches
		WHERE batch_id = $1
	`
	b, err := scanBatch(s.pool.QueryRow(ctx, query, batchID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get import batch: %w", err)
	}
	return b, nil
}

// List returns all batches ordered by import time ASC.
func (s *ImportBatchStore) List(ctx context.Context) ([]*domain.ImportBatch, error) {
	query := `
		SELECT batch_id, source, accepted, rejected, warnings, imported_at
		FROM import_batches
		ORDER BY imported_at ASC, batch_id ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query import batches: %w", err)
	}
	defer rows.Close()

	var result []*domain.ImportBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import batch: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import batches: %w", err)
	}
	return result, nil
}

func scanBatch(row pgx.Row) (*domain.ImportBatch, error) {
	var b domain.ImportBatch
	if err := row.Scan(&b.BatchID, &b.Source, &b.Accepted, &b.Rejected, &b.Warnings, &b.ImportedAt); err != nil {
		return nil, err
	}
	b.ImportedAt = b.ImportedAt.UTC()
	return &b, nil
}
