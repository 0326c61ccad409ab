package memory

import (
	"context"
	"sort"
	"sync"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/storage"
)

// ImportBatchStore is an in-memory implementation of storage.ImportBatchStore.
type ImportBatchStore struct {
	mu      sync.RWMutex
	batches map[string]*domain.ImportBatch
}

// NewImportBatchStore creates a new in-memory import batch store.
func NewImportBatchStore() *ImportBatchStore {
	return &ImportBatchStore{
		batches: make(map[string]*domain.ImportBatch),
	}
}

// Record saves a finished batch. Returns ErrDuplicateKey if the batch id exists.
func (s *ImportBatchStore) Record(_ context.Context, batch *domain.ImportBatch) error {
	if batch == nil || batch.BatchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[batch.BatchID]; exists {
		return storage.ErrDuplicateKey
	}
	b := *batch
	s.batches[batch.BatchID] = &b
	return nil
}

// GetByID returns one batch. Returns ErrNotFound if it was never recorded.
func (s *ImportBatchStore) GetByID(_ context.Context, batchID string) (*domain.ImportBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.batches[batchID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	c := *b
	return &c, nil
}

// List returns all batches ordered by import time ASC.
func (s *ImportBatchStore) List(_ context.Context) ([]*domain.ImportBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ImportBatch, 0, len(s.batches))
	for _, b := range s.batches {
		c := *b
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ImportedAt.Equal(result[j].ImportedAt) {
			return result[i].ImportedAt.Before(result[j].ImportedAt)
		}
		return result[i].BatchID < result[j].BatchID
	})
	return result, nil
}

var _ storage.ImportBatchStore = (*ImportBatchStore)(nil)
