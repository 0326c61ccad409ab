package memory

import (
	"context"
	"sync"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.TradeRow // keyed by ticket
	order []string                    // insertion order
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.TradeRow),
	}
}

// Insert adds a new row. Returns ErrDuplicateKey if the ticket exists.
func (s *TradeStore) Insert(_ context.Context, row *domain.TradeRow) error {
	if row == nil || row.Ticket == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[row.Ticket]; exists {
		return storage.ErrDuplicateKey
	}

	s.put(row)
	return nil
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, rows []*domain.TradeRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(rows))

	// First pass: check for duplicates (existing + intra-batch)
	for _, row := range rows {
		if row == nil || row.Ticket == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[row.Ticket]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[row.Ticket]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[row.Ticket] = struct{}{}
	}

	// Second pass: insert all
	for _, row := range rows {
		s.put(row)
	}
	return nil
}

// put stores a deep copy. Caller holds the write lock.
func (s *TradeStore) put(row *domain.TradeRow) {
	s.data[row.Ticket] = cloneRow(row)
	s.order = append(s.order, row.Ticket)
}

// GetByID retrieves a row by ticket. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, ticket string) (*domain.TradeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, exists := s.data[ticket]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneRow(row), nil
}

// GetByBatch retrieves the rows of one import batch in insertion order.
func (s *TradeStore) GetByBatch(_ context.Context, batchID string) ([]*domain.TradeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRow
	for _, ticket := range s.order {
		if row := s.data[ticket]; row.BatchID == batchID {
			result = append(result, cloneRow(row))
		}
	}
	return result, nil
}

// GetAll retrieves every row in insertion order.
func (s *TradeStore) GetAll(_ context.Context) ([]*domain.TradeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradeRow, 0, len(s.order))
	for _, ticket := range s.order {
		result = append(result, cloneRow(s.data[ticket]))
	}
	return result, nil
}

// ExistingTickets returns the subset of tickets already stored.
func (s *TradeStore) ExistingTickets(_ context.Context, tickets []string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]struct{})
	for _, ticket := range tickets {
		if _, exists := s.data[ticket]; exists {
			found[ticket] = struct{}{}
		}
	}
	return found, nil
}

// cloneRow copies a row including its optional pointer fields.
func cloneRow(row *domain.TradeRow) *domain.TradeRow {
	c := *row
	c.OpenTime = clonePtr(row.OpenTime)
	c.OpenPrice = clonePtr(row.OpenPrice)
	c.ClosePrice = clonePtr(row.ClosePrice)
	c.Commission = clonePtr(row.Commission)
	c.Swap = clonePtr(row.Swap)
	c.Profit = clonePtr(row.Profit)
	c.Pips = clonePtr(row.Pips)
	c.SL = clonePtr(row.SL)
	c.TP = clonePtr(row.TP)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ storage.TradeStore = (*TradeStore)(nil)
