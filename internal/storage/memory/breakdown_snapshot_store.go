package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/storage"
)

// BreakdownSnapshotStore is an in-memory implementation of storage.BreakdownSnapshotStore.
type BreakdownSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BreakdownSnapshot // keyed by composite key
}

// NewBreakdownSnapshotStore creates a new in-memory breakdown snapshot store.
func NewBreakdownSnapshotStore() *BreakdownSnapshotStore {
	return &BreakdownSnapshotStore{
		data: make(map[string]*domain.BreakdownSnapshot),
	}
}

// snapshotKey generates a unique key for a snapshot row.
func snapshotKey(snapshotID string, dimension domain.Dimension, bucketKey string) string {
	return fmt.Sprintf("%s|%s|%s", snapshotID, dimension, bucketKey)
}

func validSnapshot(r *domain.BreakdownSnapshot) bool {
	return r != nil && r.SnapshotID != "" && r.Dimension != "" && r.BucketKey != ""
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *BreakdownSnapshotStore) InsertBulk(_ context.Context, rows []*domain.BreakdownSnapshot) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(rows))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range rows {
		if !validSnapshot(r) {
			return storage.ErrInvalidInput
		}
		key := snapshotKey(r.SnapshotID, r.Dimension, r.BucketKey)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range rows {
		rowCopy := *r
		s.data[snapshotKey(r.SnapshotID, r.Dimension, r.BucketKey)] = &rowCopy
	}
	return nil
}

// GetBySnapshot retrieves every row of one snapshot, ordered by dimension then bucket order.
func (s *BreakdownSnapshotStore) GetBySnapshot(_ context.Context, snapshotID string) ([]*domain.BreakdownSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BreakdownSnapshot
	for _, r := range s.data {
		if r.SnapshotID == snapshotID {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Dimension != result[j].Dimension {
			return result[i].Dimension < result[j].Dimension
		}
		return result[i].BucketOrd < result[j].BucketOrd
	})
	return result, nil
}

// GetByDimension retrieves rows for a dimension, ordered by computed_at then bucket order.
func (s *BreakdownSnapshotStore) GetByDimension(_ context.Context, dimension domain.Dimension) ([]*domain.BreakdownSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BreakdownSnapshot
	for _, r := range s.data {
		if r.Dimension == dimension {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ComputedAt.Equal(result[j].ComputedAt) {
			return result[i].ComputedAt.Before(result[j].ComputedAt)
		}
		if result[i].SnapshotID != result[j].SnapshotID {
			return result[i].SnapshotID < result[j].SnapshotID
		}
		return result[i].BucketOrd < result[j].BucketOrd
	})
	return result, nil
}

var _ storage.BreakdownSnapshotStore = (*BreakdownSnapshotStore)(nil)
