package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/storage"
)

// BreakdownSnapshotStore implements storage.BreakdownSnapshotStore using ClickHouse.
type BreakdownSnapshotStore struct {
	conn *Conn
}

// NewBreakdownSnapshotStore creates a new BreakdownSnapshotStore.
func NewBreakdownSnapshotStore(conn *Conn) *BreakdownSnapshotStore {
	return &BreakdownSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BreakdownSnapshotStore = (*BreakdownSnapshotStore)(nil)

const selectSnapshotColumns = `
	SELECT
		snapshot_id, dimension, bucket_key, bucket_ord, filter_key,
		trade_count, net_profit, win_rate, profit_factor, pf_unbounded,
		expectancy, max_drawdown, max_loss_streak, computed_at
	FROM breakdown_snapshots FINAL
`

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *BreakdownSnapshotStore) InsertBulk(ctx context.Context, rows []*domain.BreakdownSnapshot) (err error) {
	defer func(start time.Time) { observe("insert_snapshots", start, err) }(time.Now())

	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.SnapshotID == "" || r.Dimension == "" || r.BucketKey == "" {
			return storage.ErrInvalidInput
		}
		key := r.SnapshotID + "|" + string(r.Dimension) + "|" + r.BucketKey
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	// ReplacingMergeTree would silently replace, so check existing rows first
	for _, r := range rows {
		exists, err := s.exists(ctx, r.SnapshotID, r.Dimension, r.BucketKey)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO breakdown_snapshots (
			snapshot_id, dimension, bucket_key, bucket_ord, filter_key,
			trade_count, net_profit, win_rate, profit_factor, pf_unbounded,
			expectancy, max_drawdown, max_loss_streak, computed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			r.SnapshotID, string(r.Dimension), r.BucketKey, int32(r.BucketOrd), r.FilterKey,
			uint32(r.Count), r.NetProfit, r.WinRate, r.ProfitFactor, r.PFUnbounded,
			r.Expectancy, r.MaxDrawdown, uint32(r.MaxLossStreak), r.ComputedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetBySnapshot retrieves every row of one snapshot, ordered by dimension then bucket order.
func (s *BreakdownSnapshotStore) GetBySnapshot(ctx context.Context, snapshotID string) ([]*domain.BreakdownSnapshot, error) {
	query := selectSnapshotColumns + `
		WHERE snapshot_id = ?
		ORDER BY dimension ASC, bucket_ord ASC
	`
	return s.query(ctx, query, snapshotID)
}

// GetByDimension retrieves rows for a dimension across snapshots, ordered by computed_at then bucket order.
func (s *BreakdownSnapshotStore) GetByDimension(ctx context.Context, dimension domain.Dimension) ([]*domain.BreakdownSnapshot, error) {
	query := selectSnapshotColumns + `
		WHERE dimension = ?
		ORDER BY computed_at ASC, snapshot_id ASC, bucket_ord ASC
	`
	return s.query(ctx, query, string(dimension))
}

func (s *BreakdownSnapshotStore) query(ctx context.Context, query string, args ...any) (_ []*domain.BreakdownSnapshot, err error) {
	defer func(start time.Time) { observe("get_snapshots", start, err) }(time.Now())

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query breakdown snapshots: %w", err)
	}
	defer rows.Close()

	var result []*domain.BreakdownSnapshot
	for rows.Next() {
		var (
			r          domain.BreakdownSnapshot
			dimension  string
			bucketOrd  int32
			count      uint32
			lossStreak uint32
		)
		err := rows.Scan(
			&r.SnapshotID, &dimension, &r.BucketKey, &bucketOrd, &r.FilterKey,
			&count, &r.NetProfit, &r.WinRate, &r.ProfitFactor, &r.PFUnbounded,
			&r.Expectancy, &r.MaxDrawdown, &lossStreak, &r.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan breakdown snapshot: %w", err)
		}
		r.Dimension = domain.Dimension(dimension)
		r.BucketOrd = int(bucketOrd)
		r.Count = int(count)
		r.MaxLossStreak = int(lossStreak)
		r.ComputedAt = r.ComputedAt.UTC()
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate breakdown snapshots: %w", err)
	}
	return result, nil
}

func (s *BreakdownSnapshotStore) exists(ctx context.Context, snapshotID string, dimension domain.Dimension, bucketKey string) (bool, error) {
	query := `
		SELECT count()
		FROM breakdown_snapshots FINAL
		WHERE snapshot_id = ? AND dimension = ? AND bucket_key = ?
	`
	var count uint64
	if err := s.conn.QueryRow(ctx, query, snapshotID, string(dimension), bucketKey).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
