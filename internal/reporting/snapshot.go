package reporting

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/idhash"
	"trade-journal-lab/internal/storage"
)

// SnapshotWriter persists report breakdowns to the analytics store.
type SnapshotWriter struct {
	store  storage.BreakdownSnapshotStore
	logger *zap.Logger
}

// NewSnapshotWriter creates a writer over store.
func NewSnapshotWriter(store storage.BreakdownSnapshotStore, logger *zap.Logger) *SnapshotWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotWriter{store: store, logger: logger.Named("snapshot")}
}

// Persist stores every bucket of r under one snapshot id derived from
// batchID, the report query and the generation time. Writing the same
// report twice returns storage.ErrDuplicateKey.
func (w *SnapshotWriter) Persist(ctx context.Context, batchID string, r *Report) (string, error) {
	at := r.GeneratedAt.UTC()
	snapshotID := idhash.ComputeSnapshotID(batchID, r.Query, at)

	var rows []*domain.BreakdownSnapshot
	for _, b := range r.Breakdowns {
		rows = append(rows, domain.SnapshotsFromBreakdown(snapshotID, r.Query, b, at)...)
	}
	for _, row := range rows {
		row.NetProfit = roundTo(row.NetProfit, moneyPlaces)
		row.Expectancy = roundTo(row.Expectancy, moneyPlaces)
		row.MaxDrawdown = roundTo(row.MaxDrawdown, moneyPlaces)
		row.WinRate = roundTo(row.WinRate, ratePlaces)
		row.ProfitFactor = roundTo(row.ProfitFactor, ratePlaces)
	}
	if len(rows) == 0 {
		return snapshotID, nil
	}

	if err := w.store.InsertBulk(ctx, rows); err != nil {
		return "", fmt.Errorf("persist snapshot %s: %w", snapshotID, err)
	}
	w.logger.Info("breakdown snapshot stored",
		zap.String("snapshot_id", snapshotID),
		zap.String("batch_id", batchID),
		zap.Int("rows", len(rows)),
	)
	return snapshotID, nil
}
