package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/storage"
)

func TestBreakdownSnapshotStore_InsertAndQuery(t *testing.T) {
	store := NewBreakdownSnapshotStore()
	ctx := context.Background()
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	rows := []*domain.BreakdownSnapshot{
		{SnapshotID: "s1", Dimension: domain.DimensionSession, BucketKey: "ny", BucketOrd: 2, Count: 3, ComputedAt: at},
		{SnapshotID: "s1", Dimension: domain.DimensionSession, BucketKey: "asia", BucketOrd: 0, Count: 5, ComputedAt: at},
		{SnapshotID: "s1", Dimension: domain.DimensionHour, BucketKey: "9", BucketOrd: 9, Count: 1, ComputedAt: at},
	}
	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetBySnapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBySnapshot failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(got))
	}
	if got[0].Dimension != domain.DimensionHour {
		t.Errorf("Expected hour rows first, got %s", got[0].Dimension)
	}
	if got[1].BucketKey != "asia" || got[2].BucketKey != "ny" {
		t.Errorf("Expected bucket order asia, ny; got %s, %s", got[1].BucketKey, got[2].BucketKey)
	}

	later := []*domain.BreakdownSnapshot{
		{SnapshotID: "s0", Dimension: domain.DimensionSession, BucketKey: "asia", Count: 1, ComputedAt: at.Add(-time.Hour)},
	}
	if err := store.InsertBulk(ctx, later); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	byDim, err := store.GetByDimension(ctx, domain.DimensionSession)
	if err != nil {
		t.Fatalf("GetByDimension failed: %v", err)
	}
	if len(byDim) != 3 || byDim[0].SnapshotID != "s0" {
		t.Errorf("Expected oldest snapshot first, got %+v", byDim[0])
	}
}

func TestBreakdownSnapshotStore_DuplicateKey(t *testing.T) {
	store := NewBreakdownSnapshotStore()
	ctx := context.Background()

	row := &domain.BreakdownSnapshot{SnapshotID: "s1", Dimension: domain.DimensionSide, BucketKey: "LONG"}
	if err := store.InsertBulk(ctx, []*domain.BreakdownSnapshot{row}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.BreakdownSnapshot{row}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.BreakdownSnapshot{{SnapshotID: "s2"}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestImportBatchStore(t *testing.T) {
	store := NewImportBatchStore()
	ctx := context.Background()
	t0 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, &domain.ImportBatch{BatchID: "b2", Accepted: 4, ImportedAt: t0.Add(time.Hour)}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, &domain.ImportBatch{BatchID: "b1", Accepted: 2, ImportedAt: t0}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, &domain.ImportBatch{BatchID: "b1"}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].BatchID != "b1" {
		t.Errorf("Expected b1 first, got %+v", list)
	}

	if _, err := store.GetByID(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
