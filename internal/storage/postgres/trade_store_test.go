package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/storage"
)

func createTestTradeRow(ticket, batchID string, closeTime time.Time) *domain.TradeRow {
	open := closeTime.Add(-90 * time.Minute)
	return &domain.TradeRow{
		Ticket:     ticket,
		Item:       "USDJPY",
		Side:       "LONG",
		Size:       1,
		OpenTime:   &open,
		OpenPrice:  ptr(150.0),
		CloseTime:  closeTime,
		ClosePrice: ptr(150.3),
		Commission: ptr(0.0),
		Swap:       ptr(0.0),
		Profit:     ptr(30000.0),
		Pips:       ptr(30.0),
		SL:         ptr(149.8),
		Setup:      "Breakout",
		Comment:    "london open",
		BatchID:    batchID,
	}
}

func TestTradeStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)
	closeAt := time.Date(2024, 1, 9, 10, 30, 0, 0, time.UTC)

	row := createTestTradeRow("1001", "batch-a", closeAt)
	require.NoError(t, store.Insert(ctx, row))

	got, err := store.GetByID(ctx, "1001")
	require.NoError(t, err)

	assert.Equal(t, "USDJPY", got.Item)
	assert.Equal(t, "LONG", got.Side)
	assert.True(t, closeAt.Equal(got.CloseTime))
	require.NotNil(t, got.OpenTime)
	assert.True(t, row.OpenTime.Equal(*got.OpenTime))
	require.NotNil(t, got.Profit)
	assert.InDelta(t, 30000.0, *got.Profit, 1e-9)
	require.NotNil(t, got.SL)
	assert.Nil(t, got.TP)
	assert.Equal(t, "Breakout", got.Setup)
	assert.Equal(t, "batch-a", got.BatchID)
}

func TestTradeStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)
	closeAt := time.Date(2024, 1, 9, 10, 30, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, createTestTradeRow("1001", "batch-a", closeAt)))

	err := store.Insert(ctx, createTestTradeRow("1001", "batch-b", closeAt))
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))
}

func TestTradeStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewTradeStore(pool).GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)
	closeAt := time.Date(2024, 1, 9, 10, 30, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, createTestTradeRow("1001", "batch-a", closeAt)))

	err := store.InsertBulk(ctx, []*domain.TradeRow{
		createTestTradeRow("2001", "batch-b", closeAt),
		createTestTradeRow("1001", "batch-b", closeAt),
	})
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))

	_, err = store.GetByID(ctx, "2001")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "failed batch must not leave rows behind")
}

func TestTradeStore_InsertionOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)
	sameClose := time.Date(2024, 1, 9, 10, 30, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, []*domain.TradeRow{
		createTestTradeRow("c", "batch-a", sameClose),
		createTestTradeRow("a", "batch-a", sameClose),
	}))
	require.NoError(t, store.InsertBulk(ctx, []*domain.TradeRow{
		createTestTradeRow("b", "batch-b", sameClose.Add(-time.Hour)),
	}))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{all[0].Ticket, all[1].Ticket, all[2].Ticket})

	batch, err := store.GetByBatch(ctx, "batch-a")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "c", batch[0].Ticket)
}

func TestTradeStore_MissingOpenTime(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	row := createTestTradeRow("3001", "batch-a", time.Date(2024, 1, 9, 10, 30, 0, 0, time.UTC))
	row.OpenTime = nil
	row.OpenPrice = nil
	require.NoError(t, store.Insert(ctx, row))

	got, err := store.GetByID(ctx, "3001")
	require.NoError(t, err)
	assert.Nil(t, got.OpenTime)
	assert.Nil(t, got.OpenPrice)
}

func TestTradeStore_ExistingTickets(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)
	closeAt := time.Date(2024, 1, 9, 10, 30, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, []*domain.TradeRow{
		createTestTradeRow("1001", "batch-a", closeAt),
		createTestTradeRow("1002", "batch-a", closeAt),
	}))

	found, err := store.ExistingTickets(ctx, []string{"1002", "9999"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, "1002")

	found, err = store.ExistingTickets(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}
