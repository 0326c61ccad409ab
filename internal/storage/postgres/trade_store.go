package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		ticket, item, side, size,
		open_time, open_price, close_time, close_price,
		commission, swap, profit, pips,
		sl, tp, setup, comment, batch_id
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10, $11, $12,
		$13, $14, $15, $16, $17
	)
`

const selectTradeColumns = `
	SELECT
		ticket, item, side, size,
		open_time, open_price, close_time, close_price,
		commission, swap, profit, pips,
		sl, tp, setup, comment, batch_id
	FROM trades
`

func tradeArgs(r *domain.TradeRow) []any {
	return []any{
		r.Ticket, r.Item, r.Side, r.Size,
		r.OpenTime, r.OpenPrice, r.CloseTime, r.ClosePrice,
		r.Commission, r.Swap, r.Profit, r.Pips,
		r.SL, r.TP, r.Setup, r.Comment, r.BatchID,
	}
}

// Insert adds a new row. Returns ErrDuplicateKey if the ticket exists.
func (s *TradeStore) Insert(ctx context.Context, row *domain.TradeRow) error {
	if row == nil || row.Ticket == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(row)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, rows []*domain.TradeRow) (err error) {
	defer func(start time.Time) { observe("insert_trades", start, err) }(time.Now())

	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row == nil || row.Ticket == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if _, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(row)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade %s: %w", row.Ticket, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a row by ticket. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, ticket string) (*domain.TradeRow, error) {
	row := s.pool.QueryRow(ctx, selectTradeColumns+` WHERE ticket = $1`, ticket)

	r, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade: %w", err)
	}
	return r, nil
}

// GetByBatch retrieves the rows of one import batch in insertion order.
func (s *TradeStore) GetByBatch(ctx context.Context, batchID string) ([]*domain.TradeRow, error) {
	rows, err := s.pool.Query(ctx, selectTradeColumns+` WHERE batch_id = $1 ORDER BY seq ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query trades by batch: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// GetAll retrieves every row in insertion order.
func (s *TradeStore) GetAll(ctx context.Context) (_ []*domain.TradeRow, err error) {
	defer func(start time.Time) { observe("get_trades", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx, selectTradeColumns+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// ExistingTickets returns the subset of tickets already stored.
func (s *TradeStore) ExistingTickets(ctx context.Context, tickets []string) (_ map[string]struct{}, err error) {
	defer func(start time.Time) { observe("existing_tickets", start, err) }(time.Now())

	found := make(map[string]struct{})
	if len(tickets) == 0 {
		return found, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT ticket FROM trades WHERE ticket = ANY($1)`, tickets)
	if err != nil {
		return nil, fmt.Errorf("query existing tickets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticket string
		if err := rows.Scan(&ticket); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		found[ticket] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return found, nil
}

func collectTrades(rows pgx.Rows) ([]*domain.TradeRow, error) {
	var result []*domain.TradeRow
	for rows.Next() {
		r, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}

func scanTrade(row pgx.Row) (*domain.TradeRow, error) {
	var r domain.TradeRow
	err := row.Scan(
		&r.Ticket, &r.Item, &r.Side, &r.Size,
		&r.OpenTime, &r.OpenPrice, &r.CloseTime, &r.ClosePrice,
		&r.Commission, &r.Swap, &r.Profit, &r.Pips,
		&r.SL, &r.TP, &r.Setup, &r.Comment, &r.BatchID,
	)
	if err != nil {
		return nil, err
	}
	if r.OpenTime != nil {
		open := r.OpenTime.UTC()
		r.OpenTime = &open
	}
	r.CloseTime = r.CloseTime.UTC()
	return &r, nil
}
