package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/filter"
	"trade-journal-lab/internal/observability"
)

// ErrNoTrades is returned when no trades are available for aggregation.
var ErrNoTrades = errors.New("no trades available for aggregation")

// TradeSource supplies an immutable snapshot of canonical trades.
type TradeSource interface {
	Trades(ctx context.Context) ([]*domain.Trade, error)
}

// Aggregator computes KPI summaries over a trade source.
type Aggregator struct {
	source TradeSource
	loc    *time.Location
	logger *zap.Logger
}

// NewAggregator creates a new metrics aggregator.
// loc is the display timezone used by date, weekday and session filters.
func NewAggregator(source TradeSource, loc *time.Location, logger *zap.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{source: source, loc: loc, logger: logger}
}

// FilteredTrades loads the source and applies criteria. total is the size
// of the snapshot before filtering.
func (a *Aggregator) FilteredTrades(ctx context.Context, criteria domain.FilterCriteria) (matched []*domain.Trade, total int, err error) {
	trades, err := a.source.Trades(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load trades: %w", err)
	}
	return filter.Apply(trades, criteria, a.loc), len(trades), nil
}

// Location returns the display timezone filters are evaluated in.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// ComputeForFilter computes the summary of trades matching criteria.
// Returns ErrNoTrades if nothing matches.
func (a *Aggregator) ComputeForFilter(ctx context.Context, criteria domain.FilterCriteria) (*domain.AggregateResult, error) {
	start := time.Now()

	trades, _, err := a.FilteredTrades(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}

	result := Compute(trades)
	observability.RecordAggregation("summary", time.Since(start).Seconds())

	a.logger.Debug("aggregate computed",
		zap.Int("trades", result.Count),
		zap.Float64("net_profit", result.NetProfit),
		zap.Stringer("profit_factor", result.ProfitFactor),
	)
	return &result, nil
}
