// Package dashboard owns the trade snapshot and keeps the summary in step
// with the committed filters.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/filter"
	"trade-journal-lab/internal/metrics"
	"trade-journal-lab/internal/observability"
	"trade-journal-lab/internal/segment"
)

// Summary is an immutable view of the trades matching one filter set.
type Summary struct {
	Revision   uint64                 `json:"revision"`   // increases with every recompute
	FilterSeq  uint64                 `json:"filter_seq"` // commit the criteria came from
	Criteria   domain.FilterCriteria  `json:"-"`
	Query      string                 `json:"query"`
	Total      int                    `json:"total"` // trades in the snapshot before filtering
	Result     domain.AggregateResult `json:"result"`
	Breakdowns []domain.Breakdown     `json:"breakdowns"`
	ComputedAt time.Time              `json:"computed_at"`
}

// Engine recomputes the summary whenever the trade snapshot or the
// committed filters change and fans it out to listeners.
type Engine struct {
	source metrics.TradeSource
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time

	// computeMu serializes recomputation so listeners see revisions in order.
	computeMu sync.Mutex
	revision  uint64
	filterSeq uint64
	criteria  domain.FilterCriteria
	query     string

	mu      sync.RWMutex
	trades  []*domain.Trade
	summary *Summary

	lisMu     sync.Mutex
	nextLisID int
	listeners map[int]func(*Summary)

	unsubscribe func()
}

// New creates an engine with an empty snapshot. source is read by Reload.
func New(source metrics.TradeSource, loc *time.Location, logger *zap.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		source:    source,
		loc:       loc,
		logger:    logger.Named("dashboard"),
		now:       time.Now,
		listeners: make(map[int]func(*Summary)),
	}
	e.summary = e.compute(nil, domain.FilterCriteria{}, "", 0, 0)
	return e
}

// WithClock sets a custom clock function (for testing).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Bind subscribes the engine to p's commits. Only one pipeline can be bound.
func (e *Engine) Bind(p *filter.Pipeline) {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	e.unsubscribe = p.Subscribe(e.onCommit)
}

// Close detaches the engine from its pipeline.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// ValidateFilters is the pipeline's pre-commit hook. It rejects criteria
// that are invalid or whose apply was superseded.
func (e *Engine) ValidateFilters(ctx context.Context, c domain.FilterCriteria) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", filter.ErrInvalidQuery, err)
	}
	return nil
}

// Reload replaces the snapshot with the source's current trades.
func (e *Engine) Reload(ctx context.Context) error {
	trades, err := e.source.Trades(ctx)
	if err != nil {
		return fmt.Errorf("reload trades: %w", err)
	}
	e.SetTrades(trades)
	return nil
}

// SetTrades replaces the snapshot and recomputes under the current filters.
func (e *Engine) SetTrades(trades []*domain.Trade) {
	snapshot := make([]*domain.Trade, len(trades))
	copy(snapshot, trades)

	e.computeMu.Lock()
	defer e.computeMu.Unlock()

	e.mu.Lock()
	e.trades = snapshot
	e.mu.Unlock()

	observability.UpdateTradesLoaded(len(snapshot))
	e.recomputeLocked()
}

// Trades returns the current snapshot. It implements metrics.TradeSource.
func (e *Engine) Trades(context.Context) ([]*domain.Trade, error) {
	return e.snapshot(), nil
}

func (e *Engine) snapshot() []*domain.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trades
}

// Summary returns the last computed summary. Safe for concurrent use.
func (e *Engine) Summary() *Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.summary
}

// Listen registers fn to receive every new summary and returns a function
// that removes it. fn is called in revision order and must not block.
func (e *Engine) Listen(fn func(*Summary)) func() {
	e.lisMu.Lock()
	defer e.lisMu.Unlock()
	id := e.nextLisID
	e.nextLisID++
	e.listeners[id] = fn
	return func() {
		e.lisMu.Lock()
		defer e.lisMu.Unlock()
		delete(e.listeners, id)
	}
}

// Compute evaluates criteria against the snapshot without touching the
// committed summary.
func (e *Engine) Compute(c domain.FilterCriteria) (*Summary, error) {
	query, err := filter.Encode(c)
	if err != nil {
		return nil, err
	}
	return e.compute(e.snapshot(), c, query, 0, 0), nil
}

// Breakdown partitions the trades matching c along dim.
func (e *Engine) Breakdown(c domain.FilterCriteria, dim domain.Dimension) domain.Breakdown {
	trades := filter.Apply(e.snapshot(), c, e.loc)
	return segment.Bucketize(trades, dim, segment.Options{Location: e.loc})
}

// Heatmap builds the weekday by hour grid of the trades matching c.
func (e *Engine) Heatmap(c domain.FilterCriteria) segment.Heatmap {
	trades := filter.Apply(e.snapshot(), c, e.loc)
	return segment.BuildHeatmap(trades, segment.Options{Location: e.loc})
}

// Equity returns the equity curve of the trades matching c.
func (e *Engine) Equity(c domain.FilterCriteria) []metrics.EquityPoint {
	return metrics.EquityCurve(filter.Apply(e.snapshot(), c, e.loc))
}

func (e *Engine) onCommit(c filter.Commit) {
	e.computeMu.Lock()
	defer e.computeMu.Unlock()

	if c.Seq <= e.filterSeq {
		return
	}
	e.filterSeq = c.Seq
	e.criteria = c.Criteria
	e.query = c.Query.Encode()
	e.recomputeLocked()
}

// recomputeLocked must be called with computeMu held.
func (e *Engine) recomputeLocked() {
	e.revision++
	s := e.compute(e.snapshot(), e.criteria, e.query, e.revision, e.filterSeq)

	e.mu.Lock()
	e.summary = s
	e.mu.Unlock()

	e.logger.Debug("summary recomputed",
		zap.Uint64("revision", s.Revision),
		zap.String("query", s.Query),
		zap.Int("matched", s.Result.Count),
	)

	e.lisMu.Lock()
	defer e.lisMu.Unlock()
	for _, fn := range e.listeners {
		fn(s)
	}
}

func (e *Engine) compute(trades []*domain.Trade, c domain.FilterCriteria, query string, revision, seq uint64) *Summary {
	start := time.Now()
	matched := filter.Apply(trades, c, e.loc)
	s := &Summary{
		Revision:   revision,
		FilterSeq:  seq,
		Criteria:   c,
		Query:      query,
		Total:      len(trades),
		Result:     metrics.Compute(matched),
		Breakdowns: segment.BucketizeAll(matched, segment.Options{Location: e.loc}),
		ComputedAt: e.now().UTC(),
	}
	observability.RecordAggregation("summary", time.Since(start).Seconds())
	return s
}
