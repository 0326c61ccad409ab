package dashboard

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/filter"
)

type staticSource struct {
	trades []*domain.Trade
	err    error
}

func (s *staticSource) Trades(context.Context) ([]*domain.Trade, error) { return s.trades, s.err }

// 2024-03-04 is a Monday.
var base = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func sampleTrades() []*domain.Trade {
	return []*domain.Trade{
		{ID: "1", Instrument: "USDJPY", Side: domain.SideLong, Volume: 1,
			OpenTime: base.Add(1 * time.Hour), CloseTime: base.Add(2 * time.Hour), Profit: 500},
		{ID: "2", Instrument: "EURUSD", Side: domain.SideShort, Volume: 1,
			OpenTime: base.Add(10 * time.Hour), CloseTime: base.Add(11 * time.Hour), Profit: -200},
		{ID: "3", Instrument: "USDJPY", Side: domain.SideShort, Volume: 1,
			OpenTime: base.Add(20 * time.Hour), CloseTime: base.Add(21 * time.Hour), Profit: 300},
	}
}

type collector struct {
	mu        sync.Mutex
	summaries []*Summary
}

func (c *collector) add(s *Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries = append(c.summaries, s)
}

func (c *collector) last() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaries[len(c.summaries)-1]
}

func newTestEngine(t *testing.T) (*Engine, *filter.Pipeline, *filter.ManualScheduler, *collector) {
	t.Helper()
	src := &staticSource{trades: sampleTrades()}
	e := New(src, time.UTC, nil)
	sched := filter.NewManualScheduler()
	p := filter.NewPipeline(filter.Options{
		Delay:     200 * time.Millisecond,
		Scheduler: sched,
		Validate:  e.ValidateFilters,
	})
	e.Bind(p)
	col := &collector{}
	e.Listen(col.add)
	require.NoError(t, e.Reload(context.Background()))
	t.Cleanup(func() {
		e.Close()
		p.Close()
	})
	return e, p, sched, col
}

func strPtr(s string) *string { return &s }

func TestNew_EmptySummary(t *testing.T) {
	e := New(&staticSource{}, nil, nil)
	s := e.Summary()
	require.NotNil(t, s)
	assert.Zero(t, s.Result.Count)
	assert.Len(t, s.Breakdowns, len(domain.AllDimensions))
}

func TestReload_RecomputesAndNotifies(t *testing.T) {
	e, _, _, col := newTestEngine(t)

	s := e.Summary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 3, s.Result.Count)
	assert.InDelta(t, 600, s.Result.NetProfit, 1e-9)
	assert.Equal(t, uint64(1), s.Revision)
	assert.Same(t, s, col.last())
}

func TestReload_SourceError(t *testing.T) {
	e := New(&staticSource{err: errors.New("boom")}, nil, nil)
	assert.ErrorContains(t, e.Reload(context.Background()), "boom")
}

func TestCommit_RecomputesUnderNewFilters(t *testing.T) {
	e, p, sched, col := newTestEngine(t)

	p.Edit(domain.FilterPatch{Instrument: strPtr("usd/jpy")})
	assert.Equal(t, 3, e.Summary().Result.Count, "nothing changes before the debounce settles")

	sched.Advance(200 * time.Millisecond)

	s := e.Summary()
	assert.Equal(t, "symbol=USDJPY", s.Query)
	assert.Equal(t, 2, s.Result.Count)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, uint64(1), s.FilterSeq)
	assert.Same(t, s, col.last())

	// New trades keep the committed filters
	more := append(sampleTrades(), &domain.Trade{ID: "4", Instrument: "USDJPY", Side: domain.SideLong, Volume: 1,
		OpenTime: base.Add(30 * time.Hour), CloseTime: base.Add(31 * time.Hour), Profit: -100})
	e.SetTrades(more)
	assert.Equal(t, 3, e.Summary().Result.Count)
	assert.Equal(t, "symbol=USDJPY", e.Summary().Query)
}

func TestCommit_ResetAndHistory(t *testing.T) {
	e, p, _, _ := newTestEngine(t)

	require.NoError(t, p.ForceFromHistory(url.Values{"pnl": {"loss"}}))
	assert.Equal(t, 1, e.Summary().Result.Count)
	assert.Equal(t, "pnl=loss", e.Summary().Query)

	p.Reset()
	assert.Equal(t, 3, e.Summary().Result.Count)
	assert.Equal(t, "", e.Summary().Query)
}

func TestRevisionsIncrease(t *testing.T) {
	e, p, sched, col := newTestEngine(t)

	p.Edit(domain.FilterPatch{Instrument: strPtr("EURUSD")})
	sched.Advance(time.Second)
	p.Reset()
	e.SetTrades(sampleTrades())

	col.mu.Lock()
	defer col.mu.Unlock()
	for i := 1; i < len(col.summaries); i++ {
		assert.Greater(t, col.summaries[i].Revision, col.summaries[i-1].Revision)
	}
}

func TestValidateFilters(t *testing.T) {
	e := New(&staticSource{}, nil, nil)

	assert.NoError(t, e.ValidateFilters(context.Background(), domain.FilterCriteria{Instrument: "USDJPY"}))

	err := e.ValidateFilters(context.Background(), domain.FilterCriteria{Session: "mars"})
	assert.True(t, errors.Is(err, filter.ErrInvalidQuery))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.ValidateFilters(ctx, domain.FilterCriteria{}), context.Canceled)
}

func TestAdHocQueries(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	s, err := e.Compute(domain.FilterCriteria{Side: domain.SideShort})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Result.Count)
	assert.Equal(t, 3, e.Summary().Result.Count, "committed summary untouched")

	_, err = e.Compute(domain.FilterCriteria{Side: "UP"})
	assert.Error(t, err)

	b := e.Breakdown(domain.FilterCriteria{}, domain.DimensionInstrument)
	require.Len(t, b.Buckets, 2)
	assert.Equal(t, "EURUSD", b.Buckets[0].Key)

	hm := e.Heatmap(domain.FilterCriteria{})
	assert.Len(t, hm.Cells, 3)

	eq := e.Equity(domain.FilterCriteria{})
	require.Len(t, eq, 3)
	assert.InDelta(t, 600, eq[2].Cumulative, 1e-9)
}

func TestListen_Unsubscribe(t *testing.T) {
	e := New(&staticSource{}, nil, nil)
	calls := 0
	stop := e.Listen(func(*Summary) { calls++ })
	e.SetTrades(sampleTrades())
	stop()
	e.SetTrades(sampleTrades())
	assert.Equal(t, 1, calls)
}
