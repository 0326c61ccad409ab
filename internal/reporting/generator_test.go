package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/storage"
	"trade-journal-lab/internal/storage/memory"
)

type staticSource []*domain.Trade

func (s staticSource) Trades(context.Context) ([]*domain.Trade, error) { return s, nil }

type failingSource struct{}

func (failingSource) Trades(context.Context) ([]*domain.Trade, error) {
	return nil, errors.New("store offline")
}

// 2024-03-04 is a Monday.
var base = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func setupTestData() staticSource {
	return staticSource{
		{ID: "a", Instrument: "USDJPY", Side: domain.SideLong, Volume: 1,
			OpenTime: base.Add(time.Hour), CloseTime: base.Add(80 * time.Minute), Profit: 1000, Pips: 10},
		{ID: "b", Instrument: "EURUSD", Side: domain.SideShort, Volume: 1,
			OpenTime: base.Add(10 * time.Hour), CloseTime: base.Add(11 * time.Hour), Profit: -400, Pips: -4},
		{ID: "c", Instrument: "USDJPY", Side: domain.SideLong, Volume: 1,
			OpenTime: base.Add(42 * time.Hour), CloseTime: base.Add(43 * time.Hour), Profit: 600, Pips: 6},
	}
}

var fixedTime = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(src staticSource) *Generator {
	return NewGenerator(src, time.UTC, nil).WithClock(func() time.Time { return fixedTime })
}

func TestGenerate_Deterministic(t *testing.T) {
	ctx := context.Background()
	g := newTestGenerator(setupTestData())

	r1, err := g.Generate(ctx, domain.FilterCriteria{})
	require.NoError(t, err)
	r2, err := g.Generate(ctx, domain.FilterCriteria{})
	require.NoError(t, err)

	assert.Equal(t, RenderMarkdown(r1), RenderMarkdown(r2))
	assert.Equal(t, RenderBreakdownsCSV(r1.Breakdowns), RenderBreakdownsCSV(r2.Breakdowns))
	assert.Equal(t, fixedTime, r1.GeneratedAt)
}

func TestGenerate_Summary(t *testing.T) {
	r, err := newTestGenerator(setupTestData()).Generate(context.Background(), domain.FilterCriteria{})
	require.NoError(t, err)

	assert.Equal(t, "", r.Query)
	assert.Equal(t, "UTC", r.Timezone)
	assert.Equal(t, 3, r.Summary.Count)
	assert.InDelta(t, 1200, r.Summary.NetProfit, 1e-9)
	assert.Equal(t, DataSummary{
		TotalTrades:    3,
		MatchedTrades:  3,
		Instruments:    2,
		DateRangeStart: base.Add(time.Hour),
		DateRangeEnd:   base.Add(43 * time.Hour),
	}, r.DataSummary)

	require.Len(t, r.Breakdowns, len(domain.AllDimensions))
	require.Len(t, r.Highlights, len(domain.AllDimensions))
	require.Len(t, r.Equity, 3)
	assert.InDelta(t, 1200, r.Equity[2].Cumulative, 1e-9)

	for _, h := range r.Highlights {
		if h.Dimension != domain.DimensionInstrument {
			continue
		}
		require.NotNil(t, h.Best)
		assert.Equal(t, "USDJPY", h.Best.Key)
		assert.Equal(t, "EURUSD", h.Worst.Key)
	}
}

func TestGenerate_Filtered(t *testing.T) {
	r, err := newTestGenerator(setupTestData()).Generate(context.Background(), domain.FilterCriteria{Instrument: "USDJPY"})
	require.NoError(t, err)

	assert.Equal(t, "symbol=USDJPY", r.Query)
	assert.Equal(t, 3, r.DataSummary.TotalTrades)
	assert.Equal(t, 2, r.DataSummary.MatchedTrades)
	assert.True(t, r.Summary.ProfitFactor.Unbounded)
}

func TestGenerate_NoMatches(t *testing.T) {
	r, err := newTestGenerator(setupTestData()).Generate(context.Background(), domain.FilterCriteria{Instrument: "GBPUSD"})
	require.NoError(t, err)

	assert.Zero(t, r.Summary.Count)
	md := RenderMarkdown(r)
	assert.Contains(t, md, "No trades match the current filters.")
	assert.Contains(t, md, "| hour | - | - | - | - |")
}

func TestGenerate_SourceError(t *testing.T) {
	g := NewGenerator(failingSource{}, nil, nil)
	_, err := g.Generate(context.Background(), domain.FilterCriteria{})
	assert.ErrorContains(t, err, "store offline")
}

func TestGenerate_InvalidCriteria(t *testing.T) {
	_, err := newTestGenerator(setupTestData()).Generate(context.Background(), domain.FilterCriteria{Side: "SIDEWAYS"})
	assert.Error(t, err)
}

func TestRenderCSV(t *testing.T) {
	r, err := newTestGenerator(setupTestData()).Generate(context.Background(), domain.FilterCriteria{})
	require.NoError(t, err)

	var inst domain.Breakdown
	for _, b := range r.Breakdowns {
		if b.Dimension == domain.DimensionInstrument {
			inst = b
		}
	}
	out := RenderCSV(inst)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.TrimSpace(csvHeader), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "instrument,EURUSD,"))
	assert.Contains(t, lines[1], ",-400.00,0.0000,")
	assert.True(t, strings.HasPrefix(lines[2], "instrument,USDJPY,"))
	assert.Contains(t, lines[2], ",1600.00,undefined-high,")
}

func TestRenderEquityCSV(t *testing.T) {
	r, err := newTestGenerator(setupTestData()).Generate(context.Background(), domain.FilterCriteria{})
	require.NoError(t, err)

	out := RenderEquityCSV(r)
	assert.Contains(t, out, "a,2024-03-04T01:20:00Z,1000.00,1000.00,1000.00,0.00\n")
	assert.Contains(t, out, "b,2024-03-04T11:00:00Z,-400.00,600.00,1000.00,400.00\n")
}

func TestRenderMarkdown(t *testing.T) {
	r, err := newTestGenerator(setupTestData()).Generate(context.Background(), domain.FilterCriteria{})
	require.NoError(t, err)

	md := RenderMarkdown(r)
	assert.Contains(t, md, "# Trade Journal Report")
	assert.Contains(t, md, "Generated: 2024-04-01T12:00:00Z")
	assert.Contains(t, md, "Filters: (none)")
	assert.Contains(t, md, "| Net Profit | 1200.00 |")
	assert.Contains(t, md, "## By session")
}

func TestSnapshotWriter_Persist(t *testing.T) {
	ctx := context.Background()
	r, err := newTestGenerator(setupTestData()).Generate(ctx, domain.FilterCriteria{})
	require.NoError(t, err)

	store := memory.NewBreakdownSnapshotStore()
	w := NewSnapshotWriter(store, nil)

	id, err := w.Persist(ctx, "batch-1", r)
	require.NoError(t, err)
	assert.Len(t, id, 64)

	want := 0
	for _, b := range r.Breakdowns {
		want += len(b.Buckets)
	}
	rows, err := store.GetBySnapshot(ctx, id)
	require.NoError(t, err)
	assert.Len(t, rows, want)
	for _, row := range rows {
		assert.Equal(t, fixedTime, row.ComputedAt)
	}

	_, err = w.Persist(ctx, "batch-1", r)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))

	other, err := w.Persist(ctx, "batch-2", r)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}
