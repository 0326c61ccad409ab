package reporting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/filter"
	"trade-journal-lab/internal/metrics"
	"trade-journal-lab/internal/observability"
	"trade-journal-lab/internal/segment"
)

// Generator produces reports from a trade source.
type Generator struct {
	agg    *metrics.Aggregator
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. loc is the display timezone.
func NewGenerator(source metrics.TradeSource, loc *time.Location, logger *zap.Logger) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		agg:    metrics.NewAggregator(source, loc, logger),
		loc:    loc,
		logger: logger.Named("report"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report over the trades matching criteria.
// An empty match yields a report with zero-valued aggregates.
func (g *Generator) Generate(ctx context.Context, criteria domain.FilterCriteria) (*Report, error) {
	query, err := filter.Encode(criteria)
	if err != nil {
		return nil, err
	}

	trades, total, err := g.agg.FilteredTrades(ctx, criteria)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	breakdowns := segment.BucketizeAll(trades, segment.Options{Location: g.loc})
	report := &Report{
		GeneratedAt: g.now(),
		Timezone:    g.loc.String(),
		Query:       query,
		Criteria:    criteria,
		DataSummary: summarize(total, trades),
		Summary:     metrics.Compute(trades),
		Breakdowns:  breakdowns,
		Highlights:  highlights(breakdowns),
		Equity:      metrics.EquityCurve(trades),
	}
	observability.RecordAggregation("report", time.Since(start).Seconds())
	observability.RecordReportGenerated()

	g.logger.Info("report generated",
		zap.String("query", query),
		zap.Int("matched", len(trades)),
		zap.Int("total", total),
	)
	return report, nil
}

func summarize(total int, trades []*domain.Trade) DataSummary {
	s := DataSummary{TotalTrades: total, MatchedTrades: len(trades)}
	instruments := make(map[string]struct{})
	for _, t := range trades {
		instruments[t.Instrument] = struct{}{}
		if entry := t.EntryTime(); !entry.IsZero() && (s.DateRangeStart.IsZero() || entry.Before(s.DateRangeStart)) {
			s.DateRangeStart = entry
		}
		if t.CloseTime.After(s.DateRangeEnd) {
			s.DateRangeEnd = t.CloseTime
		}
	}
	s.Instruments = len(instruments)
	return s
}

func highlights(breakdowns []domain.Breakdown) []HighlightRow {
	rows := make([]HighlightRow, 0, len(breakdowns))
	for _, b := range breakdowns {
		row := HighlightRow{Dimension: b.Dimension}
		if best, ok := segment.Best(b); ok {
			row.Best = &best
		}
		if worst, ok := segment.Worst(b); ok {
			row.Worst = &worst
		}
		rows = append(rows, row)
	}
	return rows
}
