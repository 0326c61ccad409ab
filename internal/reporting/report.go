package reporting

import (
	"time"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/metrics"
)

// Report is the full journal summary for one filter query.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Timezone    string
	Query       string // canonical filter query, empty when unfiltered
	Criteria    domain.FilterCriteria

	// Data Summary
	DataSummary DataSummary

	// Overall KPIs over the filtered trades
	Summary domain.AggregateResult

	// One breakdown per dimension, in report order
	Breakdowns []domain.Breakdown

	// Best and worst bucket per dimension
	Highlights []HighlightRow

	Equity []metrics.EquityPoint
}

// DataSummary describes the trades the report covers.
type DataSummary struct {
	TotalTrades    int // before filtering
	MatchedTrades  int
	Instruments    int
	DateRangeStart time.Time // earliest entry time among matched trades
	DateRangeEnd   time.Time // latest close time among matched trades
}

// HighlightRow names the best and worst bucket of one dimension.
// Both are empty when the dimension has no buckets.
type HighlightRow struct {
	Dimension domain.Dimension
	Best      *domain.Bucket
	Worst     *domain.Bucket
}
