package domain

import (
	"fmt"
	"time"
)

// Dimension selects how trades are partitioned into buckets.
type Dimension string

const (
	DimensionHour       Dimension = "hour"
	DimensionWeekday    Dimension = "weekday"
	DimensionSession    Dimension = "session"
	DimensionHolding    Dimension = "holding"
	DimensionPips       Dimension = "pips"
	DimensionInstrument Dimension = "instrument"
	DimensionSide       Dimension = "side"
	DimensionTag        Dimension = "tag"
	DimensionDay        Dimension = "day"   // calendar date, YYYY-MM-DD
	DimensionMonth      Dimension = "month" // calendar month, YYYY-MM
)

// AllDimensions lists dimensions in report order.
var AllDimensions = []Dimension{
	DimensionHour,
	DimensionWeekday,
	DimensionSession,
	DimensionHolding,
	DimensionPips,
	DimensionInstrument,
	DimensionSide,
	DimensionTag,
	DimensionDay,
	DimensionMonth,
}

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	for _, d := range AllDimensions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// IsTimeBased reports whether bucketing needs a timestamp.
func (d Dimension) IsTimeBased() bool {
	switch d {
	case DimensionHour, DimensionWeekday, DimensionSession, DimensionHolding, DimensionDay, DimensionMonth:
		return true
	}
	return false
}

// Bucket is one dimension value and the aggregate of its trades.
type Bucket struct {
	Key    string          `json:"key"`
	Label  string          `json:"label"`
	Order  int             `json:"order"` // enumeration order within the dimension
	Result AggregateResult `json:"result"`
}

// Breakdown is the result of partitioning one trade collection.
// Buckets only contains values present in the data, in enumeration order.
type Breakdown struct {
	Dimension Dimension `json:"dimension"`
	Buckets   []Bucket  `json:"buckets"`
	Excluded  int       `json:"excluded"` // trades without the data this dimension needs
}

// BreakdownSnapshot is one bucket row persisted to the analytics store.
type BreakdownSnapshot struct {
	SnapshotID string // import batch or report run identifier
	Dimension  Dimension
	BucketKey  string
	BucketOrd  int
	FilterKey  string // serialized filter query the snapshot was computed for

	Count         int
	NetProfit     float64
	WinRate       float64
	ProfitFactor  float64
	PFUnbounded   bool
	Expectancy    float64
	MaxDrawdown   float64
	MaxLossStreak int

	ComputedAt time.Time
}

// SnapshotsFromBreakdown flattens a breakdown into persisted rows.
func SnapshotsFromBreakdown(snapshotID, filterKey string, b Breakdown, at time.Time) []*BreakdownSnapshot {
	rows := make([]*BreakdownSnapshot, 0, len(b.Buckets))
	for _, bucket := range b.Buckets {
		r := bucket.Result
		rows = append(rows, &BreakdownSnapshot{
			SnapshotID:    snapshotID,
			Dimension:     b.Dimension,
			BucketKey:     bucket.Key,
			BucketOrd:     bucket.Order,
			FilterKey:     filterKey,
			Count:         r.Count,
			NetProfit:     r.NetProfit,
			WinRate:       r.WinRate,
			ProfitFactor:  r.ProfitFactor.Value,
			PFUnbounded:   r.ProfitFactor.Unbounded,
			Expectancy:    r.Expectancy,
			MaxDrawdown:   r.MaxDrawdown,
			MaxLossStreak: r.MaxLossStreak,
			ComputedAt:    at,
		})
	}
	return rows
}
