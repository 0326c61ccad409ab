package segment

import (
	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/metrics"
)

// HeatCell is the aggregate of one weekday and entry hour.
type HeatCell struct {
	Weekday int                    `json:"weekday"` // Sunday=0
	Hour    int                    `json:"hour"`
	Result  domain.AggregateResult `json:"result"`
}

// Heatmap is a weekday by hour grid. Only cells with trades are present,
// ordered by weekday then hour.
type Heatmap struct {
	Cells    []HeatCell `json:"cells"`
	Excluded int        `json:"excluded"`
}

// BuildHeatmap aggregates trades per (weekday, hour) of their entry time.
// Trades without a timestamp are counted in Excluded.
func BuildHeatmap(trades []*domain.Trade, opts Options) Heatmap {
	loc := opts.location()

	var grid [7][24][]*domain.Trade
	excluded := 0
	for _, t := range trades {
		if !t.HasTimestamp() {
			excluded++
			continue
		}
		at := t.EntryTime().In(loc)
		grid[at.Weekday()][at.Hour()] = append(grid[at.Weekday()][at.Hour()], t)
	}

	hm := Heatmap{Excluded: excluded}
	for d := range grid {
		for h := range grid[d] {
			if len(grid[d][h]) == 0 {
				continue
			}
			hm.Cells = append(hm.Cells, HeatCell{
				Weekday: d,
				Hour:    h,
				Result:  metrics.Compute(grid[d][h]),
			})
		}
	}
	return hm
}
