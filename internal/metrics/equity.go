package metrics

import (
	"time"

	"trade-journal-lab/internal/domain"
)

// EquityPoint is the running equity after one closed trade.
type EquityPoint struct {
	TradeID    string    `json:"trade_id"`
	CloseTime  time.Time `json:"close_time"`
	Profit     float64   `json:"profit"`
	Cumulative float64   `json:"cumulative"`
	Peak       float64   `json:"peak"`
	Drawdown   float64   `json:"drawdown"`
}

// EquityCurve returns cumulative profit, running peak and drawdown per trade
// in the same chronological order Compute uses. The largest Drawdown equals
// Compute(trades).MaxDrawdown.
func EquityCurve(trades []*domain.Trade) []EquityPoint {
	sorted := sortChronological(trades)
	points := make([]EquityPoint, 0, len(sorted))

	cumulative := 0.0
	peak := 0.0
	for _, t := range sorted {
		cumulative += t.Profit
		if cumulative > peak {
			peak = cumulative
		}
		points = append(points, EquityPoint{
			TradeID:    t.ID,
			CloseTime:  t.CloseTime,
			Profit:     t.Profit,
			Cumulative: cumulative,
			Peak:       peak,
			Drawdown:   peak - cumulative,
		})
	}
	return points
}
