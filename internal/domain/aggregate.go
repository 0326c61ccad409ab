package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// UndefinedHigh is the label of a ratio whose denominator is zero while the
// numerator is positive. It replaces both the legacy 999 cap and +Inf.
const UndefinedHigh = "undefined-high"

// Ratio is a non-negative quotient that may be unbounded.
// Unbounded=true means "positive over zero"; Value is then meaningless and kept at 0.
type Ratio struct {
	Value     float64
	Unbounded bool
}

// NewRatio divides num by den applying the sentinel rule:
// den>0 → num/den; den=0,num>0 → undefined-high; otherwise 0.
func NewRatio(num, den float64) Ratio {
	if den > 0 {
		return Ratio{Value: num / den}
	}
	if num > 0 {
		return Ratio{Unbounded: true}
	}
	return Ratio{}
}

// String renders the ratio, using UndefinedHigh for the sentinel.
func (r Ratio) String() string {
	if r.Unbounded {
		return UndefinedHigh
	}
	return strconv.FormatFloat(r.Value, 'f', 4, 64)
}

// MarshalJSON encodes the sentinel as a string and finite values as numbers.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.Unbounded {
		return json.Marshal(UndefinedHigh)
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts either a number or the sentinel string.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != UndefinedHigh {
			return fmt.Errorf("unknown ratio label %q", s)
		}
		*r = Ratio{Unbounded: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode ratio: %w", err)
	}
	*r = Ratio{Value: v}
	return nil
}

// AggregateResult is the KPI summary of one trade collection.
// Recomputed from scratch on every filter commit.
type AggregateResult struct {
	Count       int     `json:"count"`
	GrossProfit float64 `json:"gross_profit"` // sum of positive profits
	GrossLoss   float64 `json:"gross_loss"`   // magnitude of summed negative profits, >= 0
	NetProfit   float64 `json:"net_profit"`   // sum of profits
	Wins        int     `json:"wins"`         // profit > 0
	Losses      int     `json:"losses"`       // profit <= 0

	WinRate      float64 `json:"win_rate"`
	ProfitFactor Ratio   `json:"profit_factor"`
	AvgProfit    float64 `json:"avg_profit"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"` // magnitude, >= 0
	Expectancy   float64 `json:"expectancy"`

	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxWinStreak   int     `json:"max_win_streak"`
	MaxLossStreak  int     `json:"max_loss_streak"`
	RecoveryFactor Ratio   `json:"recovery_factor"`

	StdDev    float64 `json:"std_dev"`
	Sharpe    float64 `json:"sharpe"`
	RMultiple float64 `json:"r_multiple"` // avg profit in units of avg loss

	TotalPips       float64 `json:"total_pips"`
	TotalSwap       float64 `json:"total_swap"`
	TotalCommission float64 `json:"total_commission"`
	NetAfterCosts   float64 `json:"net_after_costs"`

	BestTrade         float64 `json:"best_trade"`
	WorstTrade        float64 `json:"worst_trade"`
	AvgHoldingMinutes float64 `json:"avg_holding_minutes"`
	AvgRiskReward     float64 `json:"avg_risk_reward"`
}
