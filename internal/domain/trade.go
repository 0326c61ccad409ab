package domain

import (
	"math"
	"time"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// IsValid reports whether s is one of the two enumerated sides.
func (s Side) IsValid() bool {
	return s == SideLong || s == SideShort
}

// Sign returns +1 for LONG and -1 for SHORT.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// Trade is the canonical executed-trade record.
// Built once by the normalizer and never mutated afterwards.
type Trade struct {
	ID         string // ticket when supplied, deterministic hash otherwise
	Ticket     string
	Instrument string // upper-case symbol, e.g. USDJPY
	Side       Side
	Volume     float64 // lots

	OpenTime  time.Time // zero when the source had no open time
	CloseTime time.Time

	OpenPrice   float64
	ClosePrice  float64
	StopPrice   *float64
	TargetPrice *float64

	// Settlement currency
	Commission float64
	Swap       float64
	Profit     float64

	Pips    float64 // full precision
	Tag     string  // strategy tag supplied by the source
	Comment string

	BatchID string // import batch that produced the trade
}

// EntryTime returns the instant used by time-based filters and buckets.
// Falls back to CloseTime when the open time is unknown.
func (t *Trade) EntryTime() time.Time {
	if !t.OpenTime.IsZero() {
		return t.OpenTime
	}
	return t.CloseTime
}

// ExitTime returns the instant used for chronological ordering.
// Falls back to OpenTime when the close time is unknown.
func (t *Trade) ExitTime() time.Time {
	if !t.CloseTime.IsZero() {
		return t.CloseTime
	}
	return t.OpenTime
}

// HasTimestamp reports whether the trade carries any usable instant.
func (t *Trade) HasTimestamp() bool {
	return !t.EntryTime().IsZero()
}

// HoldingDuration returns CloseTime-OpenTime. ok is false when either instant is unknown.
func (t *Trade) HoldingDuration() (time.Duration, bool) {
	if t.OpenTime.IsZero() || t.CloseTime.IsZero() {
		return 0, false
	}
	return t.CloseTime.Sub(t.OpenTime), true
}

// NetProfit returns profit after swap and commission.
func (t *Trade) NetProfit() float64 {
	return t.Profit + t.Swap - t.Commission
}

// RiskReward returns reward pips divided by risk pips computed from the
// stop and target prices. ok is false when either level is missing or the
// risk distance is zero.
func (t *Trade) RiskReward() (float64, bool) {
	if t.StopPrice == nil || t.TargetPrice == nil {
		return 0, false
	}
	risk := math.Abs(t.OpenPrice - *t.StopPrice)
	reward := math.Abs(*t.TargetPrice - t.OpenPrice)
	if risk == 0 {
		return 0, false
	}
	return reward / risk, true
}
