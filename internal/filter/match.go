// Package filter applies FilterCriteria to trades and owns the debounced
// ui/committed filter state machine.
package filter

import (
	"time"

	"trade-journal-lab/internal/domain"
)

// Match reports whether t satisfies every present constraint of c.
// Date, weekday and session constraints use the trade's entry time in loc;
// a trade without any timestamp fails those constraints.
func Match(c domain.FilterCriteria, t *domain.Trade, loc *time.Location) bool {
	if c.Instrument != "" && t.Instrument != c.Instrument {
		return false
	}
	if c.Side != "" && t.Side != c.Side {
		return false
	}
	switch c.PnL {
	case domain.PnLWin:
		if t.Profit <= 0 {
			return false
		}
	case domain.PnLLoss:
		if t.Profit >= 0 {
			return false
		}
	}

	if !needsTime(c) {
		return true
	}
	if !t.HasTimestamp() {
		return false
	}
	entry := t.EntryTime().In(loc)

	day := domain.DateOf(entry)
	if !c.DateFrom.IsZero() && day.Before(c.DateFrom) {
		return false
	}
	if !c.DateTo.IsZero() && day.After(c.DateTo) {
		return false
	}
	if !c.Weekday.Matches(entry.Weekday()) {
		return false
	}
	if c.Session != "" && !c.Session.Contains(entry.Hour()) {
		return false
	}
	return true
}

// Apply returns the trades matching c, preserving input order.
// The input slice is not modified.
func Apply(trades []*domain.Trade, c domain.FilterCriteria, loc *time.Location) []*domain.Trade {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if Match(c, t, loc) {
			out = append(out, t)
		}
	}
	return out
}

func needsTime(c domain.FilterCriteria) bool {
	return !c.DateFrom.IsZero() || !c.DateTo.IsZero() || c.Weekday != "" || c.Session != ""
}
