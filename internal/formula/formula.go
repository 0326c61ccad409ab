// Package formula holds the pip, profit, swap and weekend rules shared by the
// normalizer and the fixture generator. Every function is pure.
package formula

import (
	"time"

	"github.com/shopspring/decimal"

	"trade-journal-lab/internal/domain"
)

// PipMultipliers scales a raw price difference into pips per instrument class.
var PipMultipliers = map[domain.InstrumentClass]float64{
	domain.ClassJPY:    100,
	domain.ClassMajor:  10000,
	domain.ClassCrypto: 1,
}

// ProfitMultipliers scales price difference × lots into settlement currency.
// JPY pairs: 100 pips per yen × 1000 per pip-lot.
// Majors: 10000 pips per unit × 100 per pip-lot.
// Crypto: price units directly.
var ProfitMultipliers = map[domain.InstrumentClass]float64{
	domain.ClassJPY:    100 * 1000,
	domain.ClassMajor:  10000 * 100,
	domain.ClassCrypto: 1,
}

// PipDisplayPlaces is the precision pips are shown with.
const PipDisplayPlaces = 1

// Pips returns the signed pip distance between open and close for side.
func Pips(instrument string, side domain.Side, openPrice, closePrice float64) float64 {
	class := domain.ClassifyInstrument(instrument)
	return (closePrice - openPrice) * side.Sign() * PipMultipliers[class]
}

// Profit returns the signed gross profit for a position of volume lots.
func Profit(instrument string, side domain.Side, volume, openPrice, closePrice float64) float64 {
	class := domain.ClassifyInstrument(instrument)
	return (closePrice - openPrice) * side.Sign() * volume * ProfitMultipliers[class]
}

// WeekendAdjust moves a non-crypto instant that falls on a weekend forward to
// the same clock time on Monday. Weekday is evaluated in t's location.
func WeekendAdjust(t time.Time, instrument string) time.Time {
	if domain.IsCrypto(instrument) {
		return t
	}
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

// RoundPips rounds a pip value half away from zero for display.
func RoundPips(pips float64) float64 {
	return RoundTo(pips, PipDisplayPlaces)
}

// RoundTo rounds v to places decimals, half away from zero.
func RoundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
