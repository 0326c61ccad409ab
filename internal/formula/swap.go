package formula

import (
	"time"

	"trade-journal-lab/internal/domain"
)

// SwapRate is the daily financing per lot for each side.
type SwapRate struct {
	Long  float64
	Short float64
}

// For returns the rate that applies to side.
func (r SwapRate) For(side domain.Side) float64 {
	if side == domain.SideShort {
		return r.Short
	}
	return r.Long
}

// SwapRates is the per-instrument daily rate table in settlement currency.
// Instruments missing from the table accrue no swap.
var SwapRates = map[string]SwapRate{
	"USDJPY": {Long: 120, Short: -180},
	"EURJPY": {Long: 80, Short: -150},
	"GBPJPY": {Long: 100, Short: -200},
	"EURUSD": {Long: -50, Short: -30},
	"GBPUSD": {Long: -40, Short: -20},
	"AUDUSD": {Long: -20, Short: -10},
	"BTCUSD": {},
	"ETHUSD": {},
}

// HoldingDays returns the number of whole days between open and close.
// Unknown or inverted intervals hold zero days.
func HoldingDays(open, close time.Time) int {
	if open.IsZero() || close.IsZero() || close.Before(open) {
		return 0
	}
	return int(close.Sub(open) / (24 * time.Hour))
}

// Swap returns the financing accrued over holdingDays whole days.
// Crypto never accrues swap and neither does a position held under one day.
func Swap(instrument string, side domain.Side, volume float64, holdingDays int) float64 {
	if holdingDays < 1 || domain.IsCrypto(instrument) {
		return 0
	}
	rate, ok := SwapRates[domain.NormalizeInstrument(instrument)]
	if !ok {
		return 0
	}
	return rate.For(side) * volume * float64(holdingDays)
}
