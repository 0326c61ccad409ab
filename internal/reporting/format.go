package reporting

import (
	"github.com/shopspring/decimal"

	"trade-journal-lab/internal/domain"
)

// Display precision.
const (
	moneyPlaces = 2
	ratePlaces  = 4
)

// money formats a settlement-currency amount, rounded half away from zero.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(moneyPlaces)
}

// rate formats a ratio or fraction.
func rate(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(ratePlaces)
}

// ratio formats a Ratio, keeping the undefined-high label.
func ratio(r domain.Ratio) string {
	if r.Unbounded {
		return domain.UndefinedHigh
	}
	return rate(r.Value)
}

// roundTo rounds v for persistence.
func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
