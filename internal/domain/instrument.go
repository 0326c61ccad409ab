package domain

import "strings"

// InstrumentClass groups instruments that share pip and profit scaling.
type InstrumentClass string

const (
	ClassMajor  InstrumentClass = "major"  // non-JPY fiat pairs
	ClassJPY    InstrumentClass = "jpy"    // JPY-quoted pairs
	ClassCrypto InstrumentClass = "crypto" // crypto quoted in fiat
)

// cryptoBases lists base assets treated as crypto.
var cryptoBases = []string{"BTC", "ETH", "XRP", "LTC", "BCH", "SOL", "ADA", "DOGE"}

// NormalizeInstrument upper-cases a symbol and strips separators and broker suffixes
// like "USD/JPY", "usdjpy." or "EURUSD.m".
func NormalizeInstrument(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	s = strings.NewReplacer("/", "", "-", "", "_", "", " ", "").Replace(s)
	return s
}

// ClassifyInstrument returns the class of a symbol.
func ClassifyInstrument(symbol string) InstrumentClass {
	s := NormalizeInstrument(symbol)
	for _, base := range cryptoBases {
		if strings.HasPrefix(s, base) {
			return ClassCrypto
		}
	}
	if strings.HasSuffix(s, "JPY") {
		return ClassJPY
	}
	return ClassMajor
}

// IsCrypto reports whether symbol trades around the clock.
func IsCrypto(symbol string) bool {
	return ClassifyInstrument(symbol) == ClassCrypto
}
