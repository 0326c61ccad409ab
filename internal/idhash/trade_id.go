package idhash

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
)

// TradeIDPrefix marks identifiers derived from trade content rather than a broker ticket.
const TradeIDPrefix = "h-"

// ComputeTradeID computes a deterministic trade_id for records without a ticket.
// Formula: SHA256(instrument|side|open_unix_ms|close_unix_ms|open_price|close_price|volume)
// Returns TradeIDPrefix + base58-encoded hash.
func ComputeTradeID(
	instrument string,
	side string,
	openTime time.Time,
	closeTime time.Time,
	openPrice float64,
	closePrice float64,
	volume float64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%s|%s|%s",
		instrument,
		side,
		unixMs(openTime),
		unixMs(closeTime),
		strconv.FormatFloat(openPrice, 'f', -1, 64),
		strconv.FormatFloat(closePrice, 'f', -1, 64),
		strconv.FormatFloat(volume, 'f', -1, 64),
	)

	hash := sha256.Sum256([]byte(data))
	return TradeIDPrefix + base58.Encode(hash[:])
}

func unixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
