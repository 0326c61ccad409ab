// Package segment partitions trade collections along one dimension and
// aggregates every bucket with the metrics package.
package segment

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"trade-journal-lab/internal/domain"
)

// bucketKey identifies one dimension value.
type bucketKey struct {
	key   string
	label string
	order int
}

// band is a half-open upper bound with its key.
type band struct {
	key   string
	upper float64 // exclusive for pips, inclusive for holding minutes
}

// holdingBands are upper bounds in minutes, inclusive. The last band is open.
var holdingBands = []band{
	{key: "0-30m", upper: 30},
	{key: "30m-1h", upper: 60},
	{key: "1-2h", upper: 120},
	{key: "2-4h", upper: 240},
	{key: "4-8h", upper: 480},
	{key: "8-24h", upper: 1440},
	{key: "1d+", upper: math.Inf(1)},
}

// pipBands are exclusive upper bounds on |pips|. The last band is open.
var pipBands = []band{
	{key: "0-10", upper: 10},
	{key: "10-20", upper: 20},
	{key: "20-50", upper: 50},
	{key: "50-100", upper: 100},
	{key: "100+", upper: math.Inf(1)},
}

// sessionBuckets partition the clock. The thin session overlaps asia and is
// a filter only.
var sessionBuckets = []domain.Session{domain.SessionAsia, domain.SessionLondon, domain.SessionNY}

// keyFor returns the bucket of t along dim. ok is false when t lacks the
// data the dimension needs.
func keyFor(t *domain.Trade, dim domain.Dimension, loc *time.Location) (bucketKey, bool) {
	switch dim {
	case domain.DimensionHour:
		if !t.HasTimestamp() {
			return bucketKey{}, false
		}
		h := t.EntryTime().In(loc).Hour()
		return bucketKey{key: strconv.Itoa(h), label: fmt.Sprintf("%02d:00", h), order: h}, true

	case domain.DimensionWeekday:
		if !t.HasTimestamp() {
			return bucketKey{}, false
		}
		d := t.EntryTime().In(loc).Weekday()
		return bucketKey{key: strconv.Itoa(int(d)), label: d.String()[:3], order: int(d)}, true

	case domain.DimensionSession:
		if !t.HasTimestamp() {
			return bucketKey{}, false
		}
		h := t.EntryTime().In(loc).Hour()
		for i, s := range sessionBuckets {
			if s.Contains(h) {
				return bucketKey{key: string(s), label: string(s), order: i}, true
			}
		}
		return bucketKey{}, false

	case domain.DimensionHolding:
		d, ok := t.HoldingDuration()
		if !ok {
			return bucketKey{}, false
		}
		minutes := d.Minutes()
		for i, b := range holdingBands {
			if minutes <= b.upper {
				return bucketKey{key: b.key, label: b.key, order: i}, true
			}
		}
		return bucketKey{}, false

	case domain.DimensionPips:
		p := math.Abs(t.Pips)
		for i, b := range pipBands {
			if p < b.upper {
				return bucketKey{key: b.key, label: b.key, order: i}, true
			}
		}
		return bucketKey{}, false

	case domain.DimensionInstrument:
		// order is assigned after sorting symbols
		return bucketKey{key: t.Instrument, label: t.Instrument}, true

	case domain.DimensionSide:
		if t.Side == domain.SideShort {
			return bucketKey{key: string(domain.SideShort), label: "short", order: 1}, true
		}
		return bucketKey{key: string(domain.SideLong), label: "long", order: 0}, true

	case domain.DimensionTag:
		tag := TradeTag(t)
		return bucketKey{key: tag, label: tag, order: tagOrder(tag)}, true

	case domain.DimensionDay:
		if !t.HasTimestamp() {
			return bucketKey{}, false
		}
		at := t.EntryTime().In(loc)
		// order is assigned after sorting dates
		return bucketKey{key: at.Format(time.DateOnly), label: at.Format("2006-01-02 Mon")}, true

	case domain.DimensionMonth:
		if !t.HasTimestamp() {
			return bucketKey{}, false
		}
		at := t.EntryTime().In(loc)
		return bucketKey{key: at.Format("2006-01"), label: at.Format("Jan 2006")}, true
	}
	return bucketKey{}, false
}

// TradeTag returns the strategy tag of t. The supplied tag is matched first,
// then the comment.
func TradeTag(t *domain.Trade) string {
	if tag := ExtractTag(t.Tag); tag != TagUnregistered {
		return tag
	}
	return ExtractTag(t.Comment)
}
