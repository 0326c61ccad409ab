package normalization

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/formula"
	"trade-journal-lab/internal/idhash"
)

// timeLayouts are tried in order for naive timestamps.
var timeLayouts = []string{
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
}

// Options configures a Normalizer.
type Options struct {
	// Location for timestamps that carry no zone. Defaults to UTC.
	Location *time.Location
	// DeriveMissingProfit computes profit from prices when the source has none.
	DeriveMissingProfit bool
	// DeriveMissingSwap computes swap from the rate table when the source has none.
	DeriveMissingSwap bool
}

// DefaultOptions derives missing profit but leaves missing swap at zero.
func DefaultOptions() Options {
	return Options{Location: time.UTC, DeriveMissingProfit: true}
}

// Normalizer validates raw records and builds canonical trades.
// It is stateless and safe for concurrent use.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a normalizer.
func NewNormalizer(opts Options) *Normalizer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Normalizer{opts: opts}
}

// Result is the tagged outcome of normalizing one record.
// Exactly one of Trade and Rejection is set.
type Result struct {
	Trade     *domain.Trade
	Rejection *Rejection
	Warnings  []Warning
}

// OK reports whether the record produced a trade.
func (r Result) OK() bool {
	return r.Trade != nil
}

// fieldError carries a rejection out of the parse helpers.
type fieldError struct {
	reason Reason
	field  string
	detail string
}

// Normalize converts one raw record. It never panics.
func (n *Normalizer) Normalize(raw RawRecord) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = n.reject(raw, &fieldError{reason: ReasonMalformedNumber, detail: fmt.Sprint(p)})
		}
	}()

	t, warnings, ferr := n.build(raw)
	if ferr != nil {
		return n.reject(raw, ferr)
	}
	return Result{Trade: t, Warnings: warnings}
}

// NormalizeAll normalizes every record, keeping input order.
func (n *Normalizer) NormalizeAll(raws []RawRecord) []Result {
	out := make([]Result, len(raws))
	for i, raw := range raws {
		out[i] = n.Normalize(raw)
	}
	return out
}

func (n *Normalizer) reject(raw RawRecord, e *fieldError) Result {
	return Result{Rejection: &Rejection{
		Source: raw.Source,
		Line:   raw.Line,
		Ticket: strings.TrimSpace(raw.Ticket),
		Reason: e.reason,
		Field:  e.field,
		Detail: e.detail,
	}}
}

func (n *Normalizer) build(raw RawRecord) (*domain.Trade, []Warning, *fieldError) {
	t := &domain.Trade{
		Ticket:  strings.TrimSpace(raw.Ticket),
		Tag:     strings.TrimSpace(raw.Tag),
		Comment: strings.TrimSpace(raw.Comment),
		BatchID: raw.BatchID,
	}

	t.Instrument = domain.NormalizeInstrument(width.Fold.String(raw.Instrument))
	if t.Instrument == "" {
		return nil, nil, &fieldError{reason: ReasonMissingField, field: FieldInstrument}
	}

	side, ferr := parseSide(raw.Side)
	if ferr != nil {
		return nil, nil, ferr
	}
	t.Side = side

	volume, ok, ferr := parseNumber(FieldVolume, raw.Volume)
	if ferr != nil {
		return nil, nil, ferr
	}
	if !ok {
		return nil, nil, &fieldError{reason: ReasonMissingField, field: FieldVolume}
	}
	if volume <= 0 {
		return nil, nil, &fieldError{reason: ReasonInvalidVolume, field: FieldVolume, detail: "must be positive"}
	}
	t.Volume = volume

	if t.OpenTime, ferr = n.parseTime(FieldOpenTime, raw.OpenTime); ferr != nil {
		return nil, nil, ferr
	}
	if t.CloseTime, ferr = n.parseTime(FieldCloseTime, raw.CloseTime); ferr != nil {
		return nil, nil, ferr
	}

	var warnings []Warning

	// Exports that only carry one instant are treated as opened and closed then.
	if t.CloseTime.IsZero() {
		if t.OpenTime.IsZero() {
			return nil, nil, &fieldError{reason: ReasonMissingField, field: FieldCloseTime}
		}
		t.CloseTime = t.OpenTime
		warnings = append(warnings, WarnCloseTimeFromOpen)
	}
	if !t.OpenTime.IsZero() && !t.CloseTime.IsZero() && t.CloseTime.Before(t.OpenTime) {
		return nil, nil, &fieldError{
			reason: ReasonCloseBeforeOpen,
			field:  FieldCloseTime,
			detail: fmt.Sprintf("%s < %s", t.CloseTime.Format(time.RFC3339), t.OpenTime.Format(time.RFC3339)),
		}
	}

	openPrice, hasOpen, ferr := parsePrice(FieldOpenPrice, raw.OpenPrice)
	if ferr != nil {
		return nil, nil, ferr
	}
	closePrice, hasClose, ferr := parsePrice(FieldClosePrice, raw.ClosePrice)
	if ferr != nil {
		return nil, nil, ferr
	}
	t.OpenPrice, t.ClosePrice = openPrice, closePrice
	hasPrices := hasOpen && hasClose

	if t.StopPrice, ferr = optionalPrice(FieldStop, raw.Stop); ferr != nil {
		return nil, nil, ferr
	}
	if t.TargetPrice, ferr = optionalPrice(FieldTarget, raw.Target); ferr != nil {
		return nil, nil, ferr
	}

	profit, hasProfit, ferr := parseNumber(FieldProfit, raw.Profit)
	if ferr != nil {
		return nil, nil, ferr
	}
	switch {
	case hasProfit:
		t.Profit = profit
	case hasPrices && n.opts.DeriveMissingProfit:
		t.Profit = formula.Profit(t.Instrument, t.Side, t.Volume, openPrice, closePrice)
		warnings = append(warnings, WarnProfitDerived)
	default:
		return nil, nil, &fieldError{reason: ReasonMissingField, field: FieldProfit}
	}

	pips, hasPips, ferr := parseNumber(FieldPips, raw.Pips)
	if ferr != nil {
		return nil, nil, ferr
	}
	if hasPrices {
		t.Pips = formula.Pips(t.Instrument, t.Side, openPrice, closePrice)
	} else if hasPips {
		t.Pips = pips
	}

	swap, hasSwap, ferr := parseNumber(FieldSwap, raw.Swap)
	if ferr != nil {
		return nil, nil, ferr
	}
	switch {
	case hasSwap:
		t.Swap = swap
	case n.opts.DeriveMissingSwap && !t.OpenTime.IsZero() && !t.CloseTime.IsZero():
		days := formula.HoldingDays(t.OpenTime, t.CloseTime)
		t.Swap = formula.Swap(t.Instrument, t.Side, t.Volume, days)
		warnings = append(warnings, WarnSwapDerived)
	}

	commission, _, ferr := parseNumber(FieldCommission, raw.Commission)
	if ferr != nil {
		return nil, nil, ferr
	}
	t.Commission = commission

	if t.Pips != 0 && t.Profit != 0 && math.Signbit(t.Pips) != math.Signbit(t.Profit) {
		warnings = append(warnings, WarnPipsProfitSignMismatch)
	}

	t.ID = t.Ticket
	if t.ID == "" {
		t.ID = idhash.ComputeTradeID(t.Instrument, string(t.Side), t.OpenTime, t.CloseTime, openPrice, closePrice, t.Volume)
	}
	return t, warnings, nil
}

// ParseSide accepts long/buy/l and short/sell/s in any case.
func ParseSide(s string) (domain.Side, bool) {
	switch strings.ToLower(strings.TrimSpace(width.Fold.String(s))) {
	case "long", "buy", "l":
		return domain.SideLong, true
	case "short", "sell", "s":
		return domain.SideShort, true
	}
	return "", false
}

func parseSide(s string) (domain.Side, *fieldError) {
	if strings.TrimSpace(s) == "" {
		return "", &fieldError{reason: ReasonMissingField, field: FieldSide}
	}
	side, ok := ParseSide(s)
	if !ok {
		return "", &fieldError{reason: ReasonInvalidSide, field: FieldSide, detail: strconv.Quote(s)}
	}
	return side, nil
}

// cleanNumber folds full-width digits and strips currency marks and
// thousands separators.
func cleanNumber(s string) string {
	s = strings.TrimSpace(width.Fold.String(s))
	return strings.NewReplacer(",", "", "¥", "", "$", "", " ", "", "+", "").Replace(s)
}

// parseNumber returns ok=false for an empty value. NaN and Inf are malformed.
func parseNumber(field, s string) (float64, bool, *fieldError) {
	s = cleanNumber(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, &fieldError{reason: ReasonMalformedNumber, field: field, detail: strconv.Quote(s)}
	}
	return v, true, nil
}

// parsePrice requires a finite positive value when present.
func parsePrice(field, s string) (float64, bool, *fieldError) {
	s = cleanNumber(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, &fieldError{reason: ReasonMalformedNumber, field: field, detail: strconv.Quote(s)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, &fieldError{reason: ReasonNonFinitePrice, field: field, detail: strconv.Quote(s)}
	}
	if v <= 0 {
		return 0, false, &fieldError{reason: ReasonInvalidPrice, field: field, detail: "must be positive"}
	}
	return v, true, nil
}

// optionalPrice treats empty and zero as "not set", as broker exports write 0 for no stop.
func optionalPrice(field, s string) (*float64, *fieldError) {
	c := cleanNumber(s)
	if c == "" {
		return nil, nil
	}
	if v, err := strconv.ParseFloat(c, 64); err == nil && v == 0 {
		return nil, nil
	}
	v, ok, ferr := parsePrice(field, s)
	if ferr != nil || !ok {
		return nil, ferr
	}
	return &v, nil
}

// parseTime accepts RFC 3339 and the common broker layouts. Zone-less
// values are read in the normalizer's location. Empty means unknown.
func (n *Normalizer) parseTime(field, s string) (time.Time, *fieldError) {
	s = strings.TrimSpace(width.Fold.String(s))
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, n.opts.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &fieldError{reason: ReasonMalformedDate, field: field, detail: strconv.Quote(s)}
}
