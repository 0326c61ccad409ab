// Package normalization turns raw trade records from any source into
// canonical domain.Trade values.
package normalization

import (
	"fmt"
	"strings"
)

// Record sources.
const (
	SourceTable = "table"
	SourceRow   = "row"
)

// Field names of a RawRecord, also used in rejection reports.
const (
	FieldTicket     = "ticket"
	FieldInstrument = "instrument"
	FieldSide       = "side"
	FieldVolume     = "volume"
	FieldOpenTime   = "open_time"
	FieldOpenPrice  = "open_price"
	FieldCloseTime  = "close_time"
	FieldClosePrice = "close_price"
	FieldStop       = "stop"
	FieldTarget     = "target"
	FieldCommission = "commission"
	FieldSwap       = "swap"
	FieldProfit     = "profit"
	FieldPips       = "pips"
	FieldTag        = "tag"
	FieldComment    = "comment"
)

// RawRecord is the common intermediate shape every source adapter produces.
// Values are untrimmed text; an empty string means the source had no value.
type RawRecord struct {
	Source  string
	Line    int    // 1-based line in the source, 0 when not applicable
	BatchID string // import batch the record belongs to

	Ticket     string
	Instrument string
	Side       string
	Volume     string
	OpenTime   string
	OpenPrice  string
	CloseTime  string
	ClosePrice string
	Stop       string
	Target     string
	Commission string
	Swap       string
	Profit     string
	Pips       string
	Tag        string
	Comment    string
}

// set assigns value to the named field. Unknown names are ignored.
func (r *RawRecord) set(field, value string) {
	switch field {
	case FieldTicket:
		r.Ticket = value
	case FieldInstrument:
		r.Instrument = value
	case FieldSide:
		r.Side = value
	case FieldVolume:
		r.Volume = value
	case FieldOpenTime:
		r.OpenTime = value
	case FieldOpenPrice:
		r.OpenPrice = value
	case FieldCloseTime:
		r.CloseTime = value
	case FieldClosePrice:
		r.ClosePrice = value
	case FieldStop:
		r.Stop = value
	case FieldTarget:
		r.Target = value
	case FieldCommission:
		r.Commission = value
	case FieldSwap:
		r.Swap = value
	case FieldProfit:
		r.Profit = value
	case FieldPips:
		r.Pips = value
	case FieldTag:
		r.Tag = value
	case FieldComment:
		r.Comment = value
	}
}

// isBlank reports whether every field is empty.
func (r *RawRecord) isBlank() bool {
	for _, v := range []string{
		r.Ticket, r.Instrument, r.Side, r.Volume, r.OpenTime, r.OpenPrice,
		r.CloseTime, r.ClosePrice, r.Stop, r.Target, r.Commission, r.Swap,
		r.Profit, r.Pips, r.Tag, r.Comment,
	} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Reason classifies why a record was rejected.
type Reason string

const (
	ReasonMissingField    Reason = "missing_field"
	ReasonMalformedDate   Reason = "malformed_date"
	ReasonMalformedNumber Reason = "malformed_number"
	ReasonNonFinitePrice  Reason = "non_finite_price"
	ReasonInvalidPrice    Reason = "invalid_price"
	ReasonInvalidVolume   Reason = "invalid_volume"
	ReasonInvalidSide     Reason = "invalid_side"
	ReasonCloseBeforeOpen Reason = "close_before_open"
	ReasonDuplicateID     Reason = "duplicate_id"
)

// Rejection is the structured reason a record was skipped.
type Rejection struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Ticket string `json:"ticket,omitempty"`
	Reason Reason `json:"reason"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (r Rejection) Error() string {
	msg := fmt.Sprintf("%s line %d: %s", r.Source, r.Line, r.Reason)
	if r.Field != "" {
		msg += " (" + r.Field + ")"
	}
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	return msg
}

// Warning names a non-fatal issue found on an accepted record.
type Warning string

const (
	WarnPipsProfitSignMismatch Warning = "pips_profit_sign_mismatch"
	WarnProfitDerived          Warning = "profit_derived"
	WarnSwapDerived            Warning = "swap_derived"
	WarnCloseTimeFromOpen      Warning = "close_time_from_open"
)
