package normalization

import (
	"strconv"
	"time"

	"trade-journal-lab/internal/domain"
)

// FromRow adapts a persisted trades-table row into a raw record.
// line is the row's position in the result set.
func FromRow(row *domain.TradeRow, line int) RawRecord {
	rec := RawRecord{
		Source:     SourceRow,
		Line:       line,
		BatchID:    row.BatchID,
		Ticket:     row.Ticket,
		Instrument: row.Item,
		Side:       row.Side,
		Volume:     formatFloat(row.Size),
		OpenPrice:  formatOptional(row.OpenPrice),
		ClosePrice: formatOptional(row.ClosePrice),
		Stop:       formatOptional(row.SL),
		Target:     formatOptional(row.TP),
		Commission: formatOptional(row.Commission),
		Swap:       formatOptional(row.Swap),
		Profit:     formatOptional(row.Profit),
		Pips:       formatOptional(row.Pips),
		Tag:        row.Setup,
		Comment:    row.Comment,
	}
	if row.OpenTime != nil && !row.OpenTime.IsZero() {
		rec.OpenTime = row.OpenTime.Format(time.RFC3339Nano)
	}
	if !row.CloseTime.IsZero() {
		rec.CloseTime = row.CloseTime.Format(time.RFC3339Nano)
	}
	return rec
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
