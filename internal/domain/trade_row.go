package domain

import "time"

// TradeRow is the persisted shape of a trade as stored in the trades table.
// Column names follow the broker export the journal was first built around
// (item/size rather than instrument/volume).
type TradeRow struct {
	Ticket     string
	Item       string
	Side       string
	Size       float64
	OpenTime   *time.Time
	OpenPrice  *float64
	CloseTime  time.Time
	ClosePrice *float64
	Commission *float64
	Swap       *float64
	Profit     *float64
	Pips       *float64
	SL         *float64
	TP         *float64
	Setup      string
	Comment    string
	BatchID    string
}

// RowFromTrade converts a canonical trade back into its persisted shape.
func RowFromTrade(t *Trade) *TradeRow {
	row := &TradeRow{
		Ticket:     t.ID,
		Item:       t.Instrument,
		Side:       string(t.Side),
		Size:       t.Volume,
		CloseTime:  t.CloseTime,
		OpenPrice:  floatPtr(t.OpenPrice),
		ClosePrice: floatPtr(t.ClosePrice),
		Commission: floatPtr(t.Commission),
		Swap:       floatPtr(t.Swap),
		Profit:     floatPtr(t.Profit),
		Pips:       floatPtr(t.Pips),
		SL:         t.StopPrice,
		TP:         t.TargetPrice,
		Setup:      t.Tag,
		Comment:    t.Comment,
		BatchID:    t.BatchID,
	}
	if !t.OpenTime.IsZero() {
		open := t.OpenTime
		row.OpenTime = &open
	}
	return row
}

func floatPtr(v float64) *float64 {
	return &v
}
