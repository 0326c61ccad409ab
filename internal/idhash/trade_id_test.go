package idhash

import (
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
)

func TestComputeTradeID(t *testing.T) {
	open := time.Date(2024, 1, 8, 9, 15, 0, 0, time.UTC)
	closeAt := open.Add(2 * time.Hour)

	tests := []struct {
		name       string
		instrument string
		side       string
		open       time.Time
		openPrice  float64
		closePrice float64
		volume     float64
	}{
		{
			name:       "jpy long",
			instrument: "USDJPY",
			side:       "LONG",
			open:       open,
			openPrice:  150.123,
			closePrice: 150.456,
			volume:     0.1,
		},
		{
			name:       "missing open time",
			instrument: "EURUSD",
			side:       "SHORT",
			openPrice:  1.0851,
			closePrice: 1.0832,
			volume:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.instrument, tt.side, tt.open, closeAt, tt.openPrice, tt.closePrice, tt.volume)

			if !strings.HasPrefix(got, TradeIDPrefix) {
				t.Errorf("ComputeTradeID() = %s, want prefix %s", got, TradeIDPrefix)
			}
			raw, err := base58.Decode(strings.TrimPrefix(got, TradeIDPrefix))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(raw) != 32 {
				t.Errorf("decoded hash length = %d, want 32", len(raw))
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeTradeID(tt.instrument, tt.side, tt.open, closeAt, tt.openPrice, tt.closePrice, tt.volume)
			if got != got2 {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	open := time.Date(2024, 1, 8, 9, 15, 0, 0, time.UTC)
	closeAt := open.Add(time.Hour)

	base := ComputeTradeID("USDJPY", "LONG", open, closeAt, 150, 151, 1)
	variants := []string{
		ComputeTradeID("EURJPY", "LONG", open, closeAt, 150, 151, 1),
		ComputeTradeID("USDJPY", "SHORT", open, closeAt, 150, 151, 1),
		ComputeTradeID("USDJPY", "LONG", open.Add(time.Millisecond), closeAt, 150, 151, 1),
		ComputeTradeID("USDJPY", "LONG", open, closeAt, 150, 151.001, 1),
		ComputeTradeID("USDJPY", "LONG", open, closeAt, 150, 151, 2),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base id %s", i, base)
		}
	}
}

func TestComputeSnapshotID(t *testing.T) {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := ComputeSnapshotID("batch-1", "side=LONG", at)
	b := ComputeSnapshotID("batch-1", "side=LONG", at)
	c := ComputeSnapshotID("batch-1", "side=SHORT", at)

	if len(a) != 64 {
		t.Errorf("length = %d, want 64", len(a))
	}
	if a != b {
		t.Errorf("not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Errorf("different filters produced the same id")
	}
}
