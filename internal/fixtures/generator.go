// Package fixtures generates deterministic demo trades for an empty journal.
package fixtures

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/formula"
	"trade-journal-lab/internal/segment"
	"trade-journal-lab/internal/storage"
)

// BatchID tags every generated trade.
const BatchID = "fixtures"

// FirstTicket is the ticket of the first generated trade.
const FirstTicket = 101000000

var pairs = []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "EURJPY", "GBPJPY", "BTCUSD"}

var sizes = []float64{0.3, 0.5, 1, 2}

// phase shapes one stretch of the equity curve.
type phase struct {
	until   float64 // fraction of the run where the phase ends
	winRate float64
}

// A rise, a drawdown, a recovery and a late slide.
var phases = []phase{
	{until: 0.30, winRate: 0.58},
	{until: 0.45, winRate: 0.30},
	{until: 0.70, winRate: 0.52},
	{until: 1.00, winRate: 0.45},
}

// Options configures Generate.
type Options struct {
	Count int
	Seed  int64
	Start time.Time // first possible open time; zero means 2024-01-01 UTC
	Days  int       // span open times are spread over; zero means 365
}

// Generate returns opts.Count closed trades in ticket order.
// The same options always produce the same trades.
func Generate(opts Options) []*domain.Trade {
	if opts.Start.IsZero() {
		opts.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.Days <= 0 {
		opts.Days = 365
	}
	rng := rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)^0x9e3779b97f4a7c15))
	tags := segment.Tags()

	trades := make([]*domain.Trade, 0, opts.Count)
	step := time.Duration(opts.Days) * 24 * time.Hour / time.Duration(max(opts.Count, 1))
	for i := 0; i < opts.Count; i++ {
		progress := float64(i) / float64(max(opts.Count, 1))
		instrument := pairs[rng.IntN(len(pairs))]
		side := domain.SideLong
		if rng.IntN(2) == 1 {
			side = domain.SideShort
		}
		volume := sizes[rng.IntN(len(sizes))]

		open := opts.Start.Add(step*time.Duration(i) + time.Duration(rng.IntN(int(step/time.Minute)+1))*time.Minute)
		open = formula.WeekendAdjust(open, instrument)
		hold := time.Duration(30+rng.IntN(271)) * time.Minute
		if rng.Float64() < 0.05 {
			hold += time.Duration(1+rng.IntN(3)) * 24 * time.Hour
		}
		closeAt := formula.WeekendAdjust(open.Add(hold), instrument)

		pips := 5 + rng.Float64()*45
		if rng.Float64() >= winRateAt(progress) {
			pips = -pips * (1 + rng.Float64()*0.4)
		}

		openPrice := basePrice(instrument, rng)
		closePrice := openPrice + side.Sign()*pips/formula.PipMultipliers[domain.ClassifyInstrument(instrument)]

		var commission float64
		if rng.Float64() < 0.3 {
			commission = 12
		}

		t := &domain.Trade{
			ID:         strconv.Itoa(FirstTicket + i),
			Ticket:     strconv.Itoa(FirstTicket + i),
			Instrument: instrument,
			Side:       side,
			Volume:     volume,
			OpenTime:   open,
			CloseTime:  closeAt,
			OpenPrice:  openPrice,
			ClosePrice: closePrice,
			Commission: commission,
			Swap:       formula.Swap(instrument, side, volume, formula.HoldingDays(open, closeAt)),
			Profit:     formula.Profit(instrument, side, volume, openPrice, closePrice),
			Pips:       formula.Pips(instrument, side, openPrice, closePrice),
			Tag:        tags[rng.IntN(len(tags))],
			BatchID:    BatchID,
		}
		if t.Tag == segment.TagUnregistered {
			t.Tag = ""
		}
		trades = append(trades, t)
	}
	return trades
}

func winRateAt(progress float64) float64 {
	for _, p := range phases {
		if progress < p.until {
			return p.winRate
		}
	}
	return phases[len(phases)-1].winRate
}

func basePrice(instrument string, rng *rand.Rand) float64 {
	switch domain.ClassifyInstrument(instrument) {
	case domain.ClassJPY:
		return formula.RoundTo(100+rng.Float64()*60, 3)
	case domain.ClassCrypto:
		return formula.RoundTo(30000+rng.Float64()*40000, 2)
	default:
		return formula.RoundTo(0.6+rng.Float64()*0.9, 5)
	}
}

// Load generates trades and inserts them in one batch.
// Returns storage.ErrDuplicateKey if the store already holds fixture tickets.
func Load(ctx context.Context, store storage.TradeStore, opts Options) (int, error) {
	trades := Generate(opts)
	rows := make([]*domain.TradeRow, len(trades))
	for i, t := range trades {
		rows[i] = domain.RowFromTrade(t)
	}
	if err := store.InsertBulk(ctx, rows); err != nil {
		return 0, fmt.Errorf("insert fixtures: %w", err)
	}
	return len(rows), nil
}
