package metrics

import (
	"math"
	"sort"

	"trade-journal-lab/internal/domain"
)

// Compute calculates the KPI summary of a trade collection.
// Pure and synchronous: the input slice is not modified and the result
// shares no state with it, so concurrent calls never interfere.
// Order-dependent metrics (MaxDrawdown, streaks) scan trades by CloseTime ASC;
// equal close times keep ingestion order.
func Compute(trades []*domain.Trade) domain.AggregateResult {
	n := len(trades)
	if n == 0 {
		return domain.AggregateResult{}
	}

	sorted := sortChronological(trades)

	profits := make([]float64, n)
	for i, t := range sorted {
		profits[i] = t.Profit
	}

	var (
		grossProfit, grossLoss float64
		wins, negatives        int
		pips, swap, commission float64
		netAfterCosts          float64
	)
	best, worst := profits[0], profits[0]
	for _, t := range sorted {
		switch {
		case t.Profit > 0:
			grossProfit += t.Profit
			wins++
		case t.Profit < 0:
			grossLoss += -t.Profit
			negatives++
		}
		best = math.Max(best, t.Profit)
		worst = math.Min(worst, t.Profit)
		pips += t.Pips
		swap += t.Swap
		commission += t.Commission
		netAfterCosts += t.NetProfit()
	}

	net := grossProfit - grossLoss
	winRate := computeWinRate(wins, n)
	avgWin := computeAverage(grossProfit, wins)
	avgLoss := computeAverage(grossLoss, negatives)
	mean := computeMean(profits)
	stddev := computeStddev(profits, mean)
	maxDrawdown := computeMaxDrawdown(profits)
	winStreak, lossStreak := computeStreaks(profits)

	return domain.AggregateResult{
		// Counts
		Count:       n,
		GrossProfit: grossProfit,
		GrossLoss:   grossLoss,
		NetProfit:   net,
		Wins:        wins,
		Losses:      n - wins,

		// Ratios
		WinRate:      winRate,
		ProfitFactor: domain.NewRatio(grossProfit, grossLoss),
		AvgProfit:    mean,
		AvgWin:       avgWin,
		AvgLoss:      avgLoss,
		Expectancy:   computeExpectancy(winRate, avgWin, avgLoss),

		// Order-dependent
		MaxDrawdown:    maxDrawdown,
		MaxWinStreak:   winStreak,
		MaxLossStreak:  lossStreak,
		RecoveryFactor: domain.NewRatio(net, maxDrawdown),

		// Dispersion
		StdDev:    stddev,
		Sharpe:    computeSharpe(mean, stddev, n),
		RMultiple: computeRMultiple(mean, avgLoss),

		// Costs
		TotalPips:       pips,
		TotalSwap:       swap,
		TotalCommission: commission,
		NetAfterCosts:   netAfterCosts,

		BestTrade:         best,
		WorstTrade:        worst,
		AvgHoldingMinutes: computeAvgHoldingMinutes(sorted),
		AvgRiskReward:     computeAvgRiskReward(sorted),
	}
}

// sortChronological returns a copy of trades stably sorted by exit time ASC.
// Trades without any instant keep their relative order after the rest.
func sortChronological(trades []*domain.Trade) []*domain.Trade {
	sorted := make([]*domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].ExitTime(), sorted[j].ExitTime()
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Before(b)
	})
	return sorted
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeAverage returns sum/count, 0 for an empty subset.
func computeAverage(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// computeExpectancy = winRate × avgWin − (1 − winRate) × avgLoss.
// avgLoss is a magnitude.
func computeExpectancy(winRate, avgWin, avgLoss float64) float64 {
	return winRate*avgWin - (1-winRate)*avgLoss
}

// computeMean calculates arithmetic mean of outcomes.
func computeMean(outcomes []float64) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range outcomes {
		sum += o
	}
	return sum / float64(len(outcomes))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(outcomes []float64, mean float64) float64 {
	n := len(outcomes)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	sumSq := 0.0
	for _, o := range outcomes {
		diff := o - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computeSharpe returns mean/stddev, 0 when undefined.
func computeSharpe(mean, stddev float64, n int) float64 {
	if n < 2 || stddev == 0 {
		return 0
	}
	return mean / stddev
}

// computeRMultiple expresses the average trade in units of the average loss.
func computeRMultiple(mean, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 0
	}
	return mean / avgLoss
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative outcomes.
// max_drawdown = MAX(peak_cumulative - trough_cumulative)
// Equity starts at 0, so an opening loss is already a drawdown.
// Outcomes must be in chronological order.
func computeMaxDrawdown(outcomes []float64) float64 {
	if len(outcomes) == 0 {
		return 0
	}

	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, o := range outcomes {
		cumulative += o
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeStreaks finds the longest runs of outcome > 0 and outcome <= 0.
// A zero outcome extends a losing run.
// Outcomes must be in chronological order.
func computeStreaks(outcomes []float64) (maxWin, maxLoss int) {
	curWin, curLoss := 0, 0
	for _, o := range outcomes {
		if o > 0 {
			curWin++
			curLoss = 0
			if curWin > maxWin {
				maxWin = curWin
			}
		} else {
			curLoss++
			curWin = 0
			if curLoss > maxLoss {
				maxLoss = curLoss
			}
		}
	}
	return maxWin, maxLoss
}

// computeAvgHoldingMinutes averages holding time over trades with a known open time.
func computeAvgHoldingMinutes(trades []*domain.Trade) float64 {
	total := 0.0
	n := 0
	for _, t := range trades {
		d, ok := t.HoldingDuration()
		if !ok {
			continue
		}
		total += d.Minutes()
		n++
	}
	return computeAverage(total, n)
}

// computeAvgRiskReward averages planned reward/risk over trades with both levels.
func computeAvgRiskReward(trades []*domain.Trade) float64 {
	total := 0.0
	n := 0
	for _, t := range trades {
		rr, ok := t.RiskReward()
		if !ok {
			continue
		}
		total += rr
		n++
	}
	return computeAverage(total, n)
}
