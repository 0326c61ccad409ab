package reporting

import (
	"fmt"
	"strings"
	"time"

	"trade-journal-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Trade Journal Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	query := r.Query
	if query == "" {
		query = "(none)"
	}
	sb.WriteString(fmt.Sprintf("Timezone: %s | Filters: %s\n\n", r.Timezone, query))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.DataSummary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Matched Trades | %d |\n", r.DataSummary.MatchedTrades))
	sb.WriteString(fmt.Sprintf("| Instruments | %d |\n", r.DataSummary.Instruments))
	sb.WriteString(fmt.Sprintf("| Date Range Start | %s |\n", formatDate(r.DataSummary.DateRangeStart)))
	sb.WriteString(fmt.Sprintf("| Date Range End | %s |\n", formatDate(r.DataSummary.DateRangeEnd)))
	sb.WriteString("\n")

	// Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	if s.Count == 0 {
		sb.WriteString("No trades match the current filters.\n\n")
	} else {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Trades | %d (%d W / %d L) |\n", s.Count, s.Wins, s.Losses))
		sb.WriteString(fmt.Sprintf("| Win Rate | %s |\n", rate(s.WinRate)))
		sb.WriteString(fmt.Sprintf("| Net Profit | %s |\n", money(s.NetProfit)))
		sb.WriteString(fmt.Sprintf("| Net After Costs | %s |\n", money(s.NetAfterCosts)))
		sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", ratio(s.ProfitFactor)))
		sb.WriteString(fmt.Sprintf("| Expectancy | %s |\n", money(s.Expectancy)))
		sb.WriteString(fmt.Sprintf("| Avg Win / Avg Loss | %s / %s |\n", money(s.AvgWin), money(s.AvgLoss)))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %s |\n", money(s.MaxDrawdown)))
		sb.WriteString(fmt.Sprintf("| Recovery Factor | %s |\n", ratio(s.RecoveryFactor)))
		sb.WriteString(fmt.Sprintf("| Streaks (W / L) | %d / %d |\n", s.MaxWinStreak, s.MaxLossStreak))
		sb.WriteString(fmt.Sprintf("| Sharpe | %s |\n", rate(s.Sharpe)))
		sb.WriteString(fmt.Sprintf("| Total Pips | %s |\n", rate(s.TotalPips)))
		sb.WriteString("\n")
	}

	// Highlights
	sb.WriteString("## Best and Worst\n\n")
	sb.WriteString("| Dimension | Best | Net | Worst | Net |\n")
	sb.WriteString("|-----------|------|-----|-------|-----|\n")
	for _, h := range r.Highlights {
		if h.Best == nil {
			sb.WriteString(fmt.Sprintf("| %s | - | - | - | - |\n", h.Dimension))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			h.Dimension, h.Best.Label, money(h.Best.Result.NetProfit),
			h.Worst.Label, money(h.Worst.Result.NetProfit)))
	}
	sb.WriteString("\n")

	// Breakdowns
	for _, b := range r.Breakdowns {
		writeBreakdown(&sb, b)
	}

	return sb.String()
}

func writeBreakdown(sb *strings.Builder, b domain.Breakdown) {
	sb.WriteString(fmt.Sprintf("## By %s\n\n", b.Dimension))
	if len(b.Buckets) == 0 {
		sb.WriteString("No data.\n\n")
		return
	}
	sb.WriteString("| Bucket | Trades | WinRate | Net | PF | Expectancy | MaxDD |\n")
	sb.WriteString("|--------|--------|---------|-----|----|------------|-------|\n")
	for _, bucket := range b.Buckets {
		r := bucket.Result
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s |\n",
			bucket.Label, r.Count, rate(r.WinRate), money(r.NetProfit),
			ratio(r.ProfitFactor), money(r.Expectancy), money(r.MaxDrawdown)))
	}
	if b.Excluded > 0 {
		sb.WriteString(fmt.Sprintf("\n%d trade(s) excluded: missing data for this dimension.\n", b.Excluded))
	}
	sb.WriteString("\n")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
