package reporting

import (
	"fmt"
	"strings"

	"trade-journal-lab/internal/domain"
)

const csvHeader = "dimension,bucket,label,trades,wins,losses,win_rate,net_profit,profit_factor,expectancy,max_drawdown,max_loss_streak\n"

// RenderCSV renders one breakdown as CSV string.
func RenderCSV(b domain.Breakdown) string {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	writeCSVRows(&sb, b)
	return sb.String()
}

// RenderBreakdownsCSV renders several breakdowns under one header.
func RenderBreakdownsCSV(breakdowns []domain.Breakdown) string {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	for _, b := range breakdowns {
		writeCSVRows(&sb, b)
	}
	return sb.String()
}

func writeCSVRows(sb *strings.Builder, b domain.Breakdown) {
	for _, bucket := range b.Buckets {
		r := bucket.Result
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%d,%s,%s,%s,%s,%s,%d\n",
			b.Dimension,
			bucket.Key,
			bucket.Label,
			r.Count,
			r.Wins,
			r.Losses,
			rate(r.WinRate),
			money(r.NetProfit),
			ratio(r.ProfitFactor),
			money(r.Expectancy),
			money(r.MaxDrawdown),
			r.MaxLossStreak,
		))
	}
}

// RenderEquityCSV renders the equity curve of a report.
func RenderEquityCSV(r *Report) string {
	var sb strings.Builder
	sb.WriteString("trade_id,close_time,profit,cumulative,peak,drawdown\n")
	for _, p := range r.Equity {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s\n",
			p.TradeID,
			p.CloseTime.UTC().Format("2006-01-02T15:04:05Z"),
			money(p.Profit),
			money(p.Cumulative),
			money(p.Peak),
			money(p.Drawdown),
		))
	}
	return sb.String()
}
