// Package main writes the trade journal report: a markdown summary, the
// breakdown tables and the equity curve as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"trade-journal-lab/internal/app"
	"trade-journal-lab/internal/config"
	"trade-journal-lab/internal/filter"
	"trade-journal-lab/internal/logging"
	"trade-journal-lab/internal/reporting"
)

// Output file names.
const (
	reportFile     = "REPORT.md"
	breakdownsFile = "breakdowns.csv"
	equityFile     = "equity.csv"
)

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	query := flag.String("query", "", "Filter query, e.g. \"symbol=USDJPY&session=london\"")
	persist := flag.Bool("persist", false, "Store the breakdowns as a snapshot")
	batchID := flag.String("batch-id", "manual", "Batch id recorded with a persisted snapshot")
	flag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	criteria, err := filter.ParseQuery(*query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -query: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open stores", zap.Error(err))
	}
	defer a.Close()

	if err := a.SeedFixtures(ctx); err != nil {
		logger.Fatal("seed fixtures", zap.Error(err))
	}

	report, err := a.ReportGenerator().Generate(ctx, criteria)
	if err != nil {
		logger.Fatal("generate report", zap.Error(err))
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatal("create output directory", zap.Error(err))
	}
	files := map[string]string{
		reportFile:     reporting.RenderMarkdown(report),
		breakdownsFile: reporting.RenderBreakdownsCSV(report.Breakdowns),
		equityFile:     reporting.RenderEquityCSV(report),
	}
	for name, content := range files {
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			logger.Fatal("write output", zap.String("file", path), zap.Error(err))
		}
		logger.Info("wrote", zap.String("file", path))
	}

	if *persist {
		if !a.Stores.SnapshotsPersistent {
			logger.Warn("no clickhouse dsn configured, snapshot kept in memory only")
		}
		id, err := a.SnapshotWriter().Persist(ctx, *batchID, report)
		if err != nil {
			logger.Fatal("persist snapshot", zap.Error(err))
		}
		logger.Info("snapshot stored", zap.String("snapshot_id", id))
	}

	fmt.Printf("Report for %d of %d trades written to %s\n",
		report.DataSummary.MatchedTrades, report.DataSummary.TotalTrades, *outputDir)
}
