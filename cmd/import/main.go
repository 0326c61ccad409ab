// Package main imports broker trade history exports into the trade store
// and prints what was accepted and rejected.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"trade-journal-lab/internal/app"
	"trade-journal-lab/internal/config"
	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/logging"
	"trade-journal-lab/internal/metrics"
	"trade-journal-lab/internal/normalization"
)

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	asJSON := flag.Bool("json", false, "Print the import report as JSON")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] FILE...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

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

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open stores", zap.Error(err))
	}
	defer a.Close()

	if cfg.Storage.Mode == config.StorageMemory {
		logger.Warn("memory storage selected, imported trades are discarded on exit")
	}

	failed := false
	for _, path := range flag.Args() {
		rep, err := importFile(ctx, a.Ingester, path)
		if err != nil {
			logger.Error("import failed", zap.String("file", path), zap.Error(err))
			failed = true
			continue
		}
		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				logger.Error("encode report", zap.Error(err))
			}
			continue
		}
		printReport(os.Stdout, rep)
	}

	if !*asJSON {
		printTotals(ctx, a.Aggregator())
	}
	if failed {
		os.Exit(1)
	}
}

func printTotals(ctx context.Context, agg *metrics.Aggregator) {
	res, err := agg.ComputeForFilter(ctx, domain.FilterCriteria{})
	if errors.Is(err, metrics.ErrNoTrades) {
		fmt.Println("Store holds no trades")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing totals: %v\n", err)
		return
	}
	fmt.Printf("Store holds %d trades: net %.2f, win rate %.1f%%, profit factor %s\n",
		res.Count, res.NetProfit, res.WinRate*100, res.ProfitFactor)
}

func importFile(ctx context.Context, ing *normalization.Ingester, path string) (*normalization.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ing.ImportTable(ctx, filepath.Base(path), f)
}

func printReport(w io.Writer, rep *normalization.ImportReport) {
	fmt.Fprintf(w, "%s: %d of %d rows accepted (batch %s)\n", rep.Source, rep.Accepted, rep.Total, rep.BatchID)
	for _, r := range rep.Rejections {
		fmt.Fprintf(w, "  rejected: %s\n", r.Error())
	}
	if len(rep.Warnings) == 0 {
		return
	}
	keys := make([]string, 0, len(rep.Warnings))
	for k := range rep.Warnings {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  warning: %s x%d\n", k, rep.Warnings[normalization.Warning(k)])
	}
}
