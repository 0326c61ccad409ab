// Package app wires configuration, storage and the engine components shared
// by the command-line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trade-journal-lab/internal/config"
	"trade-journal-lab/internal/fixtures"
	"trade-journal-lab/internal/metrics"
	"trade-journal-lab/internal/normalization"
	"trade-journal-lab/internal/reporting"
	"trade-journal-lab/internal/storage"
	chstore "trade-journal-lab/internal/storage/clickhouse"
	"trade-journal-lab/internal/storage/memory"
	"trade-journal-lab/internal/storage/migrations"
	pgstore "trade-journal-lab/internal/storage/postgres"
)

// Stores holds all storage implementations.
type Stores struct {
	Trades    storage.TradeStore
	Batches   storage.ImportBatchStore
	Snapshots storage.BreakdownSnapshotStore

	// SnapshotsPersistent is false when breakdown snapshots only live in memory.
	SnapshotsPersistent bool

	closers []func()
}

// Close releases every connection in reverse opening order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStores creates the stores selected by cfg and applies migrations.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stores{}

	switch cfg.Storage.Mode {
	case config.StoragePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		s.Trades = pgstore.NewTradeStore(pool)
		s.Batches = pgstore.NewImportBatchStore(pool)
		logger.Info("using postgres trade store")
	default:
		s.Trades = memory.NewTradeStore()
		s.Batches = memory.NewImportBatchStore()
		logger.Info("using in-memory trade store")
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.Snapshots = chstore.NewBreakdownSnapshotStore(conn)
		s.SnapshotsPersistent = true
		logger.Info("using clickhouse snapshot store")
	} else {
		s.Snapshots = memory.NewBreakdownSnapshotStore()
	}
	return s, nil
}

// App bundles the components built from one configuration.
type App struct {
	Config   *config.Config
	Location *time.Location
	Logger   *zap.Logger
	Stores   *Stores
	Ingester *normalization.Ingester
}

// New opens the stores and builds the ingester.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	stores, err := OpenStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	normalizer := normalization.NewNormalizer(NormalizerOptions(cfg, loc))
	return &App{
		Config:   cfg,
		Location: loc,
		Logger:   logger,
		Stores:   stores,
		Ingester: normalization.NewIngester(normalizer, stores.Trades, stores.Batches, logger),
	}, nil
}

// NormalizerOptions maps import settings onto normalizer options.
func NormalizerOptions(cfg *config.Config, loc *time.Location) normalization.Options {
	return normalization.Options{
		Location:            loc,
		DeriveMissingProfit: cfg.Import.DeriveMissingProfit,
		DeriveMissingSwap:   cfg.Import.DeriveMissingSwap,
	}
}

// Close releases the stores.
func (a *App) Close() {
	a.Stores.Close()
}

// SeedFixtures loads demo trades when fixtures are enabled. Seeding a store
// that already holds them is not an error.
func (a *App) SeedFixtures(ctx context.Context) error {
	if !a.Config.Fixtures.Enabled {
		return nil
	}
	n, err := fixtures.Load(ctx, a.Stores.Trades, fixtures.Options{
		Count: a.Config.Fixtures.Count,
		Seed:  a.Config.Fixtures.Seed,
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		a.Logger.Info("fixtures already loaded")
		return nil
	}
	if err != nil {
		return err
	}
	a.Logger.Info("fixtures loaded", zap.Int("trades", n), zap.Int64("seed", a.Config.Fixtures.Seed))
	return nil
}

// Aggregator builds a metrics aggregator over the persisted trades.
func (a *App) Aggregator() *metrics.Aggregator {
	return metrics.NewAggregator(a.Ingester, a.Location, a.Logger)
}

// ReportGenerator builds a report generator over the persisted trades.
func (a *App) ReportGenerator() *reporting.Generator {
	return reporting.NewGenerator(a.Ingester, a.Location, a.Logger)
}

// SnapshotWriter builds a writer over the configured snapshot store.
func (a *App) SnapshotWriter() *reporting.SnapshotWriter {
	return reporting.NewSnapshotWriter(a.Stores.Snapshots, a.Logger)
}
