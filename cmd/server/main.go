// Package main runs the trade journal API: imports, the debounced filter
// pipeline, live summaries over websocket and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"trade-journal-lab/internal/api"
	"trade-journal-lab/internal/app"
	"trade-journal-lab/internal/config"
	"trade-journal-lab/internal/dashboard"
	"trade-journal-lab/internal/filter"
	"trade-journal-lab/internal/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.SeedFixtures(ctx); err != nil {
		return fmt.Errorf("seed fixtures: %w", err)
	}

	engine := dashboard.New(a.Ingester, a.Location, logger)
	defer engine.Close()

	hub := api.NewHub(nil, logger)
	srv := api.NewServer(engine, a.Ingester, hub, logger)
	defer srv.Close()

	pipeline := filter.NewPipeline(filter.Options{
		Delay:     cfg.DebounceDelay,
		Scheduler: filter.RealScheduler{},
		Validate:  engine.ValidateFilters,
		Sink:      srv,
		Notifier:  srv,
		Logger:    logger,
	})
	defer pipeline.Close()

	engine.Bind(pipeline)
	srv.Attach(pipeline)

	if err := engine.Reload(ctx); err != nil {
		return fmt.Errorf("load trades: %w", err)
	}
	logger.Info("engine ready",
		zap.Int("trades", engine.Summary().Total),
		zap.String("timezone", a.Location.String()),
		zap.Duration("debounce", cfg.DebounceDelay),
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-sigCh:
		logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
	}

	// A second signal skips the graceful drain.
	go func() {
		sig := <-sigCh
		logger.Warn("received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
