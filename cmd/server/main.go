// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/quizforge/internal/api"
	"github.com/tomtom215/quizforge/internal/config"
	"github.com/tomtom215/quizforge/internal/logging"
	"github.com/tomtom215/quizforge/internal/metrics"
	"github.com/tomtom215/quizforge/internal/pool"
	"github.com/tomtom215/quizforge/internal/quiz/engine"
	"github.com/tomtom215/quizforge/internal/quiz/filters"
	"github.com/tomtom215/quizforge/internal/supervisor"
	"github.com/tomtom215/quizforge/internal/supervisor/services"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	started := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.SetAppInfo(version, runtime.Version())

	logging.Info().
		Str("version", version).
		Str("masterlist", cfg.Pool.MasterListPath).
		Bool("imports_enabled", cfg.Pool.ImportURL != "").
		Bool("in_memory_store", cfg.Storage.InMemory).
		Msg("Starting quizforge")

	if err := run(cfg, started); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config, started time.Time) error {
	db, err := pool.OpenBadger(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open saved list store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing saved list store")
		}
	}()
	store := pool.NewBadgerListStore(db)

	importClient := pool.NewHTTPListClient(&cfg.Pool, logging.WithComponent("list-import"))
	builder := pool.NewBuilder(
		pool.NewFileMasterList(cfg.Pool.MasterListPath),
		pool.NewSavedListResolver(store, importClient),
		importClient,
		pool.Options{
			FetchTimeout:  cfg.Pool.FetchTimeout,
			MaxConcurrent: cfg.Pool.MaxConcurrentFetches,
		},
		logging.Logger(),
	)
	eng := engine.NewEngine(&cfg.Engine, filters.DefaultRegistry(), builder, logging.Logger())

	handler := api.NewHandler(eng, store, cfg, version)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Badger refuses value log GC in memory mode.
	if !cfg.Storage.InMemory {
		tree.AddStorageService(services.NewBadgerGCService(db, cfg.Storage.GCInterval, cfg.Storage.GCDiscardRatio, logging.Logger()))
	}
	tree.AddStorageService(services.NewUptimeService(started, 15*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}
