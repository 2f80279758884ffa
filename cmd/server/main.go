// Package main runs the holder analytics service:
// - HTTP API (gin): envelope-wrapped dashboard reads, exports, archive lookups
// - WebSocket hub: recorder refresh notifications
// - Recorder (scheduled): chart series and rich-list snapshots into the archive
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"holder-analytics/internal/analyticsapi"
	"holder-analytics/internal/config"
	"holder-analytics/internal/httpapi"
	"holder-analytics/internal/logging"
	"holder-analytics/internal/querycache"
	"holder-analytics/internal/recorder"
	"holder-analytics/internal/storage"
	chstore "holder-analytics/internal/storage/clickhouse"
	"holder-analytics/internal/storage/memory"
	"holder-analytics/internal/storage/migrations"
	pgstore "holder-analytics/internal/storage/postgres"
)

// stores holds the archive backends.
type stores struct {
	series    storage.SeriesStore
	snapshots storage.HolderSnapshotStore
}

func main() {
	cfg, err := config.Load("server", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) (runErr error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer func() { runErr = withCleanup(runErr, cleanup) }()

	api := analyticsapi.NewClient(cfg.API.BaseURL,
		analyticsapi.WithTimeout(cfg.API.Timeout),
		analyticsapi.WithBearerToken(cfg.API.Token),
		analyticsapi.WithAPIKey(cfg.API.Key),
		analyticsapi.WithLogger(logger),
	)

	cache, err := querycache.New(cfg.Cache.Size,
		querycache.WithStaleAge(cfg.Cache.StaleAge),
		querycache.WithFetchTimeout(cfg.API.Timeout),
	)
	if err != nil {
		return fmt.Errorf("create query cache: %w", err)
	}

	hub := httpapi.NewHub(httpapi.DefaultHubConfig(), logger)
	go hub.Run(ctx)

	rec := recorder.New(recorder.Options{
		Source:        recorder.APISource{Client: api},
		SeriesStore:   st.series,
		SnapshotStore: st.snapshots,
		Sections:      cfg.Recorder.Sections,
		Range:         cfg.Recorder.Range,
		RichListTop:   cfg.Recorder.RichListTop,
		Cache:         cache,
		Notifier:      hub,
		Logger:        logger,
	})

	gin.SetMode(cfg.Server.Mode)
	router := httpapi.NewRouter(httpapi.Options{
		API:       api,
		Cache:     cache,
		Series:    st.series,
		Snapshots: st.snapshots,
		Recorder:  rec,
		Hub:       hub,
		Chart: httpapi.ChartDefaults{
			Mode:      cfg.Chart.Mode,
			MaxPoints: cfg.Chart.MaxPoints,
			TopN:      cfg.Chart.TopN,
		},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", cfg.Server.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.Recorder.Enabled {
		go func() {
			err := rec.Run(ctx, cfg.Recorder.Interval)
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("recorder: %w", err)
			}
		}()
	} else {
		logger.Info("recorder disabled")
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		logger.Error("component failed, shutting down", zap.Error(runErr))
	}
	cancel()

	done := make(chan struct{})
	go func() {
		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-done:
		}
	}()
	defer close(done)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	return runErr
}

// withCleanup runs cleanup and joins its error onto err.
func withCleanup(err error, cleanup func() error) error {
	if cerr := cleanup(); cerr != nil {
		return multierr.Append(err, fmt.Errorf("close stores: %w", cerr))
	}
	return err
}

// createStores opens the archive backends. PostgreSQL holds snapshots and
// ClickHouse holds chart series; both are migrated on startup.
func createStores(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*stores, func() error, error) {
	if cfg.UseMemory {
		logger.Info("using in-memory archive")
		return &stores{
			series:    memory.NewSeriesStore(),
			snapshots: memory.NewHolderSnapshotStore(),
		}, func() error { return nil }, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, pgstore.WithMaxConns(cfg.MaxConns))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	logger.Info("postgres migrated", zap.Strings("files", applied))

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}
	logger.Info("clickhouse migrated")

	cleanup := func() error {
		pool.Close()
		return chConn.Close()
	}
	return &stores{
		series:    chstore.NewSeriesStore(chConn),
		snapshots: pgstore.NewHolderSnapshotStore(pool),
	}, cleanup, nil
}
