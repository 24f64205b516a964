package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvdash/internal/config"
	"github.com/JonMunkholm/csvdash/internal/dashboard"
	"github.com/JonMunkholm/csvdash/internal/logging"
	"github.com/JonMunkholm/csvdash/internal/session"
	"github.com/JonMunkholm/csvdash/internal/web"
)

// sweepInterval is how often expired sessions are dropped.
const sweepInterval = 10 * time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"session_store", cfg.Session.Store,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"cache_size", cfg.Cache.Size,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, &cfg.Session)
	if err != nil {
		return err
	}
	defer closeStore()

	service, err := dashboard.NewService(store, dashboard.Options{
		CacheSize:     cfg.Cache.Size,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		MaxFileSize:   cfg.Upload.MaxFileSize,
		Progress: dashboard.Progress{
			Steps:     cfg.Progress.Steps,
			StepDelay: cfg.Progress.StepDelay,
		},
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	server := web.NewServer(service, cfg)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr())
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if st := service.Status(); st.Ingest.Active > 0 {
		slog.Info("waiting for uploads to complete", "active", st.Ingest.Active)
		if err := service.WaitForIngests(shutdownCtx); err != nil {
			slog.Warn("uploads did not complete in time", "error", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openStore builds the configured session store and starts its sweeper,
// which stops with ctx.
func openStore(ctx context.Context, cfg *config.SessionConfig) (session.Store, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse database URL: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.MaxConns)

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}

		store := session.NewPostgresStore(pool, cfg.TTL)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		go store.StartSweeper(ctx, sweepInterval)
		slog.Info("using postgres session store")
		return store, pool.Close, nil

	default:
		store := session.NewMemoryStore(cfg.TTL)
		go store.StartSweeper(ctx, sweepInterval)
		return store, func() {}, nil
	}
}
