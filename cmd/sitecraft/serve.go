// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"sitecraft/internal/cache"
	"sitecraft/internal/config"
	"sitecraft/internal/database"
	"sitecraft/internal/generate"
	"sitecraft/internal/handlers"
	"sitecraft/internal/middleware"
	"sitecraft/internal/router"
	"sitecraft/internal/storage"
	"sitecraft/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server.

PostgreSQL, Valkey and S3 storage are optional. Without PostgreSQL projects
cannot be saved and token billing is off; without Valkey the rate limiter
runs in memory; without S3 extracted images are stored inline.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	// PostgreSQL: persistence and billing.
	var (
		db       *sql.DB
		ledger   generate.Ledger
		projects handlers.ProjectStore
	)
	db, err = database.Connect(cfg.DSN())
	if err != nil {
		slog.Warn("database unavailable, project saving and billing disabled", "error", err)
	} else {
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		ledger = store.NewLedger(db)
	}

	// S3-compatible object storage for binary project files.
	if db != nil {
		storageClient, err := storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3BucketPublic, cfg.S3PublicURL,
		)
		if err != nil {
			return fmt.Errorf("initialize s3 storage: %w", err)
		}
		var assets store.AssetStore
		if storageClient != nil {
			assets = storageClient
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
		} else {
			slog.Warn("s3 storage not configured, images will be stored inline")
		}
		projects = store.NewProjectStore(db, assets)
	}

	// Valkey-backed rate limiter, in-memory when Valkey is down.
	var limiter middleware.Limiter
	if cfg.RateLimitPerMin > 0 {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword)
		if err != nil {
			slog.Warn("valkey unavailable, using in-memory rate limiter", "error", err)
			memLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)
			defer memLimiter.Stop()
			limiter = memLimiter
		} else {
			defer valkeyClient.Close()
			limiter = cache.NewWindowLimiter(valkeyClient, cfg.RateLimitPerMin, time.Minute)
		}
	}

	registry := buildRegistry(cfg)
	svc, err := buildService(cfg, registry, buildAnalyzer(cfg), ledger)
	if err != nil {
		return err
	}

	deps := router.Deps{
		AI:      handlers.NewAI(svc, registry, projects),
		Limiter: limiter,
	}
	if projects != nil {
		deps.Projects = handlers.NewProjects(projects)
	}

	// WriteTimeout must cover a page analysis (two navigation attempts and
	// image downloads) followed by a provider call.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.New(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 4 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
