// Package main is the entry point for the Postflow scheduling server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"postflow/internal/cache"
	"postflow/internal/config"
	"postflow/internal/database"
	"postflow/internal/handlers"
	"postflow/internal/registry"
	"postflow/internal/router"
	"postflow/internal/session"
	"postflow/internal/storage"
	"postflow/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the default operator account (no-op if users exist).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize session store backed by Valkey.
	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Portal responses are cached per access code.
	portalCache := cache.NewPortalCache(valkeyClient, cache.DefaultPortalTTL)

	// Connect to S3-compatible object storage (optional — the app starts
	// without it, with image uploads disabled).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	// A nil *storage.Client must stay a nil interface for the registries'
	// storage-disabled checks.
	var blobs registry.BlobStore
	if storageClient != nil {
		blobs = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured — image uploads disabled")
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	clientStore := store.NewClientStore(db)
	calendarStore := store.NewCalendarStore(db)
	postStore := store.NewPostStore(db)
	notificationStore := store.NewNotificationStore(db)

	// Registries own the multi-step consistency protocol on top of the stores.
	clientRegistry := registry.NewClientRegistry(clientStore, calendarStore, postStore, blobs)
	calendarRegistry := registry.NewCalendarRegistry(calendarStore, clientStore, postStore, blobs)
	postRegistry := registry.NewPostRegistry(postStore, calendarStore, clientStore, blobs)
	ledger := registry.NewNotificationLedger(postStore, notificationStore)

	// Background reconciler: recomputes denormalized client data on a cron
	// schedule and drops stale portal cache entries when it repaired drift.
	reconciler := registry.NewReconciler(clientStore, calendarStore, postStore)
	scheduler := cron.New()
	if cfg.ReconcileSchedule != "" {
		_, err := scheduler.AddFunc(cfg.ReconcileSchedule, func() {
			stats, err := reconciler.Run()
			if err != nil {
				slog.Error("reconcile pass failed", "error", err)
				return
			}
			if stats.RepairedCalendars > 0 || stats.RepairedCounts > 0 {
				slog.Info("reconcile pass repaired drift",
					"clients", stats.Clients,
					"calendar_lists", stats.RepairedCalendars,
					"posts_counts", stats.RepairedCounts,
				)
				portalCache.InvalidateAll(context.Background())
			}
		})
		if err != nil {
			slog.Error("invalid reconcile schedule", "schedule", cfg.ReconcileSchedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
		slog.Info("reconciler scheduled", "schedule", cfg.ReconcileSchedule)
	}

	// Create handler groups with their dependencies.
	adminHandlers := handlers.NewAdmin(clientRegistry, calendarRegistry, postRegistry, ledger, portalCache)
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	portalHandlers := handlers.NewPortal(clientRegistry, postRegistry, portalCache, cfg.PortalBaseURL)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, adminHandlers, authHandlers, portalHandlers)

	// Create the HTTP server with sensible timeouts. WriteTimeout covers
	// image uploads to S3 on slow links.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
