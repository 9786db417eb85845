package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oversteer-dev/pitwall/internal/api"
	"github.com/oversteer-dev/pitwall/internal/config"
	"github.com/oversteer-dev/pitwall/internal/database"
	"github.com/oversteer-dev/pitwall/internal/identity"
	"github.com/oversteer-dev/pitwall/internal/lap"
	"github.com/oversteer-dev/pitwall/internal/session"
	"github.com/oversteer-dev/pitwall/internal/storage"
	"github.com/oversteer-dev/pitwall/internal/team"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// Two storage clients, one per credential tier. Only the broker sees
	// the elevated tier.
	elevated, err := storage.NewMinioStore(storage.ClientConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageServiceAccessKey,
		SecretKey: cfg.StorageServiceSecretKey,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		slog.Error("failed to create elevated storage client", "error", err)
		os.Exit(1)
	}

	tenant, err := storage.NewMinioStore(storage.ClientConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageTenantAccessKey,
		SecretKey: cfg.StorageTenantSecretKey,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		slog.Error("failed to create tenant storage client", "error", err)
		os.Exit(1)
	}

	broker := storage.NewBroker(elevated, cfg.RawBucket, cfg.ParsedBucket, cfg.UploadURLTTL, cfg.DownloadURLTTL)

	userRepo := identity.NewRepository(db.Pool())
	teamRepo := team.NewRepository(db.Pool())
	sessionRepo := session.NewRepository(db.Pool())

	guard := team.NewGuard(teamRepo)
	identityService := identity.NewService(userRepo, cfg.SessionSecret)
	teamService := team.NewService(teamRepo, userRepo, guard)
	sessionService := session.NewService(sessionRepo, guard, broker)
	lapService := lap.NewService(sessionRepo, guard, broker, &http.Client{Timeout: 30 * time.Second})

	router := api.NewRouter(api.RouterDeps{
		Authenticator: identityService,
		Teams:         teamService,
		Sessions:      sessionService,
		Laps:          lapService,
		DBPinger:      db,
		StorageProber: tenant,
		RawBucket:     cfg.RawBucket,
		Version:       cfg.Version,
		WebhookSecret: cfg.ParserWebhookSecret,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting pitwall server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
