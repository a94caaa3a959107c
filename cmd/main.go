package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/config"
	"github.com/Dosada05/tournament-dashboard/db"
	"github.com/Dosada05/tournament-dashboard/handlers"
	"github.com/Dosada05/tournament-dashboard/repositories"
	api "github.com/Dosada05/tournament-dashboard/routes"
	"github.com/Dosada05/tournament-dashboard/services"
	"github.com/Dosada05/tournament-dashboard/storage"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
		slog.Bool("publishing_enabled", cfg.PublishingEnabled()))

	var store repositories.Store
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store = repositories.NewMemoryStore()
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
		if err := db.Migrate(ctx, dbConn); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database connection established", slog.Int("schema_version", db.SchemaVersion()))
		store = repositories.NewPostgresStore(dbConn)
	}

	// Публикация таблиц: Cloudflare R2, если настроен
	var uploader storage.FileUploader
	switch {
	case cfg.PublishingEnabled():
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	case cfg.StorageDriver == config.StorageDriverMemory:
		uploader = storage.NewMemoryUploader(fmt.Sprintf("http://localhost:%d/snapshots", cfg.ServerPort))
	default:
		logger.Info("scorecard publishing disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub()
	go wsHub.Run(ctx)

	locks := services.NewFixtureLocks()
	bracketService := services.NewBracketService(store, locks, wsHub, cfg.ReseedMaxAttempts, logger)
	matchService := services.NewMatchService(store, locks, wsHub, logger)
	standingsService := services.NewStandingsService(store, locks, uploader, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Bracket:   handlers.NewBracketHandler(bracketService, matchService),
		Match:     handlers.NewMatchHandler(matchService),
		Standings: handlers.NewStandingsHandler(standingsService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins),
	}, cfg.CORSAllowedOrigins, logger)

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		// If shutdown fails, force close.
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}
