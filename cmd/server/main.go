package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/backend/internal/config"
	"catalog/backend/internal/httpserver"
	"catalog/backend/internal/infrastructure/postgres"
	"catalog/backend/internal/infrastructure/token"
	"catalog/backend/internal/observability"
	productusecase "catalog/backend/internal/usecase/product"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := observability.NewLogger(cfg.Logging, nil)

	rootCtx := context.Background()
	db, err := postgres.New(rootCtx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := db.Migrate(); err != nil {
			logger.Fatal().Err(err).Msg("failed to run database migrations")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(cfg.Metrics.Namespace, registry)

	deps := httpserver.Dependencies{
		Products: productusecase.NewService(postgres.NewProductRepository(db.Pool)),
		DB:       db,
		Metrics:  metrics,
		Gatherer: registry,
	}
	if cfg.JWTSecret != "" {
		deps.Tokens = token.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	} else {
		logger.Warn().Msg("JWT_SECRET not set, product listing is unauthenticated")
	}

	server := httpserver.NewServer(cfg, deps, logger)

	go func() {
		if err := server.Start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				logger.Info().Msg("HTTP server closed")
				return
			}
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("graceful shutdown completed")
	}
}
