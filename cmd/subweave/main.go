package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/velharta/subweave/internal/cache"
	"github.com/velharta/subweave/internal/client"
	"github.com/velharta/subweave/internal/config"
	"github.com/velharta/subweave/internal/metrics"
	"github.com/velharta/subweave/internal/pipeline"
	"github.com/velharta/subweave/internal/server"
)

// cacheLogger adapts zerolog to the cache error reporting interface.
type cacheLogger struct {
	logger zerolog.Logger
}

func (l cacheLogger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	logger.Info().
		Str("provider_domain", cfg.ProviderDomain).
		Str("server_address", cfg.Server.Address).
		Int("server_port", cfg.Server.Port).
		Str("cache_provider", cfg.Cache.Provider).
		Msg("Application started with configuration")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Sentry, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	outputCache, err := cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           cfg.CacheTTL(),
		Logger:        cacheLogger{logger: logger},
		RedisAddress:  cfg.Cache.RedisAddress,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Group:         "output",
	})
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.Cache.Provider).Msg("Failed to create cache")
	}
	defer func() {
		if err := outputCache.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close cache")
		}
	}()

	providerClient := client.NewClient(cfg)
	defer func() {
		if err := providerClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close provider client")
		}
	}()

	orchestrator := pipeline.New(providerClient, cfg)
	handler := server.NewHandler(orchestrator, outputCache)
	httpServer := server.NewHTTPServer(cfg, handler)

	// Start Prometheus metrics HTTP server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
		}
	}()

	logger.Info().Str("address", httpServer.Addr).Msg("Starting HTTP server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Failed to serve HTTP")
	}

	logger.Info().Msg("Server stopped gracefully")
}
