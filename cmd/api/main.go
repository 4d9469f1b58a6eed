// Package main provides the entrypoint for the AirSentinel API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/airsentinel/airsentinel/internal/airquality"
	"github.com/airsentinel/airsentinel/internal/airquality/openaq"
	"github.com/airsentinel/airsentinel/internal/api"
	"github.com/airsentinel/airsentinel/internal/api/middleware"
	"github.com/airsentinel/airsentinel/internal/config"
	"github.com/airsentinel/airsentinel/internal/provider/resilience"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airsentinel-api"

	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirSentinel API")

	cfg := config.FromEnv()

	// Initialize metrics
	metrics := middleware.NewMetrics()

	// Upstream HTTP client with circuit breaker and provider registry
	clientCfg := resilience.DefaultClientConfig(openaq.ProviderName)
	if cfg.RequestTimeout > 0 {
		clientCfg.Timeout = cfg.RequestTimeout
	}
	upstream := resilience.NewClient(clientCfg)

	registry := resilience.NewRegistry()
	registry.Register(openaq.ProviderName, upstream)

	openaqClient := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    cfg.OpenAQBaseURL,
		APIKey:     cfg.OpenAQAPIKey,
		HTTPClient: upstream,
		Registry:   registry,
	})
	if cfg.OpenAQAPIKey == "" {
		log.Warn().Msg("OPENAQ_API_KEY not set - upstream requests may be rejected")
	}

	svc := airquality.NewService(airquality.ServiceConfig{
		Client:          openaqClient,
		Logger:          log,
		Retry:           cfg.Retry,
		DefaultRadiusKm: cfg.DefaultRadiusKm,
		DefaultLimit:    cfg.DefaultLimit,
		OnFallback:      metrics.RecordFallback,
	})
	log.Info().Msg("air quality service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:    Version,
		BuildTime:  BuildTime,
		Logger:     log,
		Metrics:    metrics,
		AirQuality: svc,
		Registry:   registry,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
