// Package api provides the HTTP API for AirSentinel.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airsentinel/airsentinel/internal/airquality"
	"github.com/airsentinel/airsentinel/internal/api/handler"
	"github.com/airsentinel/airsentinel/internal/api/middleware"
	"github.com/airsentinel/airsentinel/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version    string
	BuildTime  string
	Logger     zerolog.Logger
	Metrics    *middleware.Metrics
	AirQuality *airquality.Service
	Registry   *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction

	airQualityHandler := handler.NewAirQualityHandler(cfg.AirQuality)
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)

	dataRateLimit := middleware.RateLimitByIP(middleware.DataRateLimit)         // 60 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Air quality endpoints (public) - per-IP rate limiting
		r.Route("/air-quality", func(r chi.Router) {
			r.With(dataRateLimit).Get("/latest", airQualityHandler.LatestMeasurements)
			r.With(dataRateLimit).Get("/stations", airQualityHandler.NearbyStations)
			r.With(dataRateLimit).Get("/sensors/{sensorId}/series", airQualityHandler.SensorSeries)
			r.With(standardRateLimit).Get("/parameters", airQualityHandler.ListParameters)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})
	})

	if cfg.Metrics != nil {
		r.Method("GET", "/metrics", cfg.Metrics.Handler())
	}

	return r
}
