// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/airsentinel/airsentinel/internal/provider/resilience"
)

// Config holds the full application configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port int

	// OpenAQBaseURL overrides the upstream API base URL.
	OpenAQBaseURL string

	// OpenAQAPIKey authenticates requests to the upstream API. Optional.
	OpenAQAPIKey string

	// DefaultRadiusKm bounds nearby-station searches.
	DefaultRadiusKm float64

	// DefaultLimit bounds upstream page sizes.
	DefaultLimit int

	// Retry is the backoff policy for upstream requests.
	Retry resilience.RetryPolicy

	// RequestTimeout bounds a single upstream HTTP request.
	RequestTimeout time.Duration
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	port, _ := strconv.Atoi(getEnvOrDefault("APP_PORT", "8080"))
	radiusKm, _ := strconv.ParseFloat(getEnvOrDefault("AQ_DEFAULT_RADIUS_KM", "25"), 64)
	limit, _ := strconv.Atoi(getEnvOrDefault("AQ_DEFAULT_LIMIT", "100"))
	maxAttempts, _ := strconv.Atoi(getEnvOrDefault("AQ_RETRY_MAX_ATTEMPTS", "3"))
	baseDelay, _ := time.ParseDuration(getEnvOrDefault("AQ_RETRY_BASE_DELAY", "1s"))
	requestTimeout, _ := time.ParseDuration(getEnvOrDefault("AQ_REQUEST_TIMEOUT", "15s"))

	return Config{
		Port:            port,
		OpenAQBaseURL:   getEnvOrDefault("OPENAQ_BASE_URL", ""),
		OpenAQAPIKey:    getEnvOrDefault("OPENAQ_API_KEY", ""),
		DefaultRadiusKm: radiusKm,
		DefaultLimit:    limit,
		Retry: resilience.RetryPolicy{
			MaxAttempts: maxAttempts,
			BaseDelay:   baseDelay,
		},
		RequestTimeout: requestTimeout,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
