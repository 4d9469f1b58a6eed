package airquality

import (
	"context"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/airsentinel/airsentinel/internal/provider/resilience"
)

// APIName is the upstream service name used in user-facing error messages.
const APIName = "OpenAQ"

// Client defines the upstream measurement API operations the service needs.
type Client interface {
	// NearbyLocations lists measurement locations around a coordinate.
	NearbyLocations(ctx context.Context, coord Coordinate, radiusKm float64, limit int) ([]Location, Meta, error)

	// LatestByLocation fetches the latest measurements for a location.
	LatestByLocation(ctx context.Context, locationID string) ([]Measurement, Meta, error)

	// SensorSeries fetches an aggregated time series for a sensor.
	SensorSeries(ctx context.Context, sensorID string, aggregation Aggregation, opts SeriesOptions) ([]TimeSeriesPoint, Meta, error)

	// Parameters fetches the parameter catalog.
	Parameters(ctx context.Context) ([]ParameterInfo, Meta, error)
}

// ServiceConfig holds configuration for the data service.
type ServiceConfig struct {
	// Client is the upstream measurement API client (required).
	Client Client

	// Logger for service operations.
	Logger zerolog.Logger

	// Retry is the backoff policy for live-path attempts.
	Retry resilience.RetryPolicy

	// DefaultRadiusKm bounds nearby-location searches (default: 25).
	DefaultRadiusKm float64

	// DefaultLimit bounds page sizes (default: 100).
	DefaultLimit int

	// OnFallback is invoked with the operation name whenever a response is
	// served from synthesized data. Optional; used for metrics.
	OnFallback func(operation string)
}

// Service orchestrates validation, the retried live path, error
// classification, and fallback synthesis. Every operation resolves to a
// usable Result tagged live or fallback; only invalid input is returned as
// a hard error. The service holds no mutable state between calls.
type Service struct {
	client          Client
	logger          zerolog.Logger
	retry           resilience.RetryPolicy
	defaultRadiusKm float64
	defaultLimit    int
	onFallback      func(operation string)
	synth           *Synthesizer
}

// NewService creates a new air quality data service.
func NewService(cfg ServiceConfig) *Service {
	radiusKm := cfg.DefaultRadiusKm
	if radiusKm <= 0 {
		radiusKm = 25
	}

	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = 100
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 && retry.BaseDelay <= 0 {
		retry = resilience.DefaultRetryPolicy()
	}

	return &Service{
		client:          cfg.Client,
		logger:          cfg.Logger,
		retry:           retry,
		defaultRadiusKm: radiusKm,
		defaultLimit:    limit,
		onFallback:      cfg.OnFallback,
		synth:           NewSynthesizer(),
	}
}

// LatestMeasurements returns the latest readings near the given coordinate.
//
// The live path finds nearby locations, then fetches the latest data for the
// closest one. Any failure after retries degrades to synthesized
// measurements; the returned error is non-nil only for invalid input.
func (s *Service) LatestMeasurements(ctx context.Context, lat, lon float64) (Result[[]Measurement], error) {
	coord, err := ValidateCoordinate(lat, lon)
	if err != nil {
		return Rejected[[]Measurement](err.(*DomainError)), err
	}

	locations, err := resilience.Execute(ctx, s.retry, func(ctx context.Context) (locationsPage, error) {
		locs, meta, err := s.client.NearbyLocations(ctx, coord, s.defaultRadiusKm, 5)
		return locationsPage{locs, meta}, err
	})
	if err != nil {
		return s.fallbackMeasurements(coord, Classify(err, APIName)), nil
	}
	if len(locations.items) == 0 {
		return s.fallbackMeasurements(coord, classifyStatus(http.StatusNotFound, APIName)), nil
	}

	nearest := locations.items[0]
	latest, err := resilience.Execute(ctx, s.retry, func(ctx context.Context) (measurementsPage, error) {
		measurements, meta, err := s.client.LatestByLocation(ctx, nearest.ID)
		return measurementsPage{measurements, meta}, err
	})
	if err != nil {
		return s.fallbackMeasurements(coord, Classify(err, APIName)), nil
	}

	measurements := latest.items
	for i := range measurements {
		if measurements[i].LocationName == "" {
			measurements[i].LocationName = nearest.Name
		}
	}

	return Live(measurements, latest.meta), nil
}

// NearbyStations returns monitoring stations around the given coordinate,
// sorted ascending by distance. Failures degrade to synthesized stations.
func (s *Service) NearbyStations(ctx context.Context, lat, lon, radiusKm float64, limit int) (Result[[]Station], error) {
	coord, err := ValidateCoordinate(lat, lon)
	if err != nil {
		return Rejected[[]Station](err.(*DomainError)), err
	}

	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	page, err := resilience.Execute(ctx, s.retry, func(ctx context.Context) (locationsPage, error) {
		locs, meta, err := s.client.NearbyLocations(ctx, coord, radiusKm, limit)
		return locationsPage{locs, meta}, err
	})
	if err != nil {
		derr := Classify(err, APIName)
		s.logDegrade("NearbyStations", derr)
		stations := s.synth.Stations(coord, 0)
		return Fallback(stations, fallbackMeta(len(stations), limit), derr.Message), nil
	}

	stations := make([]Station, 0, len(page.items))
	for _, loc := range page.items {
		distance := loc.DistanceKm
		if distance == 0 {
			distance = coord.DistanceKm(loc.Coordinate)
		}
		stations = append(stations, Station{
			ID:         loc.ID,
			Name:       loc.Name,
			DistanceKm: distance,
			Parameters: loc.Parameters,
			IsActive:   true,
			Coordinate: loc.Coordinate,
		})
	}
	sort.Slice(stations, func(a, b int) bool {
		return stations[a].DistanceKm < stations[b].DistanceKm
	})

	return Live(stations, page.meta), nil
}

// SensorSeries returns an aggregated time series for a sensor.
//
// An empty sensor ID or an unknown aggregation is invalid input and returns
// an error with no fallback. Upstream failures degrade to a synthesized
// series so the caller can still render a chart.
func (s *Service) SensorSeries(ctx context.Context, sensorID string, aggregation Aggregation, opts SeriesOptions) (Result[[]TimeSeriesPoint], error) {
	if sensorID == "" {
		derr := invalidInput("sensor ID is required")
		return Rejected[[]TimeSeriesPoint](derr), derr
	}
	if !aggregation.Valid() {
		derr := invalidInput("invalid aggregation: must be one of measurements, hours, days, years")
		return Rejected[[]TimeSeriesPoint](derr), derr
	}

	if opts.Limit <= 0 {
		opts.Limit = s.defaultLimit
	}

	page, err := resilience.Execute(ctx, s.retry, func(ctx context.Context) (seriesPage, error) {
		points, meta, err := s.client.SensorSeries(ctx, sensorID, aggregation, opts)
		return seriesPage{points, meta}, err
	})
	if err != nil {
		derr := Classify(err, APIName)
		s.logDegrade("SensorSeries", derr)
		series := s.synth.Series(aggregation)
		return Fallback(series, fallbackMeta(len(series), opts.Limit), derr.Message), nil
	}

	return Live(page.items, page.meta), nil
}

// ParameterCatalog returns the upstream parameter catalog, degrading to the
// static built-in catalog when the upstream is unreachable.
func (s *Service) ParameterCatalog(ctx context.Context) (Result[[]ParameterInfo], error) {
	page, err := resilience.Execute(ctx, s.retry, func(ctx context.Context) (catalogPage, error) {
		infos, meta, err := s.client.Parameters(ctx)
		return catalogPage{infos, meta}, err
	})
	if err != nil {
		derr := Classify(err, APIName)
		s.logDegrade("ParameterCatalog", derr)
		catalog := s.synth.ParameterCatalog()
		return Fallback(catalog, fallbackMeta(len(catalog), s.defaultLimit), derr.Message), nil
	}

	return Live(page.items, page.meta), nil
}

// fallbackMeasurements builds the degraded result for the latest-readings path.
func (s *Service) fallbackMeasurements(coord Coordinate, derr *DomainError) Result[[]Measurement] {
	s.logDegrade("LatestMeasurements", derr)
	measurements := s.synth.Measurements(coord)
	return Fallback(measurements, fallbackMeta(len(measurements), s.defaultLimit), derr.Message)
}

func (s *Service) logDegrade(operation string, derr *DomainError) {
	s.logger.Warn().
		Str("operation", operation).
		Str("kind", string(derr.Kind)).
		Bool("retryable", derr.Retryable).
		Msg("live path failed, serving synthesized fallback data")
	if s.onFallback != nil {
		s.onFallback(operation)
	}
}

func fallbackMeta(found, limit int) Meta {
	return Meta{Found: found, Limit: limit, Page: 1, Pages: 1}
}

// Page wrappers let the generic executor return a slice and its metadata
// as a single value.

type locationsPage struct {
	items []Location
	meta  Meta
}

type measurementsPage struct {
	items []Measurement
	meta  Meta
}

type seriesPage struct {
	items []TimeSeriesPoint
	meta  Meta
}

type catalogPage struct {
	items []ParameterInfo
	meta  Meta
}
