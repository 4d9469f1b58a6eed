// Package openaq provides a client for the OpenAQ v3 measurement API.
package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/airsentinel/airsentinel/internal/airquality"
	"github.com/airsentinel/airsentinel/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the OpenAQ API.
	DefaultBaseURL = "https://api.openaq.org/v3"

	// ProviderName identifies this provider.
	ProviderName = "openaq"

	// apiKeyHeader carries the API key on every request when configured.
	apiKeyHeader = "X-API-Key"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenAQ client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// APIKey authenticates requests. Attached only when non-empty, so
	// development configurations can run keyless against a proxy.
	APIKey string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Registry receives success/failure outcomes for the ops status
	// endpoint. Optional.
	Registry *resilience.Registry

	// Timeout for individual API requests (default: 15s).
	Timeout time.Duration
}

// Client is an OpenAQ v3 API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	registry   *resilience.Registry
}

// NewClient creates a new OpenAQ client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		registry:   cfg.Registry,
	}
}

// API response types (from the OpenAQ v3 API).

type metaData struct {
	Found int `json:"found"`
	Limit int `json:"limit"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type locationsResponse struct {
	Meta metaData       `json:"meta"`
	Data []locationData `json:"data"`
}

type locationData struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Locality string `json:"locality"`
	Country  struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"country"`
	Coordinates coordinatesData `json:"coordinates"`
	Distance    float64         `json:"distance"` // meters
	Sensors     []sensorData    `json:"sensors"`
}

type coordinatesData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type sensorData struct {
	ID        int64         `json:"id"`
	Parameter parameterData `json:"parameter"`
}

type parameterData struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Units       string `json:"units"`
	Description string `json:"description"`
}

type latestResponse struct {
	Meta metaData     `json:"meta"`
	Data []latestData `json:"data"`
}

type latestData struct {
	Value    float64 `json:"value"`
	Datetime struct {
		UTC string `json:"utc"`
	} `json:"datetime"`
	Coordinates coordinatesData `json:"coordinates"`
	SensorsID   int64           `json:"sensorsId"`
	LocationsID int64           `json:"locationsId"`
	Parameter   parameterData   `json:"parameter"`
}

type seriesResponse struct {
	Meta metaData     `json:"meta"`
	Data []seriesData `json:"data"`
}

type seriesData struct {
	Value    float64 `json:"value"`
	Datetime struct {
		UTC string `json:"utc"`
	} `json:"datetime"`
	Parameter parameterData `json:"parameter"`
}

type parametersResponse struct {
	Meta metaData        `json:"meta"`
	Data []parameterData `json:"data"`
}

// NearbyLocations retrieves measurement locations around a coordinate.
func (c *Client) NearbyLocations(ctx context.Context, coord airquality.Coordinate, radiusKm float64, limit int) ([]airquality.Location, airquality.Meta, error) {
	query := url.Values{}
	query.Set("coordinates", fmt.Sprintf("%.6f,%.6f", coord.Latitude, coord.Longitude))
	query.Set("radius", strconv.Itoa(int(radiusKm*1000)))
	query.Set("limit", strconv.Itoa(limit))

	var result locationsResponse
	if err := c.get(ctx, "/locations?"+query.Encode(), &result); err != nil {
		return nil, airquality.Meta{}, fmt.Errorf("fetch locations: %w", err)
	}

	locations := make([]airquality.Location, 0, len(result.Data))
	for _, l := range result.Data {
		locations = append(locations, toLocation(&l, coord))
	}

	return locations, toMeta(result.Meta), nil
}

// LatestByLocation retrieves the latest measurements for a location.
func (c *Client) LatestByLocation(ctx context.Context, locationID string) ([]airquality.Measurement, airquality.Meta, error) {
	var result latestResponse
	if err := c.get(ctx, "/locations/"+url.PathEscape(locationID)+"/latest", &result); err != nil {
		return nil, airquality.Meta{}, fmt.Errorf("fetch latest measurements: %w", err)
	}

	measurements := make([]airquality.Measurement, 0, len(result.Data))
	for _, m := range result.Data {
		if measurement := toMeasurement(&m); measurement != nil {
			measurements = append(measurements, *measurement)
		}
	}

	return measurements, toMeta(result.Meta), nil
}

// SensorSeries retrieves an aggregated time series for a sensor.
func (c *Client) SensorSeries(ctx context.Context, sensorID string, aggregation airquality.Aggregation, opts airquality.SeriesOptions) ([]airquality.TimeSeriesPoint, airquality.Meta, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if !opts.DateFrom.IsZero() {
		query.Set("date_from", opts.DateFrom.UTC().Format(time.RFC3339))
	}
	if !opts.DateTo.IsZero() {
		query.Set("date_to", opts.DateTo.UTC().Format(time.RFC3339))
	}

	path := "/sensors/" + url.PathEscape(sensorID) + "/" + string(aggregation)
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result seriesResponse
	if err := c.get(ctx, path, &result); err != nil {
		return nil, airquality.Meta{}, fmt.Errorf("fetch sensor series: %w", err)
	}

	points := make([]airquality.TimeSeriesPoint, 0, len(result.Data))
	for _, p := range result.Data {
		observedAt, _ := time.Parse(time.RFC3339, p.Datetime.UTC)
		points = append(points, airquality.TimeSeriesPoint{
			Timestamp: observedAt,
			Value:     p.Value,
			Parameter: airquality.ParseParameter(p.Parameter.Name),
			Unit:      p.Parameter.Units,
		})
	}

	return points, toMeta(result.Meta), nil
}

// Parameters retrieves the parameter catalog.
func (c *Client) Parameters(ctx context.Context) ([]airquality.ParameterInfo, airquality.Meta, error) {
	var result parametersResponse
	if err := c.get(ctx, "/parameters", &result); err != nil {
		return nil, airquality.Meta{}, fmt.Errorf("fetch parameters: %w", err)
	}

	infos := make([]airquality.ParameterInfo, 0, len(result.Data))
	for _, p := range result.Data {
		infos = append(infos, airquality.ParameterInfo{
			ID:          strconv.FormatInt(p.ID, 10),
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Units:       p.Units,
			Description: p.Description,
		})
	}

	return infos, toMeta(result.Meta), nil
}

// get performs a GET request and decodes the JSON body into target.
func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := &resilience.StatusError{StatusCode: resp.StatusCode}
		c.record(err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	c.record(nil)
	return nil
}

// record reports a request outcome to the provider registry, if configured.
func (c *Client) record(err error) {
	if c.registry == nil {
		return
	}
	if err != nil {
		c.registry.RecordFailure(ProviderName, err)
		return
	}
	c.registry.RecordSuccess(ProviderName)
}

// toLocation converts API location data to the domain Location.
func toLocation(l *locationData, origin airquality.Coordinate) airquality.Location {
	coord := airquality.Coordinate{
		Latitude:  l.Coordinates.Latitude,
		Longitude: l.Coordinates.Longitude,
	}

	distanceKm := l.Distance / 1000
	if distanceKm == 0 {
		distanceKm = origin.DistanceKm(coord)
	}

	sensors := make([]airquality.Sensor, 0, len(l.Sensors))
	var params []airquality.Parameter
	seen := make(map[airquality.Parameter]bool)
	for _, s := range l.Sensors {
		p := airquality.ParseParameter(s.Parameter.Name)
		if p == "" {
			continue // Skip untracked parameters
		}
		sensors = append(sensors, airquality.Sensor{
			ID:        strconv.FormatInt(s.ID, 10),
			Parameter: p,
			Unit:      s.Parameter.Units,
		})
		if !seen[p] {
			seen[p] = true
			params = append(params, p)
		}
	}

	return airquality.Location{
		ID:         strconv.FormatInt(l.ID, 10),
		Name:       l.Name,
		Locality:   l.Locality,
		Country:    l.Country.Code,
		DistanceKm: distanceKm,
		Parameters: params,
		Sensors:    sensors,
		Coordinate: coord,
	}
}

// toMeasurement converts API latest data to the domain Measurement.
// Returns nil for parameters the service does not track.
func toMeasurement(m *latestData) *airquality.Measurement {
	parameter := airquality.ParseParameter(m.Parameter.Name)
	if parameter == "" {
		return nil
	}

	unit := m.Parameter.Units
	if unit == "" {
		unit = "µg/m³"
	}

	// Partial payloads are tolerated: a missing timestamp parses to the
	// zero time rather than failing the whole response.
	observedAt, _ := time.Parse(time.RFC3339, m.Datetime.UTC)

	return &airquality.Measurement{
		Parameter:  parameter,
		Value:      m.Value,
		Unit:       unit,
		ObservedAt: observedAt,
		LocationID: strconv.FormatInt(m.LocationsID, 10),
		Coordinate: airquality.Coordinate{
			Latitude:  m.Coordinates.Latitude,
			Longitude: m.Coordinates.Longitude,
		},
	}
}

func toMeta(m metaData) airquality.Meta {
	return airquality.Meta{
		Found: m.Found,
		Limit: m.Limit,
		Page:  m.Page,
		Pages: m.Pages,
	}
}
