package openaq_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsentinel/airsentinel/internal/airquality"
	"github.com/airsentinel/airsentinel/internal/airquality/openaq"
	"github.com/airsentinel/airsentinel/internal/provider/resilience"
)

func TestClient_NearbyLocations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations", r.URL.Path)
		assert.Equal(t, "35.130000,-106.580000", r.URL.Query().Get("coordinates"))
		assert.Equal(t, "25000", r.URL.Query().Get("radius"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		response := map[string]interface{}{
			"meta": map[string]int{
				"found": 2,
				"limit": 5,
				"page":  1,
				"pages": 1,
			},
			"data": []map[string]interface{}{
				{
					"id":       2178,
					"name":     "Del Norte",
					"locality": "Albuquerque",
					"country":  map[string]string{"code": "US", "name": "United States"},
					"coordinates": map[string]float64{
						"latitude":  35.1353,
						"longitude": -106.5847,
					},
					"distance": 3200.0,
					"sensors": []map[string]interface{}{
						{
							"id": 3917,
							"parameter": map[string]interface{}{
								"id":    2,
								"name":  "pm25",
								"units": "µg/m³",
							},
						},
						{
							"id": 3918,
							"parameter": map[string]interface{}{
								"id":    10,
								"name":  "o3",
								"units": "µg/m³",
							},
						},
						{
							"id": 3919,
							"parameter": map[string]interface{}{
								"id":    99,
								"name":  "temperature",
								"units": "c",
							},
						},
					},
				},
				{
					"id":   2179,
					"name": "Westside",
					"coordinates": map[string]float64{
						"latitude":  35.1654,
						"longitude": -106.6345,
					},
					"distance": 7100.0,
					"sensors":  []map[string]interface{}{},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		HTTPClient: http.DefaultClient,
	})

	coord := airquality.Coordinate{Latitude: 35.13, Longitude: -106.58}
	locations, meta, err := client.NearbyLocations(context.Background(), coord, 25, 5)
	require.NoError(t, err)
	require.Len(t, locations, 2)

	assert.Equal(t, 2, meta.Found)
	assert.Equal(t, 1, meta.Page)

	assert.Equal(t, "2178", locations[0].ID)
	assert.Equal(t, "Del Norte", locations[0].Name)
	assert.Equal(t, "Albuquerque", locations[0].Locality)
	assert.Equal(t, "US", locations[0].Country)
	assert.InDelta(t, 3.2, locations[0].DistanceKm, 0.001)
	assert.Equal(t, 35.1353, locations[0].Coordinate.Latitude)

	// The temperature sensor is untracked and dropped
	require.Len(t, locations[0].Sensors, 2)
	assert.Equal(t, "3917", locations[0].Sensors[0].ID)
	assert.Equal(t, airquality.ParameterPM25, locations[0].Sensors[0].Parameter)
	assert.ElementsMatch(t, []airquality.Parameter{airquality.ParameterPM25, airquality.ParameterO3}, locations[0].Parameters)
}

func TestClient_NearbyLocations_NoAPIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present, "X-API-Key must not be sent when no key is configured")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"meta": map[string]int{"found": 0},
			"data": []map[string]interface{}{},
		})
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	locations, _, err := client.NearbyLocations(context.Background(), airquality.Coordinate{}, 25, 5)
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestClient_NearbyLocations_DistanceFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"meta": map[string]int{"found": 1},
			"data": []map[string]interface{}{
				{
					"id":   1,
					"name": "No Distance",
					"coordinates": map[string]float64{
						"latitude":  52.0,
						"longitude": 4.9041,
					},
				},
			},
		})
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	origin := airquality.Coordinate{Latitude: 52.3676, Longitude: 4.9041}
	locations, _, err := client.NearbyLocations(context.Background(), origin, 25, 5)
	require.NoError(t, err)
	require.Len(t, locations, 1)

	// Missing upstream distance is computed from the coordinates instead
	assert.InDelta(t, 40.9, locations[0].DistanceKm, 1.0)
}

func TestClient_LatestByLocation(t *testing.T) {
	observedAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations/2178/latest", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"meta": map[string]int{"found": 2, "limit": 100, "page": 1, "pages": 1},
			"data": []map[string]interface{}{
				{
					"value":       12.3,
					"datetime":    map[string]string{"utc": observedAt.Format(time.RFC3339)},
					"coordinates": map[string]float64{"latitude": 35.1353, "longitude": -106.5847},
					"sensorsId":   3917,
					"locationsId": 2178,
					"parameter":   map[string]interface{}{"id": 2, "name": "pm25", "units": "µg/m³"},
				},
				{
					"value":       1.2,
					"datetime":    map[string]string{"utc": observedAt.Format(time.RFC3339)},
					"sensorsId":   3920,
					"locationsId": 2178,
					"parameter":   map[string]interface{}{"id": 98, "name": "relativehumidity", "units": "%"},
				},
			},
		})
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	measurements, meta, err := client.LatestByLocation(context.Background(), "2178")
	require.NoError(t, err)

	// Only the tracked pm25 reading survives
	require.Len(t, measurements, 1)
	assert.Equal(t, 2, meta.Found)
	assert.Equal(t, airquality.ParameterPM25, measurements[0].Parameter)
	assert.Equal(t, 12.3, measurements[0].Value)
	assert.Equal(t, "µg/m³", measurements[0].Unit)
	assert.True(t, observedAt.Equal(measurements[0].ObservedAt))
	assert.Equal(t, "2178", measurements[0].LocationID)
}

func TestClient_LatestByLocation_PartialPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"meta": map[string]int{"found": 1},
			"data": []map[string]interface{}{
				{
					"value":       8.1,
					"locationsId": 2178,
					"parameter":   map[string]interface{}{"name": "pm10"},
				},
			},
		})
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	measurements, _, err := client.LatestByLocation(context.Background(), "2178")
	require.NoError(t, err)
	require.Len(t, measurements, 1)

	// Missing unit defaults, missing timestamp parses to the zero time
	assert.Equal(t, "µg/m³", measurements[0].Unit)
	assert.True(t, measurements[0].ObservedAt.IsZero())
}

func TestClient_SensorSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sensors/3917/hours", r.URL.Path)
		assert.Equal(t, "24", r.URL.Query().Get("limit"))
		assert.Equal(t, "2026-08-28T00:00:00Z", r.URL.Query().Get("date_from"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"meta": map[string]int{"found": 1},
			"data": []map[string]interface{}{
				{
					"value":     14.7,
					"datetime":  map[string]string{"utc": "2026-08-28T01:00:00Z"},
					"parameter": map[string]interface{}{"name": "pm25", "units": "µg/m³"},
				},
			},
		})
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	points, _, err := client.SensorSeries(context.Background(), "3917", airquality.AggregationHours, airquality.SeriesOptions{
		DateFrom: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		Limit:    24,
	})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 14.7, points[0].Value)
	assert.Equal(t, airquality.ParameterPM25, points[0].Parameter)
}

func TestClient_Parameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parameters", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"meta": map[string]int{"found": 2},
			"data": []map[string]interface{}{
				{"id": 2, "name": "pm25", "displayName": "PM2.5", "units": "µg/m³", "description": "Particulate matter"},
				{"id": 10, "name": "o3", "displayName": "O₃", "units": "µg/m³"},
			},
		})
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	infos, meta, err := client.Parameters(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, 2, meta.Found)
	assert.Equal(t, "2", infos[0].ID)
	assert.Equal(t, "pm25", infos[0].Name)
	assert.Equal(t, "PM2.5", infos[0].DisplayName)
}

func TestClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
	})

	_, _, err := client.NearbyLocations(context.Background(), airquality.Coordinate{}, 25, 5)
	require.Error(t, err)

	var statusErr *resilience.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestClient_RecordsToRegistry(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests == 1 {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"meta": map[string]int{"found": 0},
				"data": []map[string]interface{}{},
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	registry.Register(openaq.ProviderName, resilience.NewClient(resilience.DefaultClientConfig(openaq.ProviderName)))

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
		Registry:   registry,
	})

	_, _, err := client.NearbyLocations(context.Background(), airquality.Coordinate{}, 25, 5)
	require.NoError(t, err)

	health := registry.GetHealth(openaq.ProviderName)
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)

	_, _, err = client.Parameters(context.Background())
	require.Error(t, err)

	health = registry.GetHealth(openaq.ProviderName)
	assert.NotNil(t, health.LastFailureAt)
	assert.Contains(t, health.LastError, "500")
}
