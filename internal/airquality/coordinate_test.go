package airquality_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsentinel/airsentinel/internal/airquality"
)

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr string
	}{
		{name: "valid", lat: 52.37, lon: 4.89},
		{name: "valid at lat bounds", lat: 90, lon: 0},
		{name: "valid at negative lat bound", lat: -90, lon: 0},
		{name: "valid at lon bounds", lat: 0, lon: 180},
		{name: "valid at negative lon bound", lat: 0, lon: -180},
		{name: "origin", lat: 0, lon: 0},
		{name: "latitude too high", lat: 95, lon: 0, wantErr: "latitude"},
		{name: "latitude too low", lat: -90.001, lon: 0, wantErr: "latitude"},
		{name: "longitude too high", lat: 0, lon: 180.5, wantErr: "longitude"},
		{name: "longitude too low", lat: 0, lon: -200, wantErr: "longitude"},
		{name: "latitude NaN", lat: math.NaN(), lon: 0, wantErr: "latitude"},
		{name: "longitude NaN", lat: 0, lon: math.NaN(), wantErr: "longitude"},
		{name: "latitude infinite", lat: math.Inf(1), lon: 0, wantErr: "latitude"},
		{name: "longitude infinite", lat: 0, lon: math.Inf(-1), wantErr: "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord, err := airquality.ValidateCoordinate(tt.lat, tt.lon)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				var derr *airquality.DomainError
				require.ErrorAs(t, err, &derr)
				assert.Equal(t, airquality.KindInvalidInput, derr.Kind)
				assert.False(t, derr.Retryable)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.lat, coord.Latitude)
			assert.Equal(t, tt.lon, coord.Longitude)
		})
	}
}

func TestCoordinate_DistanceKm(t *testing.T) {
	amsterdam := airquality.Coordinate{Latitude: 52.3676, Longitude: 4.9041}
	rotterdam := airquality.Coordinate{Latitude: 51.9225, Longitude: 4.47917}

	distance := amsterdam.DistanceKm(rotterdam)

	// Amsterdam to Rotterdam is roughly 57km
	assert.InDelta(t, 57.0, distance, 3.0)

	// Symmetric
	assert.InDelta(t, distance, rotterdam.DistanceKm(amsterdam), 0.001)

	// Zero distance to self
	assert.InDelta(t, 0, amsterdam.DistanceKm(amsterdam), 0.001)
}
