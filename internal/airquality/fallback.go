package airquality

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Jitter bounds for synthesized coordinates, in degrees.
const (
	locationJitterDeg = 0.1
	stationJitterDeg  = 0.2
)

// ValueRange bounds the synthesized values for one parameter.
type ValueRange struct {
	Min  float64
	Max  float64
	Unit string
}

// DefaultValueRanges returns realistic ambient ranges per parameter.
func DefaultValueRanges() map[Parameter]ValueRange {
	return map[Parameter]ValueRange{
		ParameterPM25: {Min: 8, Max: 33, Unit: "µg/m³"},
		ParameterPM10: {Min: 15, Max: 55, Unit: "µg/m³"},
		ParameterO3:   {Min: 40, Max: 70, Unit: "µg/m³"},
		ParameterNO2:  {Min: 20, Max: 60, Unit: "µg/m³"},
		ParameterSO2:  {Min: 5, Max: 25, Unit: "µg/m³"},
		ParameterCO:   {Min: 0.5, Max: 2.5, Unit: "mg/m³"},
	}
}

// Synthesizer generates statistically plausible measurement, station, and
// location records anchored to a coordinate. It reads nothing but its input
// and writes nothing, so it can never fail or need retrying. Sampled values
// are random but always fall within their documented ranges.
type Synthesizer struct {
	ranges map[Parameter]ValueRange
	now    func() time.Time
}

// NewSynthesizer creates a Synthesizer with the default value ranges.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		ranges: DefaultValueRanges(),
		now:    time.Now,
	}
}

// Measurements returns one synthesized Measurement per tracked parameter,
// each observed within the last hour.
func (s *Synthesizer) Measurements(coord Coordinate) []Measurement {
	params := TrackedParameters()
	measurements := make([]Measurement, 0, len(params))
	for _, p := range params {
		r := s.ranges[p]
		measurements = append(measurements, Measurement{
			Parameter:  p,
			Value:      r.Min + rand.Float64()*(r.Max-r.Min),
			Unit:       r.Unit,
			ObservedAt: s.now().Add(-time.Duration(rand.Float64() * float64(time.Hour))),
			Coordinate: coord,
		})
	}
	return measurements
}

// Stations returns between 2 and 6 synthesized stations near coord, sorted
// ascending by distance. Pass count <= 0 for a random cardinality.
func (s *Synthesizer) Stations(coord Coordinate, count int) []Station {
	if count <= 0 {
		count = 2 + rand.Intn(5) // 2-6 stations
	}

	stations := make([]Station, 0, count)
	for i := 0; i < count; i++ {
		primary := PrimaryParameters()
		stations = append(stations, Station{
			ID:         "sim-" + uuid.NewString()[:8],
			Name:       fmt.Sprintf("Station %c%d", rune('A'+i%26), rand.Intn(100)),
			DistanceKm: 1 + rand.Float64()*20,
			Parameters: primary[:1+rand.Intn(len(primary))],
			IsActive:   rand.Float64() > 0.1, // 90% active
			Coordinate: jitter(coord, stationJitterDeg),
		})
	}

	sort.Slice(stations, func(a, b int) bool {
		return stations[a].DistanceKm < stations[b].DistanceKm
	})
	return stations
}

// Locations returns synthesized measurement locations near coord.
func (s *Synthesizer) Locations(coord Coordinate) []Location {
	count := 1 + rand.Intn(3)
	locations := make([]Location, 0, count)
	for i := 0; i < count; i++ {
		locations = append(locations, Location{
			ID:         "sim-" + uuid.NewString()[:8],
			Name:       fmt.Sprintf("Air Quality Station %d", rand.Intn(100)),
			Locality:   "Simulated",
			Country:    "US",
			DistanceKm: 1 + rand.Float64()*20,
			Parameters: PrimaryParameters(),
			Coordinate: jitter(coord, locationJitterDeg),
		})
	}

	sort.Slice(locations, func(a, b int) bool {
		return locations[a].DistanceKm < locations[b].DistanceKm
	})
	return locations
}

// Series returns a synthesized sensor time series with one point per bucket,
// most recent last. Values follow the pm25 range since the sensor's real
// parameter is unknown when the live path is down.
func (s *Synthesizer) Series(aggregation Aggregation) []TimeSeriesPoint {
	const points = 24

	var step time.Duration
	switch aggregation {
	case AggregationHours:
		step = time.Hour
	case AggregationDays:
		step = 24 * time.Hour
	case AggregationYears:
		step = 365 * 24 * time.Hour
	default:
		step = 15 * time.Minute
	}

	r := s.ranges[ParameterPM25]
	series := make([]TimeSeriesPoint, 0, points)
	start := s.now().Add(-time.Duration(points-1) * step)
	for i := 0; i < points; i++ {
		series = append(series, TimeSeriesPoint{
			Timestamp: start.Add(time.Duration(i) * step),
			Value:     r.Min + rand.Float64()*(r.Max-r.Min),
			Parameter: ParameterPM25,
			Unit:      r.Unit,
		})
	}
	return series
}

// ParameterCatalog returns the static parameter catalog used when the
// upstream catalog is unreachable.
func (s *Synthesizer) ParameterCatalog() []ParameterInfo {
	return []ParameterInfo{
		{ID: "pm25", Name: "pm25", DisplayName: "PM2.5", Units: "µg/m³", Description: "Particulate matter less than 2.5 micrometers in diameter"},
		{ID: "pm10", Name: "pm10", DisplayName: "PM10", Units: "µg/m³", Description: "Particulate matter less than 10 micrometers in diameter"},
		{ID: "o3", Name: "o3", DisplayName: "O₃", Units: "µg/m³", Description: "Ground-level ozone"},
		{ID: "no2", Name: "no2", DisplayName: "NO₂", Units: "µg/m³", Description: "Nitrogen dioxide"},
		{ID: "so2", Name: "so2", DisplayName: "SO₂", Units: "µg/m³", Description: "Sulfur dioxide"},
		{ID: "co", Name: "co", DisplayName: "CO", Units: "mg/m³", Description: "Carbon monoxide"},
	}
}

// jitter offsets coord by up to ±maxDeg in each axis, clamped so the result
// remains a valid coordinate.
func jitter(coord Coordinate, maxDeg float64) Coordinate {
	return Coordinate{
		Latitude:  clamp(coord.Latitude+(rand.Float64()-0.5)*2*maxDeg, -90, 90),
		Longitude: clamp(coord.Longitude+(rand.Float64()-0.5)*2*maxDeg, -180, 180),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
