package airquality

import (
	"fmt"
	"math"
)

// Coordinate is a validated geographic position.
// Construct via ValidateCoordinate so the range invariants hold.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ValidateCoordinate checks that lat and lon are finite numbers within
// [-90, 90] and [-180, 180] respectively. Violations return a non-retryable
// InvalidInput error naming the offending bound.
func ValidateCoordinate(lat, lon float64) (Coordinate, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return Coordinate{}, invalidInput("latitude must be a finite number")
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return Coordinate{}, invalidInput("longitude must be a finite number")
	}
	if lat < -90 || lat > 90 {
		return Coordinate{}, invalidInput(fmt.Sprintf("latitude %g out of range: must be between -90 and 90 degrees", lat))
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, invalidInput(fmt.Sprintf("longitude %g out of range: must be between -180 and 180 degrees", lon))
	}
	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

// DistanceKm returns the haversine distance between two coordinates in kilometers.
func (c Coordinate) DistanceKm(other Coordinate) float64 {
	const earthRadiusKm = 6371

	lat1 := c.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - c.Latitude) * math.Pi / 180
	dLon := (other.Longitude - c.Longitude) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
