// Package airquality provides air quality data acquisition with retry,
// error classification, and fallback synthesis.
package airquality

import (
	"time"
)

// Parameter represents an air quality parameter (pollutant) type.
type Parameter string

const (
	ParameterPM25 Parameter = "pm25"
	ParameterPM10 Parameter = "pm10"
	ParameterO3   Parameter = "o3"
	ParameterNO2  Parameter = "no2"
	ParameterSO2  Parameter = "so2"
	ParameterCO   Parameter = "co"
)

// TrackedParameters returns all parameters the service reports on.
func TrackedParameters() []Parameter {
	return []Parameter{
		ParameterPM25,
		ParameterPM10,
		ParameterO3,
		ParameterNO2,
		ParameterSO2,
		ParameterCO,
	}
}

// PrimaryParameters returns the four parameters most stations measure.
func PrimaryParameters() []Parameter {
	return []Parameter{
		ParameterPM25,
		ParameterPM10,
		ParameterO3,
		ParameterNO2,
	}
}

// ParseParameter maps an upstream parameter name to a Parameter.
// Returns "" for parameters the service does not track.
func ParseParameter(name string) Parameter {
	switch name {
	case "pm25", "pm2.5":
		return ParameterPM25
	case "pm10":
		return ParameterPM10
	case "o3":
		return ParameterO3
	case "no2":
		return ParameterNO2
	case "so2":
		return ParameterSO2
	case "co":
		return ParameterCO
	default:
		return ""
	}
}

// Aggregation selects the time bucketing for sensor time series.
type Aggregation string

const (
	AggregationMeasurements Aggregation = "measurements"
	AggregationHours        Aggregation = "hours"
	AggregationDays         Aggregation = "days"
	AggregationYears        Aggregation = "years"
)

// Valid reports whether the aggregation is one the upstream API accepts.
func (a Aggregation) Valid() bool {
	switch a {
	case AggregationMeasurements, AggregationHours, AggregationDays, AggregationYears:
		return true
	}
	return false
}

// Measurement represents a single parameter reading at a location.
// Measurements are immutable once created.
type Measurement struct {
	Parameter    Parameter  `json:"parameter"`
	Value        float64    `json:"value"`
	Unit         string     `json:"unit"`
	ObservedAt   time.Time  `json:"observedAt"`
	LocationID   string     `json:"locationId,omitempty"`
	LocationName string     `json:"locationName,omitempty"`
	Coordinate   Coordinate `json:"coordinate"`
}

// Station represents a monitoring station near a queried coordinate.
// Stations are request-scoped, recreated per call and never cached.
type Station struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	DistanceKm float64     `json:"distanceKm"`
	Parameters []Parameter `json:"parameters"`
	IsActive   bool        `json:"isActive"`
	Coordinate Coordinate  `json:"coordinate"`
}

// Sensor identifies a single instrument at a location.
type Sensor struct {
	ID        string    `json:"id"`
	Parameter Parameter `json:"parameter"`
	Unit      string    `json:"unit,omitempty"`
}

// Location represents an upstream measurement location.
type Location struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Locality   string      `json:"locality,omitempty"`
	Country    string      `json:"country,omitempty"`
	DistanceKm float64     `json:"distanceKm"`
	Parameters []Parameter `json:"parameters"`
	Sensors    []Sensor    `json:"sensors,omitempty"`
	Coordinate Coordinate  `json:"coordinate"`
}

// TimeSeriesPoint is one aggregated value in a sensor time series.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Parameter Parameter `json:"parameter,omitempty"`
	Unit      string    `json:"unit,omitempty"`
}

// ParameterInfo describes a parameter in the upstream catalog.
type ParameterInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Units       string `json:"units"`
	Description string `json:"description,omitempty"`
}

// SeriesOptions narrows a sensor time series query.
type SeriesOptions struct {
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
}

// Meta carries upstream pagination metadata.
type Meta struct {
	Found int `json:"found"`
	Limit int `json:"limit"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// Result is the uniform envelope every service operation returns.
//
// Invariants: Success == false implies Data is empty and Error is set;
// IsFallback == true implies Success == true. A fallback is a degraded but
// successful outcome, never a failure.
type Result[T any] struct {
	Success        bool         `json:"success"`
	Data           T            `json:"data"`
	Meta           Meta         `json:"meta"`
	IsFallback     bool         `json:"isFallback"`
	FallbackReason string       `json:"fallbackReason,omitempty"`
	Error          *DomainError `json:"error,omitempty"`
}

// Live wraps data fetched from the upstream service.
func Live[T any](data T, meta Meta) Result[T] {
	return Result[T]{
		Success: true,
		Data:    data,
		Meta:    meta,
	}
}

// Fallback wraps synthesized data with the reason the live path failed.
func Fallback[T any](data T, meta Meta, reason string) Result[T] {
	return Result[T]{
		Success:        true,
		Data:           data,
		Meta:           meta,
		IsFallback:     true,
		FallbackReason: reason,
	}
}

// Rejected wraps an input validation failure. No data, no fallback.
func Rejected[T any](derr *DomainError) Result[T] {
	return Result[T]{
		Success: false,
		Error:   derr,
	}
}
