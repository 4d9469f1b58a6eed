// Package handler provides HTTP handlers for the AirSentinel API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/airsentinel/airsentinel/internal/airquality"
	"github.com/airsentinel/airsentinel/internal/api/models"
	"github.com/airsentinel/airsentinel/internal/api/response"
)

// AirQualityHandler handles air quality data endpoints.
type AirQualityHandler struct {
	svc *airquality.Service
}

// NewAirQualityHandler creates a new AirQualityHandler.
func NewAirQualityHandler(svc *airquality.Service) *AirQualityHandler {
	return &AirQualityHandler{svc: svc}
}

// LatestMeasurements handles GET /v1/air-quality/latest.
func (h *AirQualityHandler) LatestMeasurements(w http.ResponseWriter, r *http.Request) {
	lat, lon, fieldErrs := parseCoordinateParams(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}

	result, err := h.svc.LatestMeasurements(r.Context(), lat, lon)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// NearbyStations handles GET /v1/air-quality/stations.
func (h *AirQualityHandler) NearbyStations(w http.ResponseWriter, r *http.Request) {
	lat, lon, fieldErrs := parseCoordinateParams(r)

	radiusKm := 0.0
	if raw := r.URL.Query().Get("radius_km"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   "radius_km",
				Message: "must be a positive number",
			})
		} else {
			radiusKm = v
		}
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   "limit",
				Message: "must be a positive integer",
			})
		} else {
			limit = v
		}
	}

	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}

	result, err := h.svc.NearbyStations(r.Context(), lat, lon, radiusKm, limit)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// SensorSeries handles GET /v1/air-quality/sensors/{sensorId}/series.
func (h *AirQualityHandler) SensorSeries(w http.ResponseWriter, r *http.Request) {
	sensorID := chi.URLParam(r, "sensorId")

	aggregation := airquality.AggregationHours
	if raw := r.URL.Query().Get("aggregation"); raw != "" {
		aggregation = airquality.Aggregation(raw)
	}

	var fieldErrs []models.FieldError
	opts := airquality.SeriesOptions{}

	if raw := r.URL.Query().Get("date_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   "date_from",
				Message: "must be an RFC 3339 timestamp",
			})
		} else {
			opts.DateFrom = t
		}
	}
	if raw := r.URL.Query().Get("date_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   "date_to",
				Message: "must be an RFC 3339 timestamp",
			})
		} else {
			opts.DateTo = t
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   "limit",
				Message: "must be a positive integer",
			})
		} else {
			opts.Limit = v
		}
	}

	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}

	result, err := h.svc.SensorSeries(r.Context(), sensorID, aggregation, opts)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// ListParameters handles GET /v1/air-quality/parameters.
func (h *AirQualityHandler) ListParameters(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ParameterCatalog(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to load parameter catalog")
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// parseCoordinateParams reads the required lat and lon query parameters.
// Missing or malformed values are reported as field errors; range checks
// belong to the service.
func parseCoordinateParams(r *http.Request) (lat, lon float64, fieldErrs []models.FieldError) {
	rawLat := r.URL.Query().Get("lat")
	rawLon := r.URL.Query().Get("lon")

	if rawLat == "" {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "lat", Message: "is required"})
	} else if v, err := strconv.ParseFloat(rawLat, 64); err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "lat", Message: "must be a number"})
	} else {
		lat = v
	}

	if rawLon == "" {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "lon", Message: "is required"})
	} else if v, err := strconv.ParseFloat(rawLon, 64); err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "lon", Message: "must be a number"})
	} else {
		lon = v
	}

	return lat, lon, fieldErrs
}
