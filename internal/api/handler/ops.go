package handler

import (
	"net/http"
	"time"

	"github.com/airsentinel/airsentinel/internal/api/models"
	"github.com/airsentinel/airsentinel/internal/api/response"
	"github.com/airsentinel/airsentinel/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now(),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
//
// The service degrades to synthesized data rather than failing, so it is
// ready as long as the process is serving. Provider state is reported but
// never flips readiness.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now(),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - upstream provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	overall := models.HealthStatusOK
	providers := []models.ProviderStatus{}

	for _, p := range h.registry.GetAllHealth() {
		status := models.HealthStatusOK
		switch {
		case p.IsUnhealthy():
			status = models.HealthStatusDown
		case p.IsDegraded():
			status = models.HealthStatusDegraded
		}
		if status != models.HealthStatusOK && overall == models.HealthStatusOK {
			overall = models.HealthStatusDegraded
		}

		providers = append(providers, models.ProviderStatus{
			Provider:      p.Name,
			Status:        status,
			CircuitState:  p.CircuitState.String(),
			LastSuccessAt: p.LastSuccessAt,
			LastFailureAt: p.LastFailureAt,
			LastError:     p.LastError,
		})
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:    overall,
		Time:      time.Now(),
		Providers: providers,
	})
}
