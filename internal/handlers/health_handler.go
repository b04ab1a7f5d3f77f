package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/blueskyapp/social-api/pkg/mongodb"
)

type HealthResponse struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks,omitempty"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthHandler reports service liveness and dependency health
type HealthHandler struct {
	db      *mongodb.Client
	version string
}

func NewHealthHandler(db *mongodb.Client, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

func (h *HealthHandler) GetOverallHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Service: "bluesky-api",
		Version: h.version,
		Checks:  make(map[string]HealthCheck),
	}

	allHealthy := true

	start := time.Now()
	if err := h.db.Ping(); err != nil {
		allHealthy = false
		response.Checks["mongodb"] = HealthCheck{
			Status: "unhealthy",
			Error:  err.Error(),
		}
	} else {
		response.Checks["mongodb"] = HealthCheck{
			Status:  "healthy",
			Latency: time.Since(start).String(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if allHealthy {
		response.Status = "healthy"
		w.WriteHeader(http.StatusOK)
	} else {
		response.Status = "unhealthy"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}
