package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker reports the state of each backing store
type HealthChecker interface {
	HealthCheck(ctx context.Context) map[string]string
}

// HealthHandler handles health check requests
type HealthHandler struct {
	checker HealthChecker
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		version: version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

// Check handles GET /health. Only an unhealthy database fails the check;
// the server degrades without Redis.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := h.checker.HealthCheck(ctx)

	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Version:    h.version,
		Service:    "ideathon-be",
		Components: components,
	}
	status := http.StatusOK
	if components["database"] != "healthy" {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	} else if components["redis"] == "unhealthy" {
		response.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
