package api

import (
	"net/http"
	"time"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	deps *Dependencies
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(deps *Dependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health (liveness probe)
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready handles GET /ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true

	if h.deps.Aggregator.Current() != nil {
		checks["snapshot"] = "ok"
	} else {
		checks["snapshot"] = "uninitialized"
		ready = false
	}

	if h.deps.Store != nil {
		if err := h.deps.Store.Ping(r.Context()); err != nil {
			checks["database"] = "unreachable"
			ready = false
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "disabled"
	}

	statusCode := http.StatusOK
	statusText := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		statusText = "not_ready"
	}

	sendJSON(w, statusCode, ReadinessResponse{
		Status:    statusText,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
