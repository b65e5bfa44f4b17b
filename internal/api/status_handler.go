package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/statushub/statushub/internal/status"
)

// StatusHandler serves the current snapshot and probe listings
type StatusHandler struct {
	deps *Dependencies
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(deps *Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// GetSnapshot handles GET /api/v1/status. Returns 503 until the first
// cycle completes; callers must handle the uninitialized state.
func (h *StatusHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.deps.Aggregator.Current()
	if snap == nil {
		sendError(w, r, http.StatusServiceUnavailable, "NO_SNAPSHOT",
			"No snapshot available yet, first cycle has not completed", nil)
		return
	}

	sendJSON(w, http.StatusOK, snap)
}

// ProbeStatusResponse is one probe's current entry plus its last-known-good
// value when the current entry is a failure
type ProbeStatusResponse struct {
	Current  status.ProbeResult  `json:"current"`
	LastGood *status.ProbeResult `json:"last_good,omitempty"`
}

// GetProbe handles GET /api/v1/status/{probe}
func (h *StatusHandler) GetProbe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "probe")

	if _, ok := h.deps.Registry.Get(name); !ok {
		sendError(w, r, http.StatusNotFound, "NOT_FOUND", "Probe not registered", nil)
		return
	}

	snap := h.deps.Aggregator.Current()
	if snap == nil {
		sendError(w, r, http.StatusServiceUnavailable, "NO_SNAPSHOT",
			"No snapshot available yet, first cycle has not completed", nil)
		return
	}

	result, ok := snap.Result(name)
	if !ok {
		// Registered after the current snapshot was composed
		sendError(w, r, http.StatusServiceUnavailable, "NO_RESULT",
			"Probe has not been collected yet", nil)
		return
	}

	resp := ProbeStatusResponse{Current: result}
	if !result.OK {
		if good, ok := h.deps.Aggregator.LastGood(name); ok {
			resp.LastGood = &good
		}
	}

	sendJSON(w, http.StatusOK, resp)
}

// ListProbes handles GET /api/v1/probes
func (h *StatusHandler) ListProbes(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"probes": h.deps.Registry.List(),
	})
}
