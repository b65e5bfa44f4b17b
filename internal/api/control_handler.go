package api

import (
	"net/http"
	"time"
)

// ControlHandler exposes the scheduler's control surface
type ControlHandler struct {
	deps *Dependencies
}

// NewControlHandler creates a new control handler
func NewControlHandler(deps *Dependencies) *ControlHandler {
	return &ControlHandler{deps: deps}
}

// RefreshResponse reports whether a new cycle started or the request was
// merged into the one already running
type RefreshResponse struct {
	Status    string    `json:"status"` // "started" or "coalesced"
	Timestamp time.Time `json:"timestamp"`
}

// Refresh handles POST /api/v1/refresh
func (h *ControlHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	started := h.deps.Scheduler.TriggerNow()

	result := "coalesced"
	if started {
		result = "started"
	}

	sendJSON(w, http.StatusAccepted, RefreshResponse{
		Status:    result,
		Timestamp: time.Now(),
	})
}

// SchedulerResponse describes the scheduler's current state
type SchedulerResponse struct {
	Started    bool   `json:"started"`
	State      string `json:"state"`
	IntervalMS int64  `json:"interval_ms"`
}

// GetScheduler handles GET /api/v1/scheduler
func (h *ControlHandler) GetScheduler(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, SchedulerResponse{
		Started:    h.deps.Scheduler.Started(),
		State:      string(h.deps.Scheduler.State()),
		IntervalMS: h.deps.Scheduler.Interval().Milliseconds(),
	})
}

// StartScheduler handles POST /api/v1/scheduler/start
func (h *ControlHandler) StartScheduler(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Scheduler.Start(h.deps.Interval); err != nil {
		sendError(w, r, http.StatusConflict, "ALREADY_STARTED", err.Error(), nil)
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// StopScheduler handles POST /api/v1/scheduler/stop
func (h *ControlHandler) StopScheduler(w http.ResponseWriter, r *http.Request) {
	h.deps.Scheduler.Stop()
	sendJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
