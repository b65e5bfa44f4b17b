package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// HistoryHandler serves persisted probe results
type HistoryHandler struct {
	deps *Dependencies
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(deps *Dependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// GetHistory handles GET /api/v1/history/{probe}?limit=N
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.Recorder == nil {
		sendError(w, r, http.StatusServiceUnavailable, "HISTORY_DISABLED",
			"History persistence is not enabled", nil)
		return
	}

	name := chi.URLParam(r, "probe")
	if _, ok := h.deps.Registry.Get(name); !ok {
		sendError(w, r, http.StatusNotFound, "NOT_FOUND", "Probe not registered", nil)
		return
	}

	limit := h.deps.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 1000 {
			sendError(w, r, http.StatusBadRequest, "INVALID_LIMIT",
				"limit must be an integer between 1 and 1000", nil)
			return
		}
		limit = parsed
	}

	entries, err := h.deps.Recorder.History(r.Context(), name, limit)
	if err != nil {
		sendError(w, r, http.StatusInternalServerError, "DB_ERROR", "History query failed", nil)
		return
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"probe":   name,
		"entries": entries,
	})
}
