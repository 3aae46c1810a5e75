package api

import (
	"net/http"
	"strconv"
)

const (
	defaultDecisionsLimit = 50
	maxDecisionsLimit     = 1000
)

// StatusHandler serves tenant status and the decision journal.
type StatusHandler struct {
	deps Dependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET /tenants/{tenant}/status.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.Status(r.Context(), r.PathValue("tenant"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleDecisions handles GET /tenants/{tenant}/decisions?limit=N.
func (h *StatusHandler) HandleDecisions(w http.ResponseWriter, r *http.Request) {
	limit := defaultDecisionsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxDecisionsLimit {
			writeFailure(w, NewKind("decisions", ErrBadRequest))
			return
		}
		limit = n
	}
	ds, err := h.deps.Decisions(r.Context(), r.PathValue("tenant"), limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": ds})
}
