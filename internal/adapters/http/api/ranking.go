package api

import (
	"net/http"
	"strings"
)

// RankingHandler serves rankings and schedules.
type RankingHandler struct {
	deps Dependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps Dependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleRanking handles GET /tenants/{tenant}/ranking. The ranking is
// recomputed from the tenant's current states on every call.
func (h *RankingHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.deps.RankedEvents(r.Context(), r.PathValue("tenant"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": ranked})
}

// HandleSchedule handles GET /tenants/{tenant}/schedule?league=nfl.
func (h *RankingHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	league := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("league")))
	sched, err := h.deps.TodaySchedule(r.Context(), r.PathValue("tenant"), league)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": sched})
}
