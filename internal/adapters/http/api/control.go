package api

import (
	"net/http"
	"strings"
)

type switchRequest struct {
	Target string `json:"target"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// ControlHandler starts, stops and refreshes monitoring, and drives manual
// switches.
type ControlHandler struct {
	deps Dependencies
}

// NewControlHandler creates a new control handler.
func NewControlHandler(deps Dependencies) *ControlHandler {
	return &ControlHandler{deps: deps}
}

// HandleStart handles POST /tenants/{tenant}/start.
func (h *ControlHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.StartMonitoring(r.Context(), r.PathValue("tenant")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, statusResponse{Status: "running"})
}

// HandleStop handles POST /tenants/{tenant}/stop.
func (h *ControlHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.StopMonitoring(r.Context(), r.PathValue("tenant")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "stopped"})
}

// HandleRefresh handles POST /tenants/{tenant}/refresh: one cycle, now.
func (h *ControlHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.Refresh(r.Context(), r.PathValue("tenant"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleSwitch handles POST /tenants/{tenant}/switch {"target": "..."}.
func (h *ControlHandler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, WrapKind("switch", ErrBadRequest, err))
		return
	}
	if err := h.deps.Switch(r.Context(), r.PathValue("tenant"), strings.TrimSpace(req.Target)); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "switched"})
}
