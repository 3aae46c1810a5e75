package api

import (
	"net/http"
)

// StreamHandler upgrades to the websocket ranking stream.
type StreamHandler struct {
	deps   Dependencies
	stream Stream
}

// NewStreamHandler creates a new stream handler. A nil stream disables it.
func NewStreamHandler(deps Dependencies, stream Stream) *StreamHandler {
	return &StreamHandler{deps: deps, stream: stream}
}

// HandleStream handles GET /tenants/{tenant}/ws.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if h.stream == nil {
		writeFailure(w, NewKind("stream", ErrNoStream))
		return
	}
	tenant := r.PathValue("tenant")
	if _, err := h.deps.Status(r.Context(), tenant); err != nil {
		writeFailure(w, err)
		return
	}
	h.stream.ServeTenant(w, r, tenant)
}
