package api

import (
	"net/http"
	"strings"
)

type createTenantRequest struct {
	ID     string `json:"id"`
	League string `json:"league"`
}

type createTenantResponse struct {
	ID string `json:"id"`
}

// TenantsHandler creates, lists and evicts tenants.
type TenantsHandler struct {
	deps Dependencies
}

// NewTenantsHandler creates a new tenants handler.
func NewTenantsHandler(deps Dependencies) *TenantsHandler {
	return &TenantsHandler{deps: deps}
}

// HandleList handles GET /tenants.
func (h *TenantsHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"tenants": h.deps.Tenants()})
}

// HandleCreate handles POST /tenants. An empty id is generated.
func (h *TenantsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, WrapKind("tenants.create", ErrBadRequest, err))
		return
	}
	id, err := h.deps.CreateTenant(r.Context(), strings.TrimSpace(req.ID), strings.ToLower(strings.TrimSpace(req.League)))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createTenantResponse{ID: id})
}

// HandleDelete handles DELETE /tenants/{tenant}.
func (h *TenantsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteTenant(r.Context(), r.PathValue("tenant")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
