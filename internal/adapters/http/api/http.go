// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/redzone/internal/adapters/actuator"
	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/internal/adapters/repository"
	service "github.com/okian/redzone/internal/app"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/internal/domain/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateTenant(ctx context.Context, id, league string) (string, error)
	DeleteTenant(ctx context.Context, id string) error
	Tenants() []string

	RankedEvents(ctx context.Context, tenant string) ([]types.RankedEvent, error)
	TodaySchedule(ctx context.Context, tenant, league string) ([]model.ScheduleEntry, error)
	Status(ctx context.Context, tenant string) (types.TenantStatus, error)
	Decisions(ctx context.Context, tenant string, limit int) ([]repository.Decision, error)

	StartMonitoring(ctx context.Context, tenant string) error
	StopMonitoring(ctx context.Context, tenant string) error
	Refresh(ctx context.Context, tenant string) (types.CycleReport, error)
	Switch(ctx context.Context, tenant, target string) error
}

// Stream serves the live ranking stream of a tenant.
type Stream interface {
	ServeTenant(w http.ResponseWriter, r *http.Request, tenant string)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	tenantsHandler *TenantsHandler
	rankingHandler *RankingHandler
	statusHandler  *StatusHandler
	controlHandler *ControlHandler
	streamHandler  *StreamHandler
}

// NewServer creates a new API server with all handlers. stream may be nil.
func NewServer(deps Dependencies, statsProvider StatsProvider, stream Stream) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		tenantsHandler: NewTenantsHandler(deps),
		rankingHandler: NewRankingHandler(deps),
		statusHandler:  NewStatusHandler(deps),
		controlHandler: NewControlHandler(deps),
		streamHandler:  NewStreamHandler(deps, stream),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /tenants", MetricsMiddleware(s.tenantsHandler.HandleList, "tenants"))
	mux.HandleFunc("POST /tenants", MetricsMiddleware(s.tenantsHandler.HandleCreate, "tenants"))
	mux.HandleFunc("DELETE /tenants/{tenant}", MetricsMiddleware(s.tenantsHandler.HandleDelete, "tenant"))

	mux.HandleFunc("GET /tenants/{tenant}/ranking", MetricsMiddleware(s.rankingHandler.HandleRanking, "ranking"))
	mux.HandleFunc("GET /tenants/{tenant}/schedule", MetricsMiddleware(s.rankingHandler.HandleSchedule, "schedule"))
	mux.HandleFunc("GET /tenants/{tenant}/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("GET /tenants/{tenant}/decisions", MetricsMiddleware(s.statusHandler.HandleDecisions, "decisions"))

	mux.HandleFunc("POST /tenants/{tenant}/start", MetricsMiddleware(s.controlHandler.HandleStart, "start"))
	mux.HandleFunc("POST /tenants/{tenant}/stop", MetricsMiddleware(s.controlHandler.HandleStop, "stop"))
	mux.HandleFunc("POST /tenants/{tenant}/refresh", MetricsMiddleware(s.controlHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("POST /tenants/{tenant}/switch", MetricsMiddleware(s.controlHandler.HandleSwitch, "switch"))

	// no metrics wrapper: the upgrade needs the raw ResponseWriter
	mux.HandleFunc("GET /tenants/{tenant}/ws", s.streamHandler.HandleStream)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain errors to HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, service.ErrEmptyTarget):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound), errors.Is(err, service.ErrTenantNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrTenantExists), errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, actuator.ErrAuthLost):
		writeError(w, http.StatusConflict, "auth_lost", err)
	case errors.Is(err, actuator.ErrRejected):
		writeError(w, http.StatusBadGateway, "actuation_failed", err)
	case errors.Is(err, provider.ErrUnsupportedLeague):
		writeError(w, http.StatusBadRequest, "unsupported_league", err)
	case errors.Is(err, provider.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "provider_unavailable", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrStopped), errors.Is(err, ErrNoStream):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
