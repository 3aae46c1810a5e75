package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/redzone/internal/adapters/actuator"
	"github.com/okian/redzone/internal/adapters/http/api"
	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/internal/adapters/repository"
	service "github.com/okian/redzone/internal/app"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps is an in-memory Dependencies with programmable failures.
type mockDeps struct {
	mu        sync.Mutex
	tenants   map[string]bool
	running   map[string]bool
	switched  []string
	limit     int
	switchErr error
	schedErr  error
}

func newMockDeps() *mockDeps {
	return &mockDeps{tenants: map[string]bool{}, running: map[string]bool{}}
}

func (m *mockDeps) has(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.tenants[id] {
		return fmt.Errorf("%w: %s", service.ErrTenantNotFound, id)
	}
	return nil
}

func (m *mockDeps) CreateTenant(_ context.Context, id, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = "generated"
	}
	if m.tenants[id] {
		return "", service.ErrTenantExists
	}
	m.tenants[id] = true
	return id, nil
}

func (m *mockDeps) DeleteTenant(_ context.Context, id string) error {
	if err := m.has(id); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.tenants, id)
	m.mu.Unlock()
	return nil
}

func (m *mockDeps) Tenants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tenants))
	for id := range m.tenants {
		out = append(out, id)
	}
	return out
}

func (m *mockDeps) RankedEvents(_ context.Context, id string) ([]types.RankedEvent, error) {
	if err := m.has(id); err != nil {
		return nil, err
	}
	return []types.RankedEvent{
		{Rank: 1, EventID: "401", Score: 2215.5, Included: true, Reason: "redzone"},
		{Rank: 2, EventID: "402", Score: -100, Reason: "score_not_positive"},
	}, nil
}

func (m *mockDeps) TodaySchedule(_ context.Context, id, _ string) ([]model.ScheduleEntry, error) {
	if err := m.has(id); err != nil {
		return nil, err
	}
	if m.schedErr != nil {
		return nil, m.schedErr
	}
	return []model.ScheduleEntry{{EventID: "401"}}, nil
}

func (m *mockDeps) Status(_ context.Context, id string) (types.TenantStatus, error) {
	if err := m.has(id); err != nil {
		return types.TenantStatus{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.TenantStatus{ID: id, League: "nfl", Running: m.running[id], Authenticated: true}, nil
}

func (m *mockDeps) Decisions(_ context.Context, id string, limit int) ([]repository.Decision, error) {
	if err := m.has(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.limit = limit
	m.mu.Unlock()
	return []repository.Decision{{ID: 1, Tenant: id, EventID: "401", Outcome: repository.OutcomeSwitched}}, nil
}

func (m *mockDeps) StartMonitoring(_ context.Context, id string) error {
	if err := m.has(id); err != nil {
		return err
	}
	m.mu.Lock()
	m.running[id] = true
	m.mu.Unlock()
	return nil
}

func (m *mockDeps) StopMonitoring(_ context.Context, id string) error {
	if err := m.has(id); err != nil {
		return err
	}
	m.mu.Lock()
	m.running[id] = false
	m.mu.Unlock()
	return nil
}

func (m *mockDeps) Refresh(_ context.Context, id string) (types.CycleReport, error) {
	if err := m.has(id); err != nil {
		return types.CycleReport{}, err
	}
	return types.CycleReport{CycleID: "c1", Tenant: id, Live: 2, Target: "401", Switched: true, Outcome: "switched"}, nil
}

func (m *mockDeps) Switch(_ context.Context, id, target string) error {
	if err := m.has(id); err != nil {
		return err
	}
	if target == "" {
		return service.ErrEmptyTarget
	}
	if m.switchErr != nil {
		return m.switchErr
	}
	m.mu.Lock()
	m.switched = append(m.switched, target)
	m.mu.Unlock()
	return nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "tenants": 1}
}

type mockStream struct{ served []string }

func (s *mockStream) ServeTenant(w http.ResponseWriter, _ *http.Request, tenant string) {
	s.served = append(s.served, tenant)
	w.WriteHeader(http.StatusTeapot)
}

func newTestServer(deps *mockDeps, stream api.Stream) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}, stream).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func do(srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	So(err, ShouldBeNil)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestTenantRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDeps()
		srv := newTestServer(deps, nil)
		defer srv.Close()

		Convey("POST /tenants creates a tenant", func() {
			resp, body := do(srv, http.MethodPost, "/tenants", `{"id":"studio-a","league":"NFL"}`)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(body["id"], ShouldEqual, "studio-a")

			Convey("creating it again conflicts", func() {
				resp, body := do(srv, http.MethodPost, "/tenants", `{"id":"studio-a"}`)
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "conflict")
			})

			Convey("GET /tenants lists it", func() {
				resp, body := do(srv, http.MethodGet, "/tenants", "")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["tenants"], ShouldResemble, []any{"studio-a"})
			})

			Convey("DELETE removes it", func() {
				resp, _ := do(srv, http.MethodDelete, "/tenants/studio-a", "")
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

				resp, _ = do(srv, http.MethodGet, "/tenants/studio-a/status", "")
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("an empty body generates an id", func() {
			resp, body := do(srv, http.MethodPost, "/tenants", "")
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(body["id"], ShouldEqual, "generated")
		})

		Convey("malformed JSON is a bad request", func() {
			resp, body := do(srv, http.MethodPost, "/tenants", `{"id":`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")
		})

		Convey("unknown tenants are 404 on every tenant route", func() {
			for _, path := range []string{"/tenants/nope/ranking", "/tenants/nope/status", "/tenants/nope/decisions", "/tenants/nope/schedule"} {
				resp, body := do(srv, http.MethodGet, path, "")
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			}
		})
	})
}

func TestReadRoutes(t *testing.T) {
	Convey("Given a tenant", t, func() {
		deps := newMockDeps()
		deps.tenants["t1"] = true
		srv := newTestServer(deps, nil)
		defer srv.Close()

		Convey("ranking returns ordered events", func() {
			resp, body := do(srv, http.MethodGet, "/tenants/t1/ranking", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			events, ok := body["events"].([]any)
			So(ok, ShouldBeTrue)
			So(len(events), ShouldEqual, 2)
			first := events[0].(map[string]any)
			So(first["event_id"], ShouldEqual, "401")
			So(first["reason"], ShouldEqual, "redzone")
		})

		Convey("status reports the tenant", func() {
			resp, body := do(srv, http.MethodGet, "/tenants/t1/status", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["id"], ShouldEqual, "t1")
			So(body["running"], ShouldEqual, false)
		})

		Convey("decisions default the limit", func() {
			resp, body := do(srv, http.MethodGet, "/tenants/t1/decisions", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.limit, ShouldEqual, 50)
			So(len(body["decisions"].([]any)), ShouldEqual, 1)
		})

		Convey("decisions honor an explicit limit", func() {
			resp, _ := do(srv, http.MethodGet, "/tenants/t1/decisions?limit=7", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.limit, ShouldEqual, 7)
		})

		Convey("invalid limits are rejected", func() {
			for _, q := range []string{"0", "-1", "abc", "100000"} {
				resp, _ := do(srv, http.MethodGet, "/tenants/t1/decisions?limit="+q, "")
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("schedule maps provider failures", func() {
			deps.schedErr = fmt.Errorf("scoreboard: %w", provider.ErrUnavailable)
			resp, body := do(srv, http.MethodGet, "/tenants/t1/schedule", "")
			So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
			So(body["code"], ShouldEqual, "provider_unavailable")

			deps.schedErr = provider.ErrUnsupportedLeague
			resp, _ = do(srv, http.MethodGet, "/tenants/t1/schedule?league=mlb", "")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("stats and metrics are served", func() {
			resp, body := do(srv, http.MethodGet, "/stats", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldEqual, true)

			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}

func TestControlRoutes(t *testing.T) {
	Convey("Given a tenant", t, func() {
		deps := newMockDeps()
		deps.tenants["t1"] = true
		srv := newTestServer(deps, nil)
		defer srv.Close()

		Convey("start and stop toggle monitoring", func() {
			resp, body := do(srv, http.MethodPost, "/tenants/t1/start", "")
			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
			So(body["status"], ShouldEqual, "running")
			So(deps.running["t1"], ShouldBeTrue)

			resp, _ = do(srv, http.MethodPost, "/tenants/t1/stop", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.running["t1"], ShouldBeFalse)
		})

		Convey("refresh returns the cycle report", func() {
			resp, body := do(srv, http.MethodPost, "/tenants/t1/refresh", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["target"], ShouldEqual, "401")
			So(body["outcome"], ShouldEqual, "switched")
		})

		Convey("switch forwards the target", func() {
			resp, _ := do(srv, http.MethodPost, "/tenants/t1/switch", `{"target":" 212 "}`)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.switched, ShouldResemble, []string{"212"})
		})

		Convey("switch without a target is a bad request", func() {
			resp, _ := do(srv, http.MethodPost, "/tenants/t1/switch", `{}`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("auth loss is reported distinctly", func() {
			deps.switchErr = fmt.Errorf("switch: %w", actuator.ErrAuthLost)
			resp, body := do(srv, http.MethodPost, "/tenants/t1/switch", `{"target":"206"}`)
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			So(body["code"], ShouldEqual, "auth_lost")
		})

		Convey("rejected switches are bad gateway", func() {
			deps.switchErr = actuator.ErrRejected
			resp, body := do(srv, http.MethodPost, "/tenants/t1/switch", `{"target":"206"}`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
			So(body["code"], ShouldEqual, "actuation_failed")
		})

		Convey("wrong methods are rejected by the mux", func() {
			resp, _ := do(srv, http.MethodGet, "/tenants/t1/switch", "")
			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestStreamRoute(t *testing.T) {
	Convey("Given the stream route", t, func() {
		deps := newMockDeps()
		deps.tenants["t1"] = true

		Convey("without a stream it is unavailable", func() {
			srv := newTestServer(deps, nil)
			defer srv.Close()
			resp, _ := do(srv, http.MethodGet, "/tenants/t1/ws", "")
			So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("with a stream it serves known tenants only", func() {
			stream := &mockStream{}
			srv := newTestServer(deps, stream)
			defer srv.Close()

			resp, _ := do(srv, http.MethodGet, "/tenants/ghost/ws", "")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(stream.served, ShouldBeEmpty)

			resp, _ = do(srv, http.MethodGet, "/tenants/t1/ws", "")
			So(resp.StatusCode, ShouldEqual, http.StatusTeapot)
			So(stream.served, ShouldResemble, []string{"t1"})
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Op errors expose kind and cause", t, func() {
		cause := fmt.Errorf("boom")
		err := api.WrapKind("decode", api.ErrBadRequest, cause)
		So(err.Error(), ShouldEqual, "decode: bad request: boom")
		So(api.Wrap("op", nil), ShouldBeNil)
		So(api.NewKind("x", api.ErrNotFound).Error(), ShouldEqual, "x: not found")
	})
}
