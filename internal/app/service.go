// Package service provides the core business service that implements
// the dependencies required by the HTTP API: tenant lifecycle, monitoring
// loops, ranking and actuation.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/redzone/internal/adapters/actuator"
	"github.com/okian/redzone/internal/adapters/channels"
	eventqueue "github.com/okian/redzone/internal/adapters/mq/queue"
	workerpool "github.com/okian/redzone/internal/adapters/mq/worker"
	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/internal/adapters/repository"
	"github.com/okian/redzone/internal/domain/dedupe"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/internal/domain/selection"
	"github.com/okian/redzone/internal/domain/teams"
	"github.com/okian/redzone/internal/domain/tracker"
	"github.com/okian/redzone/internal/domain/types"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

// Publisher receives a ranking update after every cycle.
type Publisher interface {
	Publish(tenant string, update types.RankingUpdate)
}

// forgetter is implemented by publishers that keep per-tenant state.
type forgetter interface {
	Forget(tenant string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, types.RankingUpdate) {}

// Service owns every tenant and the shared fetch pool.
type Service struct {
	mu      sync.Mutex
	tenants map[string]*tenant

	provider  provider.Provider
	actuator  actuator.Actuator
	channels  *channels.Map
	journal   repository.Store
	publisher Publisher
	registry  *teams.Registry

	queue *eventqueue.InMemoryQueue
	pool  *workerpool.Pool

	league            string
	pollInterval      time.Duration
	providerTimeout   time.Duration
	workerCount       int
	queueSize         int
	timeoutWindow     time.Duration
	scoreChangeWindow time.Duration
	hysteresis        float64
	dedupeSize        int
	statusLogSize     int

	now     func() time.Time
	baseCtx context.Context
	started bool
	stopped bool

	logger logger.Logger
}

// New constructs a Service around a provider and an actuator.
func New(p provider.Provider, a actuator.Actuator, opts ...Option) *Service {
	s := &Service{
		tenants:           make(map[string]*tenant),
		provider:          p,
		actuator:          a,
		channels:          channels.New(),
		publisher:         nopPublisher{},
		registry:          teams.Default(),
		league:            "nfl",
		pollInterval:      30 * time.Second,
		providerTimeout:   10 * time.Second,
		workerCount:       8,
		queueSize:         256,
		timeoutWindow:     120 * time.Second,
		scoreChangeWindow: 30 * time.Second,
		hysteresis:        selection.DefaultHysteresisBonus,
		dedupeSize:        50_000,
		statusLogSize:     defaultStatusLogSize,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.actuator == nil {
		s.actuator = actuator.NewLog()
	}
	if s.journal == nil {
		s.journal = repository.NewMemStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start starts the fetch pool. Tenant loops are started separately. A
// stopped Service cannot be restarted: its journal is closed.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}
	s.baseCtx = context.WithoutCancel(ctx)
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.provider)
	s.pool.Start(s.baseCtx)
	s.started = true

	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("pollInterval", s.pollInterval),
	)
	return nil
}

// Stop stops every tenant loop, drains the fetch pool and closes the journal.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started, s.stopped = false, true
	ts := make([]*tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		ts = append(ts, t)
	}
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping service...")
	for _, t := range ts {
		t.stop(ctx)
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "fetch pool shutdown", logger.Error(err))
	}
	if err := s.journal.Close(); err != nil {
		s.logger.Warn(ctx, "journal close", logger.Error(err))
	}
	s.logger.Info(ctx, "service stopped")
}

// CreateTenant registers a tenant. An empty id gets a generated one.
func (s *Service) CreateTenant(ctx context.Context, id, league string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if league == "" {
		league = s.league
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[id]; ok {
		return "", fmt.Errorf("%w: %s", ErrTenantExists, id)
	}
	s.tenants[id] = s.newTenant(id, league)
	metrics.UpdateTenants(len(s.tenants))
	s.logger.Info(ctx, "tenant created", logger.String("tenant", id), logger.String("league", league))
	return id, nil
}

func (s *Service) newTenant(id, league string) *tenant {
	return &tenant{
		id:     id,
		league: league,
		tracker: tracker.New(
			tracker.WithTenant(id),
			tracker.WithLeague(league),
			tracker.WithRegistry(s.registry),
			tracker.WithTimeoutWindow(s.timeoutWindow),
			tracker.WithScoreChangeWindow(s.scoreChangeWindow),
			tracker.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))),
		),
		status:        newStatusLog(s.statusLogSize),
		authenticated: true,
		log:           s.logger.With(logger.String("tenant", id)),
	}
}

// DeleteTenant stops a tenant's loop and forgets its state and journal.
func (s *Service) DeleteTenant(ctx context.Context, id string) error {
	s.mu.Lock()
	t, ok := s.tenants[id]
	if ok {
		delete(s.tenants, id)
	}
	n := len(s.tenants)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}

	t.stop(ctx)
	t.tracker.Reset(ctx)
	if err := s.journal.Forget(ctx, id); err != nil {
		s.logger.Warn(ctx, "journal forget", logger.String("tenant", id), logger.Error(err))
	}
	if f, ok := s.publisher.(forgetter); ok {
		f.Forget(id)
	}
	metrics.UpdateTenants(n)
	s.logger.Info(ctx, "tenant deleted", logger.String("tenant", id))
	return nil
}

// Tenants returns the registered tenant ids in order.
func (s *Service) Tenants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.tenants))
	for id := range s.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Service) lookup(id string) (*tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return t, nil
}

// StartMonitoring starts a tenant's loop. It runs a cycle immediately and then
// every poll interval. Starting a running tenant is a no-op.
func (s *Service) StartMonitoring(ctx context.Context, id string) error {
	t, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	started, base := s.started, s.baseCtx
	s.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}
	loopCtx, cancel := context.WithCancel(base)
	t.running, t.cancel, t.done = true, cancel, make(chan struct{})
	go s.loop(loopCtx, t, t.done)

	t.note(s.now(), "info", "monitoring started")
	t.log.Info(ctx, "monitoring started")
	return nil
}

// StopMonitoring stops a tenant's loop and waits for the running cycle.
func (s *Service) StopMonitoring(ctx context.Context, id string) error {
	t, err := s.lookup(id)
	if err != nil {
		return err
	}
	if t.stop(ctx) {
		t.note(s.now(), "info", "monitoring stopped")
		t.log.Info(ctx, "monitoring stopped")
	}
	return nil
}

// Refresh runs one cycle now and returns its report.
func (s *Service) Refresh(ctx context.Context, id string) (types.CycleReport, error) {
	t, err := s.lookup(id)
	if err != nil {
		return types.CycleReport{}, err
	}
	if !s.isStarted() {
		return types.CycleReport{}, ErrNotStarted
	}
	return s.runCycle(context.WithoutCancel(ctx), t), nil
}

func (s *Service) loop(ctx context.Context, t *tenant, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		// a stop request is honoured between cycles only
		s.runCycle(context.WithoutCancel(ctx), t)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RankedEvents recomputes the ranking of a tenant from its current states.
func (s *Service) RankedEvents(_ context.Context, id string) ([]types.RankedEvent, error) {
	t, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	dec := selection.Select(t.tracker.States(), t.selection().EventID, s.selectOptions())
	return rank(t, dec), nil
}

// TodaySchedule returns today's schedule for a league; empty uses the tenant's.
func (s *Service) TodaySchedule(ctx context.Context, id, league string) ([]model.ScheduleEntry, error) {
	t, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if league == "" {
		league = t.league
	}
	ctx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()
	return s.provider.TodaySchedule(ctx, league)
}

// Status returns the operator view of a tenant.
func (s *Service) Status(_ context.Context, id string) (types.TenantStatus, error) {
	t, err := s.lookup(id)
	if err != nil {
		return types.TenantStatus{}, err
	}
	t.mu.Lock()
	st := types.TenantStatus{
		ID:            t.id,
		League:        t.league,
		Running:       t.running,
		Authenticated: t.authenticated,
		Current:       t.current,
		LastCycleID:   t.lastCycleID,
		LastCycleAt:   t.lastCycleAt,
	}
	t.mu.Unlock()
	st.Tracked = t.tracker.Len()
	st.Log = t.status.snapshot()
	return st, nil
}

// Decisions returns the newest journal rows of a tenant.
func (s *Service) Decisions(ctx context.Context, id string, limit int) ([]repository.Decision, error) {
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	return s.journal.Recent(ctx, id, limit)
}

// Switch drives the actuator directly, bypassing selection. The next cycle
// re-tunes to its own choice.
func (s *Service) Switch(ctx context.Context, id, target string) error {
	t, err := s.lookup(id)
	if err != nil {
		return err
	}
	if target == "" {
		return ErrEmptyTarget
	}

	t.cycleMu.Lock()
	defer t.cycleMu.Unlock()

	now := s.now()
	err = s.actuator.SwitchTo(ctx, target)
	d := repository.Decision{
		CycleID: uuid.NewString(),
		Tenant:  id,
		At:      now,
		Target:  target,
		Outcome: repository.OutcomeManual,
	}
	t.mu.Lock()
	switch {
	case err == nil:
		t.current = types.Selection{Target: target}
		t.authenticated = true
	case isAuthLost(err):
		t.authenticated = false
		d.Outcome = repository.OutcomeAuthLost
	default:
		d.Outcome = repository.OutcomeFailed
	}
	t.mu.Unlock()
	if err != nil {
		d.Error = err.Error()
		t.note(now, "error", "manual switch to "+target+" failed: "+err.Error())
	} else {
		t.note(now, "info", "manual switch to "+target)
	}
	if _, jerr := s.journal.Record(ctx, d); jerr != nil {
		t.log.Warn(ctx, "journal record", logger.Error(jerr))
	}
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := 0
	tracked := 0
	for _, t := range s.tenants {
		if t.isRunning() {
			running++
		}
		tracked += t.tracker.Len()
	}
	stats := map[string]interface{}{
		"started":        s.started,
		"tenants":        len(s.tenants),
		"runningTenants": running,
		"trackedEvents":  tracked,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"pollInterval":   s.pollInterval.String(),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	return stats
}

func (s *Service) isStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Service) selectOptions() selection.Options {
	return selection.Options{HysteresisBonus: s.hysteresis}
}

func rank(t *tenant, dec selection.Decision) []types.RankedEvent {
	out := make([]types.RankedEvent, 0, len(dec.Ranked))
	for i, e := range dec.Ranked {
		bd, _ := t.tracker.Breakdown(e.State.EventID)
		out = append(out, types.RankedEvent{
			Rank:      i + 1,
			EventID:   e.State.EventID,
			Score:     e.Score,
			Included:  e.Included,
			Current:   e.Current,
			Reason:    string(e.Reason),
			Breakdown: bd,
			State:     e.State,
		})
	}
	return out
}
