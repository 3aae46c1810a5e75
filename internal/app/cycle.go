package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	workerpool "github.com/okian/redzone/internal/adapters/mq/worker"
	"github.com/okian/redzone/internal/adapters/repository"
	"github.com/okian/redzone/internal/domain/selection"
	"github.com/okian/redzone/internal/domain/types"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

// Cycle outcomes used in metrics, reports and the journal.
const (
	outcomeListFailed = "list_failed"
)

// runCycle performs one monitoring cycle for a tenant: refresh the live list,
// fetch snapshots through the pool, rank, actuate, journal and publish. ctx
// must not carry the loop's stop signal.
func (s *Service) runCycle(ctx context.Context, t *tenant) types.CycleReport {
	t.cycleMu.Lock()
	defer t.cycleMu.Unlock()

	start := time.Now()
	now := s.now()
	rep := types.CycleReport{CycleID: uuid.NewString(), Tenant: t.id, At: now}
	log := t.log.With(logger.String("cycle_id", rep.CycleID))

	ids, listErr := s.listLive(ctx, t)
	if listErr != nil {
		// keep tracking what we had; one failed list must not evict everything
		log.Warn(ctx, "live list unavailable", logger.Error(listErr))
		t.note(now, "warn", "live list unavailable: "+listErr.Error())
		t.tracker.MarkUnlisted()
		ids = trackedIDs(t)
	} else {
		rep.Evicted = t.tracker.Sync(ctx, ids)
	}
	rep.Live = len(ids)

	// jobs are bounded by the provider timeout; this only guards a stopped pool
	waitCtx, cancel := context.WithTimeout(ctx, 2*s.providerTimeout)
	results := workerpool.FetchAll(waitCtx, s.queue, t.id, ids, s.providerTimeout)
	cancel()

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	for _, id := range sorted {
		r, ok := results[id]
		if !ok {
			continue
		}
		if r.Err != nil {
			t.tracker.MarkStale(id)
			rep.Stale = append(rep.Stale, id)
			log.Warn(ctx, "snapshot unavailable, keeping last state",
				logger.String("event_id", id), logger.Error(r.Err))
			continue
		}
		t.tracker.Apply(ctx, r.Payload, now)
	}
	if len(rep.Stale) > 0 {
		t.note(now, "warn", fmt.Sprintf("%d event(s) stale", len(rep.Stale)))
	}

	current := t.selection()
	dec := selection.Select(t.tracker.States(), current.EventID, s.selectOptions())
	rep.Target = dec.Target
	d := repository.Decision{
		CycleID:  rep.CycleID,
		Tenant:   t.id,
		At:       now,
		EventID:  dec.Target,
		Fallback: dec.Fallback,
	}
	if e, ok := topEntry(dec); ok {
		d.Score, d.Reason = e.Score, string(e.Reason)
	}

	switch {
	case listErr != nil && dec.Target == "":
		rep.Outcome = outcomeListFailed
		rep.Error = listErr.Error()
	case dec.Target == "":
		rep.Outcome = repository.OutcomeNoTarget
	case !dec.Switch:
		rep.Outcome = repository.OutcomeKept
		d.Target = current.Target
	default:
		rep.Outcome, d.Target, rep.Error = s.actuate(ctx, t, dec, now)
		rep.Switched = rep.Outcome == repository.OutcomeSwitched
	}
	d.Outcome, d.Error = rep.Outcome, rep.Error
	if rep.Outcome != outcomeListFailed {
		if _, err := s.journal.Record(ctx, d); err != nil {
			log.Warn(ctx, "journal record", logger.Error(err))
		}
	}

	t.mu.Lock()
	t.lastCycleID, t.lastCycleAt = rep.CycleID, now
	sel := t.current
	t.mu.Unlock()

	s.publisher.Publish(t.id, types.RankingUpdate{
		Tenant:  t.id,
		CycleID: rep.CycleID,
		At:      now,
		Current: sel,
		Ranked:  rank(t, dec),
	})

	metrics.RecordCycle(rep.Outcome)
	metrics.RecordCycleDuration(float64(time.Since(start).Milliseconds()))
	log.Debug(ctx, "cycle complete",
		logger.Int("live", rep.Live),
		logger.Int("stale", len(rep.Stale)),
		logger.String("target", rep.Target),
		logger.String("outcome", rep.Outcome),
	)
	return rep
}

func (s *Service) listLive(ctx context.Context, t *tenant) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()
	return s.provider.ListLiveEvents(ctx, t.league)
}

// actuate tunes to the decision's target. The displayed selection only moves
// when the actuator succeeds.
func (s *Service) actuate(ctx context.Context, t *tenant, dec selection.Decision, now time.Time) (outcome, target, errText string) {
	target = s.channels.Target(dec.Target)
	err := s.actuator.SwitchTo(ctx, target)

	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case err == nil:
		t.current = types.Selection{EventID: dec.Target, Target: target}
		t.authenticated = true
		t.note(now, "info", fmt.Sprintf("switched to %s (%s)", dec.Target, target))
		t.log.Info(ctx, "switched", logger.String("event_id", dec.Target), logger.String("target", target),
			logger.Bool("fallback", dec.Fallback))
		return repository.OutcomeSwitched, target, ""
	case isAuthLost(err):
		t.authenticated = false
		t.note(now, "error", "actuator authentication lost; re-authenticate to resume switching")
		t.log.Error(ctx, "actuator authentication lost", logger.Error(err))
		return repository.OutcomeAuthLost, target, err.Error()
	default:
		t.note(now, "error", "switch to "+target+" failed: "+err.Error())
		t.log.Warn(ctx, "switch failed", logger.String("target", target), logger.Error(err))
		return repository.OutcomeFailed, target, err.Error()
	}
}

func topEntry(dec selection.Decision) (selection.Entry, bool) {
	for _, e := range dec.Ranked {
		if e.State.EventID == dec.Target {
			return e, true
		}
	}
	return selection.Entry{}, false
}

func trackedIDs(t *tenant) []string {
	states := t.tracker.States()
	ids := make([]string, 0, len(states))
	for _, st := range states {
		ids = append(ids, st.EventID)
	}
	return ids
}
