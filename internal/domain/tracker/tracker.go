// Package tracker owns the EventStates of one tenant and runs each snapshot
// through normalization, possession and redzone resolution, debouncing and
// scoring.
package tracker

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/redzone/internal/domain/debounce"
	"github.com/okian/redzone/internal/domain/dedupe"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/internal/domain/normalize"
	"github.com/okian/redzone/internal/domain/possession"
	"github.com/okian/redzone/internal/domain/redzone"
	"github.com/okian/redzone/internal/domain/scoring"
	"github.com/okian/redzone/internal/domain/teams"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

var endOfPeriodMarkers = []string{"end of", "end quarter", "end half"}

// Tracker holds the live events of one tenant. It is safe for concurrent use.
type Tracker struct {
	mu         sync.RWMutex
	states     map[string]*model.EventState
	breakdowns map[string]scoring.Breakdown

	tenant  string
	league  string
	reg     *teams.Registry
	timeout debounce.Debouncer
	score   debounce.Debouncer
	plays   dedupe.Deduper
	log     logger.Logger
}

// New creates a tracker. The global logger must be initialized unless
// WithLogger is given.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		states:     make(map[string]*model.EventState),
		breakdowns: make(map[string]scoring.Breakdown),
		tenant:     "default",
		league:     "nfl",
		reg:        teams.Default(),
		timeout:    debounce.Timeout(debounce.DefaultTimeoutWindow),
		score:      debounce.ScoreChange(debounce.DefaultScoreChangeWindow),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.plays == nil {
		t.plays = dedupe.NewInMemoryDeduper()
	}
	if t.log == nil {
		t.log = logger.Named("tracker")
	}
	t.log = t.log.With(logger.String("tenant", t.tenant))
	return t
}

// Sync reconciles tracked events with the provider's live list. New ids get a
// placeholder state marked Stale until their first snapshot; ids no longer
// listed are discarded and returned.
func (t *Tracker) Sync(ctx context.Context, live []string) []string {
	listed := make(map[string]struct{}, len(live))
	for _, id := range live {
		listed[id] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted []string
	for id := range t.states {
		if _, ok := listed[id]; !ok {
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	for _, id := range evicted {
		delete(t.states, id)
		delete(t.breakdowns, id)
		t.plays.ForgetEvent(ctx, id)
		metrics.RecordEventEvicted(t.tenant, id)
		t.log.Info(ctx, "event left live list", logger.String("event_id", id))
	}

	for id := range listed {
		if s, ok := t.states[id]; ok {
			s.Live = true
			continue
		}
		s := &model.EventState{EventID: id, League: t.league, Live: true, Stale: true}
		t.states[id] = s
		t.rescore(s)
		t.log.Info(ctx, "tracking event", logger.String("event_id", id))
	}

	metrics.UpdateEventsTracked(t.tenant, len(t.states))
	return evicted
}

// MarkUnlisted records that the live list could not be read: every tracked
// event keeps its state but is no longer confirmed live. The next successful
// Sync confirms the listed ones again.
func (t *Tracker) MarkUnlisted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.states {
		s.Live = false
	}
}

// MarkStale flags an event whose snapshot could not be fetched. Its last
// known state is kept and stays eligible for ranking.
func (t *Tracker) MarkStale(eventID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[eventID]; ok {
		s.Stale = true
	}
}

// Apply folds a raw payload into the event's state and returns the result.
// Applying the same payload twice leaves every flag and debounce timestamp
// unchanged.
func (t *Tracker) Apply(ctx context.Context, p model.Payload, now time.Time) model.EventState {
	snap := normalize.Normalize(p)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[snap.EventID]
	if !ok {
		s = &model.EventState{EventID: snap.EventID, League: t.league, Live: true}
		t.states[snap.EventID] = s
		metrics.UpdateEventsTracked(t.tenant, len(t.states))
	}
	// A zero RefreshedAt means no snapshot was applied yet.
	fresh := s.RefreshedAt.IsZero()
	log := t.log.With(logger.String("event_id", s.EventID))

	applyIdentity(s, snap)
	prevHome, prevAway := s.HomeScore, s.AwayScore
	scoreChanged := t.applyScores(ctx, log, s, snap, fresh)

	if snap.Quarter != nil {
		s.Quarter = *snap.Quarter
	}
	if snap.ClockSeconds != nil {
		s.ClockSeconds = *snap.ClockSeconds
	}
	if snap.HasDownDistance {
		s.Down, s.Distance = snap.Down, snap.Distance
	}
	playType := ""
	if snap.HasPlay {
		playType = snap.PlayType
		t.applyPlay(ctx, s, snap, now)
	}

	if snap.HasSituation {
		t.applyPossession(s, snap)
		t.applyRedzone(ctx, log, s, snap, now)
	}

	timeoutSeen := snap.HasPlay && (containsFold(playType, "timeout") || containsFold(snap.PlayText, "timeout"))
	var ch debounce.Change
	s.Timeout, ch = t.timeout.Step(s.Timeout, debounce.Observation{
		Triggered: timeoutSeen,
		PlayID:    s.LastPlayID,
		PlayText:  s.LastPlayText,
	}, now)
	t.report(ctx, log, "timeout", ch)

	s.ScoreChange.Debounce, ch = t.score.Step(s.ScoreChange.Debounce, debounce.Observation{
		Triggered: scoreChanged,
		PlayID:    s.LastPlayID,
		PlayText:  s.LastPlayText,
	}, now)
	if ch.Activated {
		s.ScoreChange.PrevHome, s.ScoreChange.PrevAway = prevHome, prevAway
	}
	t.report(ctx, log, "score_change", ch)

	s.EndOfPeriod = s.ClockSeconds == 0 || endOfPeriod(s.LastPlayText)
	s.Stale = false
	s.RefreshedAt = now
	t.rescore(s)
	return *s
}

func applyIdentity(s *model.EventState, snap model.Snapshot) {
	if snap.League != "" {
		s.League = snap.League
	}
	setIf(&s.HomeTeam, snap.HomeTeam)
	setIf(&s.AwayTeam, snap.AwayTeam)
	setIf(&s.HomeAbbrev, snap.HomeAbbrev)
	setIf(&s.AwayAbbrev, snap.AwayAbbrev)
	setIf(&s.HomeID, snap.HomeID)
	setIf(&s.AwayID, snap.AwayID)
}

// applyScores stores new scores and reports whether either side changed. The
// first scores of an event are a baseline, not a change. A decrease is kept
// and flagged as a data error.
func (t *Tracker) applyScores(ctx context.Context, log logger.Logger, s *model.EventState, snap model.Snapshot, fresh bool) bool {
	home, away := s.HomeScore, s.AwayScore
	if snap.HomeScore != nil {
		home = *snap.HomeScore
	}
	if snap.AwayScore != nil {
		away = *snap.AwayScore
	}
	changed := home != s.HomeScore || away != s.AwayScore
	if changed && !fresh && (home < s.HomeScore || away < s.AwayScore) {
		s.ScoreRegression = true
		metrics.RecordScoreRegression()
		log.Warn(ctx, "score decreased for live event",
			logger.Int("prev_home", s.HomeScore), logger.Int("prev_away", s.AwayScore),
			logger.Int("home", home), logger.Int("away", away))
	}
	s.HomeScore, s.AwayScore = home, away
	return changed && !fresh
}

func (t *Tracker) applyPlay(ctx context.Context, s *model.EventState, snap model.Snapshot, now time.Time) {
	if snap.PlayID == s.LastPlayID && snap.PlayText == s.LastPlayText {
		return
	}
	s.LastPlayID, s.LastPlayText, s.LastPlayAt = snap.PlayID, snap.PlayText, now
	if snap.PlayID != "" && !t.plays.SeenAndRecord(ctx, dedupe.Key(s.EventID, snap.PlayID)) {
		metrics.RecordPlayObserved()
	}
}

func (t *Tracker) applyPossession(s *model.EventState, snap model.Snapshot) {
	in := possession.Input{
		Matchup:        matchup(s),
		HomeID:         s.HomeID,
		AwayID:         s.AwayID,
		PossessionText: snap.PossessionText,
		PlayTeamID:     snap.PlayTeamID,
		PlayTeamName:   snap.PlayTeamName,
		PlayText:       s.LastPlayText,
	}
	res := possession.Resolve(t.reg, in)
	s.Possession, s.PossessionTier = res.Side, string(res.Tier)
	metrics.RecordPossessionTier(string(res.Tier))
}

func (t *Tracker) applyRedzone(ctx context.Context, log logger.Logger, s *model.EventState, snap model.Snapshot, now time.Time) {
	r := redzone.Detect(t.reg, redzone.Input{
		Matchup:      matchup(s),
		DriveEnd:     snap.DriveEnd,
		ProviderFlag: snap.ProviderRedzone,
		Possession:   s.Possession,
	})
	switch {
	case errors.Is(r.Err, redzone.ErrUnknownAbbrev):
		log.Info(ctx, "drive-end marker names neither team", logger.String("marker", snap.DriveEnd))
	case r.Err != nil:
		log.Debug(ctx, "drive-end marker not usable", logger.String("marker", snap.DriveEnd), logger.Error(r.Err))
	}

	entered := r.InRedzone && (!s.InRedzone || s.RedzoneTeam != r.Team)
	s.InRedzone, s.RedzoneTeam, s.YardsToEndzone = r.InRedzone, r.Team, r.Yards
	if entered {
		s.LastRedzoneAt = now
		fields := []logger.Field{logger.String("team", r.Team), logger.String("source", string(r.Source))}
		if r.Yards != nil {
			fields = append(fields, logger.Int("yards", *r.Yards))
		}
		log.Info(ctx, "redzone entry", fields...)
	}
}

func (t *Tracker) report(ctx context.Context, log logger.Logger, kind string, ch debounce.Change) {
	if ch.Cleared {
		metrics.RecordDebounceTransition(kind, "cleared")
		log.Debug(ctx, "transient condition cleared", logger.String("kind", kind), logger.String("reason", string(ch.Reason)))
	}
	if ch.Activated {
		metrics.RecordDebounceTransition(kind, "activated")
		log.Info(ctx, "transient condition active", logger.String("kind", kind))
	}
}

// rescore must be called with t.mu held.
func (t *Tracker) rescore(s *model.EventState) {
	b := scoring.Score(*s)
	s.Excitement = b.Total
	t.breakdowns[s.EventID] = b
	metrics.UpdateExcitementScore(t.tenant, s.EventID, b.Total)
}

// States returns copies of every tracked state ordered by event id.
func (t *Tracker) States() []model.EventState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.EventState, 0, len(t.states))
	for _, s := range t.states {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

// Get returns a copy of one state.
func (t *Tracker) Get(eventID string) (model.EventState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[eventID]
	if !ok {
		return model.EventState{}, false
	}
	return *s, true
}

// Breakdown returns the latest score breakdown of an event.
func (t *Tracker) Breakdown(eventID string) (scoring.Breakdown, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.breakdowns[eventID]
	return b, ok
}

// Len returns the number of tracked events.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.states)
}

// Reset discards every state.
func (t *Tracker) Reset(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.states {
		t.plays.ForgetEvent(ctx, id)
	}
	t.states = make(map[string]*model.EventState)
	t.breakdowns = make(map[string]scoring.Breakdown)
	metrics.ForgetTenant(t.tenant)
}

func matchup(s *model.EventState) teams.Matchup {
	return teams.Matchup{
		HomeName:   s.HomeTeam,
		AwayName:   s.AwayTeam,
		HomeAbbrev: s.HomeAbbrev,
		AwayAbbrev: s.AwayAbbrev,
	}
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

func endOfPeriod(text string) bool {
	text = strings.ToLower(text)
	for _, m := range endOfPeriodMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
