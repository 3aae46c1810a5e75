package tracker

import (
	"time"

	"github.com/okian/redzone/internal/domain/debounce"
	"github.com/okian/redzone/internal/domain/dedupe"
	"github.com/okian/redzone/internal/domain/teams"
	"github.com/okian/redzone/pkg/logger"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithTenant labels metrics and logs with a tenant id.
func WithTenant(tenant string) Option {
	return func(t *Tracker) {
		if tenant != "" {
			t.tenant = tenant
		}
	}
}

// WithLeague sets the league tag of newly tracked events.
func WithLeague(league string) Option {
	return func(t *Tracker) {
		if league != "" {
			t.league = league
		}
	}
}

// WithRegistry sets the team registry.
func WithRegistry(reg *teams.Registry) Option {
	return func(t *Tracker) {
		if reg != nil {
			t.reg = reg
		}
	}
}

// WithTimeoutWindow sets how long a timeout stays active without a new play.
func WithTimeoutWindow(d time.Duration) Option {
	return func(t *Tracker) {
		t.timeout = debounce.Timeout(d)
	}
}

// WithScoreChangeWindow sets how long a score change stays active without a new play.
func WithScoreChangeWindow(d time.Duration) Option {
	return func(t *Tracker) {
		t.score = debounce.ScoreChange(d)
	}
}

// WithDeduper sets the play deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(t *Tracker) {
		if d != nil {
			t.plays = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}
