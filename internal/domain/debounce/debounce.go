// Package debounce implements the IDLE/ACTIVE state machine used for
// transient per-event conditions such as timeouts and score changes.
package debounce

import (
	"time"

	model "github.com/okian/redzone/internal/domain/model"
)

// Default windows.
const (
	DefaultTimeoutWindow     = 120 * time.Second
	DefaultScoreChangeWindow = 30 * time.Second
)

// ClearReason says why an active condition returned to IDLE.
type ClearReason string

const (
	ClearNone        ClearReason = ""
	ClearNewPlay     ClearReason = "new_play"
	ClearExpired     ClearReason = "expired"
	ClearTextChanged ClearReason = "text_changed"
)

// Observation is what the current snapshot says about the condition.
type Observation struct {
	Triggered bool
	PlayID    string
	PlayText  string
}

// Change reports what one Step did.
type Change struct {
	Cleared   bool
	Reason    ClearReason
	Activated bool
}

// None reports whether the step left the state untouched.
func (c Change) None() bool { return !c.Cleared && !c.Activated }

// Debouncer holds the policy of one condition kind.
type Debouncer struct {
	// Window is how long an activation may last without a new play.
	Window time.Duration
	// Gated refuses to activate again for the play that was last recorded,
	// so an expired activation is not re-armed by the same play.
	Gated bool
}

// Timeout returns the timeout debouncer policy.
func Timeout(window time.Duration) Debouncer {
	if window <= 0 {
		window = DefaultTimeoutWindow
	}
	return Debouncer{Window: window, Gated: true}
}

// ScoreChange returns the score-change debouncer policy.
func ScoreChange(window time.Duration) Debouncer {
	if window <= 0 {
		window = DefaultScoreChangeWindow
	}
	return Debouncer{Window: window}
}

// Step advances cur with one observation taken at now. An ACTIVE state for
// the same play and text is left alone. When a state clears because a new
// play arrived, the same observation may activate it again.
func (d Debouncer) Step(cur model.Debounce, obs Observation, now time.Time) (model.Debounce, Change) {
	var ch Change

	if cur.Active {
		switch {
		case obs.PlayID != cur.PlayID:
			ch.Reason = ClearNewPlay
		case now.Sub(cur.Since) > d.Window:
			ch.Reason = ClearExpired
		case obs.PlayText != cur.PlayText:
			ch.Reason = ClearTextChanged
		default:
			return cur, ch
		}
		ch.Cleared = true
		cur.Active = false
		cur.Since = time.Time{}
	}

	if !obs.Triggered {
		return cur, ch
	}
	if d.Gated && recorded(cur) && obs.PlayID == cur.PlayID && obs.PlayText == cur.PlayText {
		return cur, ch
	}

	ch.Activated = true
	return model.Debounce{Active: true, Since: now, PlayID: obs.PlayID, PlayText: obs.PlayText}, ch
}

func recorded(d model.Debounce) bool {
	return d.PlayID != "" || d.PlayText != ""
}
