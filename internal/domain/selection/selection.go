// Package selection ranks scored events and picks the one to display.
package selection

import (
	"sort"

	model "github.com/okian/redzone/internal/domain/model"
)

// DefaultHysteresisBonus is added to the currently displayed event.
const DefaultHysteresisBonus = 5

// Reason explains why an event was included or excluded.
type Reason string

const (
	ReasonRedzone     Reason = "redzone"
	ReasonCandidate   Reason = "candidate"
	ReasonTimeout     Reason = "timeout"
	ReasonEndOfPeriod Reason = "end_of_period"
	ReasonNotPositive Reason = "score_not_positive"
)

// Entry is one ranked event. Score includes the hysteresis bonus.
type Entry struct {
	State    model.EventState `json:"state"`
	Score    float64          `json:"score"`
	Included bool             `json:"included"`
	Current  bool             `json:"current"`
	Reason   Reason           `json:"reason"`
}

// Decision is the outcome of one selection.
type Decision struct {
	Ranked   []Entry `json:"ranked"`
	Target   string  `json:"target,omitempty"`
	Switch   bool    `json:"switch"`
	Fallback bool    `json:"fallback"`
}

// Options tunes the selector.
type Options struct {
	HysteresisBonus float64
}

// Select ranks states and chooses a target given the currently displayed
// event id (empty when nothing is displayed). Included events come first,
// ordered by score descending then event id ascending; excluded events
// follow in the same order.
func Select(states []model.EventState, current string, opts Options) Decision {
	entries := make([]Entry, 0, len(states))
	for _, s := range states {
		e := Entry{State: s, Score: s.Excitement, Current: current != "" && s.EventID == current}
		if e.Current {
			e.Score += opts.HysteresisBonus
		}
		switch {
		case filtered(s) && s.Timeout.Active:
			e.Reason = ReasonTimeout
		case filtered(s):
			e.Reason = ReasonEndOfPeriod
		case e.Score <= 0:
			e.Reason = ReasonNotPositive
		case s.InRedzone:
			e.Included, e.Reason = true, ReasonRedzone
		default:
			e.Included, e.Reason = true, ReasonCandidate
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Included != b.Included {
			return a.Included
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.State.EventID < b.State.EventID
	})

	d := Decision{Ranked: entries}
	if len(entries) > 0 && entries[0].Included {
		d.Target = entries[0].State.EventID
		d.Switch = d.Target != current
		return d
	}

	// No candidate. A filtered current event gives way to the first
	// unfiltered event by id.
	if cur, ok := find(states, current); ok && filtered(cur) {
		if alt, ok := firstUnfiltered(states); ok {
			d.Target, d.Switch, d.Fallback = alt, alt != current, true
		}
	}
	return d
}

// filtered reports an obvious commercial or dead-time state not overridden
// by a live redzone.
func filtered(s model.EventState) bool {
	return (s.Timeout.Active || s.EndOfPeriod) && !s.InRedzone
}

func find(states []model.EventState, id string) (model.EventState, bool) {
	if id == "" {
		return model.EventState{}, false
	}
	for _, s := range states {
		if s.EventID == id {
			return s, true
		}
	}
	return model.EventState{}, false
}

func firstUnfiltered(states []model.EventState) (string, bool) {
	best := ""
	for _, s := range states {
		if filtered(s) {
			continue
		}
		if best == "" || s.EventID < best {
			best = s.EventID
		}
	}
	return best, best != ""
}
