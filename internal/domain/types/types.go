// Package types contains common types used across the application
package types

import (
	"time"

	model "github.com/okian/redzone/internal/domain/model"
	scoring "github.com/okian/redzone/internal/domain/scoring"
)

// RankedEvent is one row of a ranking: the event, its score after
// hysteresis, and why it was included or excluded.
type RankedEvent struct {
	Rank      int               `json:"rank"`
	EventID   string            `json:"event_id"`
	Score     float64           `json:"score"`
	Included  bool              `json:"included"`
	Current   bool              `json:"current"`
	Reason    string            `json:"reason"`
	Breakdown scoring.Breakdown `json:"breakdown"`
	State     model.EventState  `json:"state"`
}

// Selection is the displayed event of a tenant.
type Selection struct {
	EventID string `json:"event_id,omitempty"`
	Target  string `json:"target,omitempty"`
}

// StatusLine is one entry of a tenant's status log.
type StatusLine struct {
	At      time.Time `json:"at"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// TenantStatus is the operator view of one tenant.
type TenantStatus struct {
	ID            string       `json:"id"`
	League        string       `json:"league"`
	Running       bool         `json:"running"`
	Authenticated bool         `json:"authenticated"`
	Current       Selection    `json:"current"`
	Tracked       int          `json:"tracked"`
	LastCycleID   string       `json:"last_cycle_id,omitempty"`
	LastCycleAt   time.Time    `json:"last_cycle_at"`
	Log           []StatusLine `json:"log"`
}

// CycleReport summarizes one monitoring cycle.
type CycleReport struct {
	CycleID  string    `json:"cycle_id"`
	Tenant   string    `json:"tenant"`
	At       time.Time `json:"at"`
	Live     int       `json:"live"`
	Evicted  []string  `json:"evicted,omitempty"`
	Stale    []string  `json:"stale,omitempty"`
	Target   string    `json:"target,omitempty"`
	Switched bool      `json:"switched"`
	Outcome  string    `json:"outcome"`
	Error    string    `json:"error,omitempty"`
}

// RankingUpdate is pushed to stream subscribers after every cycle.
type RankingUpdate struct {
	Tenant  string        `json:"tenant"`
	CycleID string        `json:"cycle_id"`
	At      time.Time     `json:"at"`
	Current Selection     `json:"current"`
	Ranked  []RankedEvent `json:"ranked"`
}
