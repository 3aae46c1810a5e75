// Package repository persists the decision journal: one row per monitoring
// cycle that produced a selection, with the actuation outcome.
package repository

import (
	"context"
	"time"
)

// Actuation outcomes.
const (
	OutcomeSwitched = "switched"
	OutcomeKept     = "kept"
	OutcomeNoTarget = "no_target"
	OutcomeFailed   = "failed"
	OutcomeAuthLost = "auth_lost"
	OutcomeManual   = "manual"
)

// Decision is one journal row.
type Decision struct {
	ID       int64     `json:"id"`
	CycleID  string    `json:"cycle_id"`
	Tenant   string    `json:"tenant"`
	At       time.Time `json:"at"`
	EventID  string    `json:"event_id,omitempty"`
	Target   string    `json:"target,omitempty"`
	Score    float64   `json:"score"`
	Reason   string    `json:"reason,omitempty"`
	Fallback bool      `json:"fallback"`
	Outcome  string    `json:"outcome"`
	Error    string    `json:"error,omitempty"`
}

// Store records and reads decisions.
type Store interface {
	// Record appends a decision and returns its id.
	Record(ctx context.Context, d Decision) (int64, error)

	// Recent returns up to limit decisions of a tenant, newest first.
	// Returns ErrInvalidLimit if limit is not positive.
	Recent(ctx context.Context, tenant string, limit int) ([]Decision, error)

	// Count returns the number of decisions stored for a tenant.
	Count(ctx context.Context, tenant string) (int, error)

	// Forget drops a tenant's decisions.
	Forget(ctx context.Context, tenant string) error

	Close() error
}
