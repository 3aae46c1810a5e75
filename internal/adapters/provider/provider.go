// Package provider defines the sports data provider the engine polls.
package provider

import (
	"context"

	"github.com/okian/redzone/internal/domain/model"
)

// Provider supplies live event lists and per-event payloads.
type Provider interface {
	// ListLiveEvents returns the ids of events currently in progress.
	ListLiveEvents(ctx context.Context, league string) ([]string, error)
	// GetEventSnapshot returns the current raw payload of one event.
	GetEventSnapshot(ctx context.Context, eventID string) (model.Payload, error)
	// TodaySchedule lists today's events regardless of status.
	TodaySchedule(ctx context.Context, league string) ([]model.ScheduleEntry, error)
}
