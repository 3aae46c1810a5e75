package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/redzone/internal/adapters/actuator"
	"github.com/okian/redzone/internal/domain/tracker"
	"github.com/okian/redzone/internal/domain/types"
	"github.com/okian/redzone/pkg/logger"
)

// tenant is one isolated monitoring context.
type tenant struct {
	id      string
	league  string
	tracker *tracker.Tracker
	status  *statusLog
	log     logger.Logger

	// cycleMu serializes cycles and manual switches.
	cycleMu sync.Mutex

	mu            sync.Mutex
	current       types.Selection
	authenticated bool
	running       bool
	cancel        context.CancelFunc
	done          chan struct{}
	lastCycleID   string
	lastCycleAt   time.Time
}

func (t *tenant) selection() types.Selection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *tenant) isRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// stop cancels the loop and waits for it to exit or for ctx to end. It
// reports whether a loop was running.
func (t *tenant) stop(ctx context.Context) bool {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return false
	}
	cancel, done := t.cancel, t.done
	t.running, t.cancel, t.done = false, nil, nil
	t.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		t.log.Warn(ctx, "monitoring loop did not stop in time")
	}
	return true
}

func (t *tenant) note(at time.Time, level, msg string) {
	t.status.add(at, level, msg)
}

func isAuthLost(err error) bool {
	return errors.Is(err, actuator.ErrAuthLost)
}
