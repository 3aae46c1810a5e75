package service

import (
	"sync"
	"time"

	"github.com/okian/redzone/internal/domain/types"
)

const defaultStatusLogSize = 100

// statusLog keeps the last N human-readable lines of a tenant.
type statusLog struct {
	mu    sync.Mutex
	lines []types.StatusLine
	next  int
	full  bool
}

func newStatusLog(size int) *statusLog {
	if size <= 0 {
		size = defaultStatusLogSize
	}
	return &statusLog{lines: make([]types.StatusLine, size)}
}

func (l *statusLog) add(at time.Time, level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[l.next] = types.StatusLine{At: at, Level: level, Message: msg}
	l.next = (l.next + 1) % len(l.lines)
	if l.next == 0 {
		l.full = true
	}
}

// snapshot returns the lines oldest first.
func (l *statusLog) snapshot() []types.StatusLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return append([]types.StatusLine(nil), l.lines[:l.next]...)
	}
	out := make([]types.StatusLine, 0, len(l.lines))
	out = append(out, l.lines[l.next:]...)
	return append(out, l.lines[:l.next]...)
}
