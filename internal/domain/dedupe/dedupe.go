// Package dedupe records which (event, play) pairs were already observed so
// distinct plays are counted once.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper records seen keys to ensure at-most-once counting.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// ForgetEvent drops every key recorded for an event.
	ForgetEvent(ctx context.Context, eventID string)

	Size() int64
}

// Key builds the dedupe key of one play of one event.
func Key(eventID, playID string) string {
	return eventID + "/" + playID
}

type slot struct {
	key string
	seq uint64
}

// inMemoryDeduper keeps at most maxSize keys and evicts the oldest first.
// Slots of forgotten keys stay in the ring until overwritten; seq tells a
// stale slot from a live one.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64 // key -> seq of its live slot
	ring    []slot
	next    int
	seq     uint64
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize <= 0 {
		d.maxSize = defaultMaxSize
	}
	d.seen = make(map[string]uint64, d.maxSize)
	d.ring = make([]slot, d.maxSize)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}

	old := d.ring[d.next]
	if seq, live := d.seen[old.key]; live && seq == old.seq && old.key != "" {
		delete(d.seen, old.key)
		d.size.Add(-1)
	}

	d.seq++
	d.ring[d.next] = slot{key: key, seq: d.seq}
	d.seen[key] = d.seq
	d.next = (d.next + 1) % len(d.ring)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) ForgetEvent(_ context.Context, eventID string) {
	prefix := eventID + "/"

	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.seen {
		if strings.HasPrefix(key, prefix) {
			delete(d.seen, key)
			d.size.Add(-1)
		}
	}
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
