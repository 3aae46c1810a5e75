package repository

import (
	"context"
	"sync"
)

const defaultMaxPerTenant = 1000

// MemStore is a bounded in-memory Store used when no journal file is configured.
type MemStore struct {
	mu           sync.RWMutex
	rows         map[string][]Decision
	nextID       int64
	maxPerTenant int
	closed       bool
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an in-memory journal.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{rows: map[string][]Decision{}, maxPerTenant: defaultMaxPerTenant}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends a decision.
func (s *MemStore) Record(_ context.Context, d Decision) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.nextID++
	d.ID = s.nextID
	rows := append(s.rows[d.Tenant], d)
	if over := len(rows) - s.maxPerTenant; over > 0 {
		rows = append([]Decision(nil), rows[over:]...)
	}
	s.rows[d.Tenant] = rows
	return d.ID, nil
}

// Recent returns the newest decisions first.
func (s *MemStore) Recent(_ context.Context, tenant string, limit int) ([]Decision, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	rows := s.rows[tenant]
	if limit > len(rows) {
		limit = len(rows)
	}
	out := make([]Decision, 0, limit)
	for i := len(rows) - 1; i >= len(rows)-limit; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

// Count returns the number of rows kept for a tenant.
func (s *MemStore) Count(_ context.Context, tenant string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[tenant]), nil
}

// Forget drops a tenant's rows.
func (s *MemStore) Forget(_ context.Context, tenant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, tenant)
	return nil
}

// Close marks the store closed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
