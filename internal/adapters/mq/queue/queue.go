// Package queue is the bounded job queue between a monitoring cycle and the
// fetch pool.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Job asks the fetch pool for one event snapshot. Ctx is the requesting
// cycle's context; Timeout bounds the provider call. Reply must have room for
// the result so a worker never blocks on it.
type Job struct {
	Ctx     context.Context
	Tenant  string
	EventID string
	Timeout time.Duration
	Reply   chan<- Result
}

// Result is the outcome of a Job.
type Result struct {
	EventID string
	Payload model.Payload
	Err     error
	Latency time.Duration
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It reports false when the queue is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns the channel workers read jobs from. It is closed when
	// the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Job

	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a job to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	}

	select {
	case q.jobs <- j:
		metrics.UpdateQueueSize(len(q.jobs))
		return true
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		return false
	}
}

// Dequeue returns the job channel. Every worker shares the same channel, so
// each job is delivered once.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Len returns the number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.jobs)
	metrics.UpdateQueueSize(n)
	return n
}

// Close stops accepting jobs. Jobs already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
