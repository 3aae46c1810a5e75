// Package worker runs provider snapshot fetches concurrently for monitoring
// cycles.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/redzone/internal/adapters/mq/queue"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

const (
	defaultWorkerCount  = 8
	defaultFetchTimeout = 10 * time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Fetcher loads one event snapshot. provider.Provider satisfies it.
type Fetcher interface {
	GetEventSnapshot(ctx context.Context, eventID string) (model.Payload, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Enqueuer submits jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, j queue.Job) bool
}

// InMemoryWorker fetches snapshots for jobs read from a Queue.
type InMemoryWorker struct {
	queue   Queue
	fetcher Fetcher
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, fetcher Fetcher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		fetcher:  fetcher,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until ctx is done, Shutdown is called, or the queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(j)
		}
	}
}

// Shutdown stops the worker and waits for the job in hand to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(j queue.Job) {
	parent := j.Ctx
	if parent == nil {
		parent = context.Background()
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	payload, err := w.fetcher.GetEventSnapshot(ctx, j.EventID)
	latency := time.Since(start)
	metrics.RecordWorkerProcessingLatency(float64(latency.Milliseconds()))

	if err != nil {
		w.logger.Debug(ctx, "snapshot fetch failed",
			logger.String("tenant", j.Tenant),
			logger.String("event_id", j.EventID),
			logger.Error(err),
		)
	}

	res := queue.Result{EventID: j.EventID, Payload: payload, Err: err, Latency: latency}
	select {
	case j.Reply <- res:
	default:
		w.logger.Warn(ctx, "reply channel full, result dropped", logger.String("event_id", j.EventID))
	}
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers; non-positive counts use the default.
func NewPool(workerCount int, q Queue, fetcher Fetcher) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, fetcher, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}

// FetchAll submits one job per event id and waits for every result or for ctx
// to end. Events that could not be queued or did not answer in time carry an
// error in their Result.
func FetchAll(ctx context.Context, q Enqueuer, tenant string, ids []string, timeout time.Duration) map[string]queue.Result {
	out := make(map[string]queue.Result, len(ids))
	reply := make(chan queue.Result, len(ids))

	pending := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := pending[id]; dup {
			continue
		}
		j := queue.Job{Ctx: ctx, Tenant: tenant, EventID: id, Timeout: timeout, Reply: reply}
		if !q.Enqueue(ctx, j) {
			out[id] = queue.Result{EventID: id, Err: queue.ErrFull}
			continue
		}
		pending[id] = struct{}{}
	}

	for len(pending) > 0 {
		select {
		case r := <-reply:
			out[r.EventID] = r
			delete(pending, r.EventID)
		case <-ctx.Done():
			for id := range pending {
				out[id] = queue.Result{EventID: id, Err: fmt.Errorf("awaiting fetch: %w", ctx.Err())}
			}
			return out
		}
	}
	return out
}
