package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/redzone/internal/adapters/mq/queue"
	"github.com/okian/redzone/internal/adapters/mq/worker"
	"github.com/okian/redzone/internal/domain/model"
	logging "github.com/okian/redzone/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var errBoom = errors.New("boom")

type mockFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	block map[string]bool
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{calls: map[string]int{}, fail: map[string]error{}, block: map[string]bool{}}
}

func (m *mockFetcher) GetEventSnapshot(ctx context.Context, id string) (model.Payload, error) {
	m.mu.Lock()
	m.calls[id]++
	err, block := m.fail[id], m.block[id]
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return model.Payload{}, ctx.Err()
	}
	if err != nil {
		return model.Payload{}, err
	}
	return model.Payload{EventID: id, League: "nfl"}, nil
}

func (m *mockFetcher) count(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

type fullQueue struct{}

func (fullQueue) Enqueue(context.Context, queue.Job) bool { return false }

func TestWorker(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a single worker", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		f := newMockFetcher()
		w := worker.NewInMemoryWorker(q, f, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			reply := make(chan queue.Result, 1)
			convey.So(q.Enqueue(ctx, queue.Job{Ctx: ctx, EventID: "401", Reply: reply}), convey.ShouldBeTrue)
			res := <-reply

			convey.Convey("Then the snapshot is delivered on the reply channel", func() {
				convey.So(res.Err, convey.ShouldBeNil)
				convey.So(res.EventID, convey.ShouldEqual, "401")
				convey.So(res.Payload.League, convey.ShouldEqual, "nfl")
			})
		})

		convey.Convey("When the provider hangs past the job timeout", func() {
			f.block["402"] = true
			reply := make(chan queue.Result, 1)
			q.Enqueue(ctx, queue.Job{Ctx: ctx, EventID: "402", Timeout: 20 * time.Millisecond, Reply: reply})
			res := <-reply

			convey.Convey("Then the result carries the deadline error", func() {
				convey.So(errors.Is(res.Err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			err := w.Shutdown(context.Background())
			convey.So(err, convey.ShouldBeNil)
		})
	})
}

func TestPoolFetchAll(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a started pool", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		f := newMockFetcher()
		f.fail["403"] = errBoom
		p := worker.NewPool(3, q, f)
		ctx := context.Background()
		p.Start(ctx)

		convey.So(p.Size(), convey.ShouldEqual, 3)

		convey.Convey("When fetching several events", func() {
			res := worker.FetchAll(ctx, q, "t1", []string{"401", "402", "403", "401"}, time.Second)

			convey.Convey("Then every event has exactly one result", func() {
				convey.So(res, convey.ShouldHaveLength, 3)
				convey.So(res["401"].Err, convey.ShouldBeNil)
				convey.So(res["402"].Payload.EventID, convey.ShouldEqual, "402")
				convey.So(errors.Is(res["403"].Err, errBoom), convey.ShouldBeTrue)
				convey.So(f.count("401"), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the wait is cut short", func() {
			f.block["404"] = true
			short, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
			defer cancel()
			res := worker.FetchAll(short, q, "t1", []string{"404"}, time.Minute)

			convey.Convey("Then the pending event reports the context error", func() {
				convey.So(res["404"].Err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When shutting down", func() {
			convey.So(p.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
		})

		convey.Reset(func() {
			if !q.IsClosed() {
				_ = p.Shutdown(ctx)
			}
		})
	})

	convey.Convey("Given a queue that rejects jobs", t, func() {
		res := worker.FetchAll(context.Background(), fullQueue{}, "t1", []string{"401"}, time.Second)
		convey.So(errors.Is(res["401"].Err, queue.ErrFull), convey.ShouldBeTrue)
	})
}
