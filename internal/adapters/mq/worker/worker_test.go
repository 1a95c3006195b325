package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/perfcore/internal/adapters/mq/queue"
	worker "github.com/okian/perfcore/internal/adapters/mq/worker"
	"github.com/okian/perfcore/internal/domain/model"
	"github.com/okian/perfcore/internal/domain/scoring"
	logging "github.com/okian/perfcore/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 64)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type panickingScorer struct{}

func (panickingScorer) Compute(scoring.Input) scoring.Result {
	panic("boom")
}

// countingScorer records how many members it scored.
type countingScorer struct {
	mu    sync.Mutex
	count int
}

func (c *countingScorer) Compute(in scoring.Input) scoring.Result {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
	return scoring.ComputeComposite(in)
}

func (c *countingScorer) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func receive(t *testing.T, ch <-chan queue.Outcome) queue.Outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a reply")
		return queue.Outcome{}
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			reply := make(chan queue.Outcome, 1)
			q.jobs <- queue.Job{
				RunID:    "run-1",
				MemberID: "alice",
				Input:    scoring.Input{Goals: []model.Goal{{Progress: 100, Status: model.GoalCompleted}}},
				Scorer:   scoring.NewScorer(),
				Reply:    reply,
			}
			out := receive(t, reply)

			convey.Convey("Then it should reply with the composite result", func() {
				convey.So(out.Err, convey.ShouldBeNil)
				convey.So(out.RunID, convey.ShouldEqual, "run-1")
				convey.So(out.MemberID, convey.ShouldEqual, "alice")
				goals, ok := out.Result.Dimension("GOAL_ACHIEVEMENT")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(goals.RawScore, convey.ShouldEqual, 100)
				convey.So(w.Processed(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the scorer panics", func() {
			reply := make(chan queue.Outcome, 1)
			q.jobs <- queue.Job{RunID: "run-2", MemberID: "bob", Scorer: panickingScorer{}, Reply: reply}
			out := receive(t, reply)

			convey.Convey("Then the panic should become an error reply", func() {
				convey.So(errors.Is(out.Err, worker.ErrJobPanicked), convey.ShouldBeTrue)
				convey.So(out.MemberID, convey.ShouldEqual, "bob")
			})

			convey.Convey("And the worker should keep serving", func() {
				next := make(chan queue.Outcome, 1)
				q.jobs <- queue.Job{MemberID: "carol", Scorer: scoring.NewScorer(), Reply: next}
				convey.So(receive(t, next).Err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a job has no scorer", func() {
			reply := make(chan queue.Outcome, 1)
			q.jobs <- queue.Job{MemberID: "dave", Reply: reply}

			convey.Convey("Then it should be answered with ErrNoScorer", func() {
				convey.So(errors.Is(receive(t, reply).Err, worker.ErrNoScorer), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it should stop gracefully", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose queue closes", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q)
		done := make(chan struct{})

		convey.Convey("When the queue channel is closed", func() {
			go func() {
				w.Run(context.Background())
				close(done)
			}()
			_ = q.Close()

			convey.Convey("Then the worker should stop", func() {
				select {
				case <-done:
					convey.So(true, convey.ShouldBeTrue)
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool over an in-memory queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(256))
		pool := worker.NewPool(4, q)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When created with a non-positive count", func() {
			defaulted := worker.NewPool(0, q)

			convey.Convey("Then it should size itself from the CPU count", func() {
				convey.So(defaulted.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When scoring a team concurrently", func() {
			pool.Start(ctx)
			scorer := &countingScorer{}
			members := 50
			reply := make(chan queue.Outcome, members)
			for i := 0; i < members; i++ {
				ok := q.Enqueue(ctx, queue.Job{
					RunID:    "team",
					MemberID: fmt.Sprintf("m%02d", i),
					Input:    scoring.Input{Reviews: []model.Review{{Rating: float64(1 + i%5), Type: model.ReviewPeer, ReviewerTrust: 80}}},
					Scorer:   scorer,
					Reply:    reply,
				})
				convey.So(ok, convey.ShouldBeTrue)
			}

			seen := map[string]bool{}
			for i := 0; i < members; i++ {
				out := receive(t, reply)
				convey.So(out.Err, convey.ShouldBeNil)
				seen[out.MemberID] = true
			}

			convey.Convey("Then every member should be answered exactly once", func() {
				convey.So(seen, convey.ShouldHaveLength, members)
				convey.So(scorer.calls(), convey.ShouldEqual, members)
				convey.So(pool.Processed(), convey.ShouldEqual, members)
			})

			convey.Convey("And each worker should count only its own jobs", func() {
				counts := pool.WorkerProcessed()
				convey.So(counts, convey.ShouldHaveLength, pool.Size())
				var sum int64
				for _, c := range counts {
					convey.So(c, convey.ShouldBeBetweenOrEqual, 0, members)
					sum += c
				}
				convey.So(sum, convey.ShouldEqual, members)
			})

			convey.Convey("And shutdown should drain and stop the workers", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(q.Enqueue(ctx, queue.Job{}), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When stopping a pool that was never started", func() {
			convey.Convey("Then it should return immediately", func() {
				convey.So(func() { pool.Stop() }, convey.ShouldNotPanic)
				convey.So(func() { pool.Stop() }, convey.ShouldNotPanic)
			})
		})
	})
}
