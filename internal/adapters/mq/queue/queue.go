// Package queue carries scoring jobs from the service to the worker pool.
//
// The queue is an in-memory bounded channel. Enqueue never blocks: a full or
// closed queue rejects the job and the caller reports backpressure.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/perfcore/internal/domain/scoring"
	"github.com/okian/perfcore/pkg/metrics"
)

const defaultQueueCapacity = 4096

// Scorer computes one composite result; *scoring.Scorer satisfies it.
type Scorer interface {
	Compute(in scoring.Input) scoring.Result
}

// Job is one member's scoring request within a team run.
type Job struct {
	RunID    string
	MemberID string
	Input    scoring.Input
	Scorer   Scorer
	// Reply receives exactly one Outcome. It must be buffered for the whole run
	// so that workers never block on a caller that gave up.
	Reply chan<- Outcome
}

// Outcome is the reply to a Job.
type Outcome struct {
	RunID    string
	MemberID string
	Result   scoring.Result
	Err      error
	// Elapsed is the time the worker spent computing Result.
	Elapsed time.Duration
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job to the queue.
	// Returns false if the queue is full or closed and the job was not enqueued.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel that will receive jobs as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs and closes the dequeue channels once drained.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Capacity returns the maximum number of queued jobs.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	return q.Submit(ctx, j) == nil
}

// Submit is Enqueue with the rejection reason: ErrClosed, ErrFull or the context error.
func (q *InMemoryQueue) Submit(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.reject("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		q.reject("context_cancelled")
		return fmt.Errorf("enqueue %s/%s: %w", j.RunID, j.MemberID, err)
	}
	if len(q.jobs) >= q.capacity {
		q.reject("capacity_exceeded")
		return ErrFull
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		q.reject("queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) observe() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				select {
				case out <- j:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					// the consumer is gone; answer so the caller is not left waiting
					j.Fail(ErrClosed)
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.observe()
	return len(q.jobs)
}

// Close gracefully shuts down the queue.
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

// Fail answers a job with err without blocking.
func (j Job) Fail(err error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	if j.Reply == nil {
		return
	}
	select {
	case j.Reply <- Outcome{RunID: j.RunID, MemberID: j.MemberID, Err: err}:
	default:
	}
}
