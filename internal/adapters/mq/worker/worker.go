// Package worker runs scoring jobs pulled from the job queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/perfcore/internal/adapters/mq/queue"
	"github.com/okian/perfcore/pkg/logger"
	"github.com/okian/perfcore/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker computes composite scores for queued jobs and replies on each job's channel.
type InMemoryWorker struct {
	queue Queue
	name  string

	processed atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Processed returns how many jobs this worker has taken off the queue.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Run starts the worker loop.
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
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing job",
					logger.String("run_id", j.RunID),
					logger.String("member_id", j.MemberID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
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

// process scores one job and always sends exactly one reply.
func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) (err error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	w.processed.Add(1)
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if j.Scorer == nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "missing_scorer")
		j.Fail(ErrNoScorer)
		return ErrNoScorer
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "panic")
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
			j.Fail(err)
		}
	}()

	res := j.Scorer.Compute(j.Input)
	if j.Reply == nil {
		return nil
	}

	out := queue.Outcome{RunID: j.RunID, MemberID: j.MemberID, Result: res, Elapsed: time.Since(start)}
	select {
	case j.Reply <- out:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown chan struct{}
	started  atomic.Bool
	stopped  atomic.Bool

	lastProcessed     int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, q Queue) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many jobs the pool has taken off the queue.
func (p *Pool) Processed() int64 {
	var total int64
	for _, w := range p.workers {
		total += w.Processed()
	}
	return total
}

// WorkerProcessed returns each worker's processed count, indexed like the worker names.
func (p *Pool) WorkerProcessed() []int64 {
	out := make([]int64, len(p.workers))
	for i, w := range p.workers {
		out[i] = w.Processed()
	}
	return out
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case now := <-ticker.C:
			p.updateMetrics(now)
		}
	}
}

func (p *Pool) updateMetrics(now time.Time) {
	total := p.Processed()
	if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(total-p.lastProcessed) / elapsed)
	}
	p.lastProcessed = total
	p.lastProcessedTime = now
}

// Stop signals every worker and waits briefly for each to exit. Jobs still
// queued are left unanswered; use Shutdown to drain them.
func (p *Pool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	close(p.shutdown)
	if !p.started.Load() {
		return
	}
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
	metrics.UpdateWorkerActiveCount(0)
}

// Shutdown closes the queue, stops the workers and waits for them up to ctx's deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(p.shutdown)
	if !p.started.Load() {
		return nil
	}

	// workers drain what is left and exit when the closed queue runs dry
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
