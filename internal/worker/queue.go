// Package worker runs store writes on one dedicated goroutine.
// Tasks execute in submission order; no two tasks ever run at once.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mesh-intelligence/criminalintent/internal/slogutil"
)

// ErrQueueClosed is returned through the Future of a task submitted after
// Stop.
var ErrQueueClosed = errors.New("write queue is closed")

// Task is a unit of work run on the worker goroutine.
type Task func(ctx context.Context) error

// Config contains configuration for the queue.
type Config struct {
	// QueueSize is the initial capacity of the pending task buffer. The
	// buffer grows as needed; Submit never blocks.
	QueueSize int
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{QueueSize: 64}
}

type job struct {
	name   string
	task   Task
	future *Future
	queued time.Time
}

// Queue is a single-goroutine FIFO executor.
type Queue struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []job
	closed  bool
	started bool

	wake chan struct{}
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	processed atomic.Int64
	failed    atomic.Int64
}

// Stats reports counters for the queue.
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Pending   int   `json:"pending"`
}

// NewQueue creates a queue. Call Start to begin processing.
func NewQueue(cfg Config, logger *slog.Logger) *Queue {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		logger:  slogutil.OrDiscard(logger),
		pending: make([]job, 0, cfg.QueueSize),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutine. Calling Start twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	q.logger.Debug("write queue started", "capacity", cap(q.pending))
	go q.run()
}

// Submit enqueues task and returns immediately. The returned Future
// completes once the task has run. Tasks cannot be cancelled once queued.
func (q *Queue) Submit(name string, task Task) *Future {
	f := newFuture()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		f.resolve(fmt.Errorf("%s: %w", name, ErrQueueClosed))
		return f
	}
	q.pending = append(q.pending, job{name: name, task: task, future: f, queued: time.Now()})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return f
}

// Stop refuses new tasks, lets the worker finish everything already queued,
// and waits for it to exit. If ctx ends first, the context passed to the
// running task is cancelled and Stop returns the context error. Stop on a
// queue that was never started resolves queued tasks with ErrQueueClosed.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		started := q.started
		q.mu.Unlock()
		if !started {
			return nil
		}
		return q.wait(ctx)
	}
	q.closed = true
	started := q.started
	var orphaned []job
	if !started {
		orphaned = q.pending
		q.pending = nil
	}
	q.mu.Unlock()

	if !started {
		for _, j := range orphaned {
			j.future.resolve(fmt.Errorf("%s: %w", j.name, ErrQueueClosed))
		}
		q.cancel()
		return nil
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return q.wait(ctx)
}

func (q *Queue) wait(ctx context.Context) error {
	select {
	case <-q.done:
		q.logger.Debug("write queue stopped", "processed", q.processed.Load(), "failed", q.failed.Load())
		return nil
	case <-ctx.Done():
		q.cancel()
		return fmt.Errorf("write queue shutdown: %w", ctx.Err())
	}
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	pending := len(q.pending)
	q.mu.Unlock()
	return Stats{
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Pending:   pending,
	}
}

func (q *Queue) run() {
	defer close(q.done)
	defer q.cancel()

	for {
		j, ok, closed := q.next()
		if !ok {
			if closed {
				return
			}
			select {
			case <-q.wake:
			case <-q.ctx.Done():
				q.drainCancelled()
				return
			}
			continue
		}
		if q.ctx.Err() != nil {
			j.future.resolve(fmt.Errorf("%s: %w", j.name, ErrQueueClosed))
			q.drainCancelled()
			return
		}
		q.execute(j)
	}
}

func (q *Queue) next() (job, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return job{}, false, q.closed
	}
	j := q.pending[0]
	q.pending[0] = job{}
	q.pending = q.pending[1:]
	return j, true, false
}

func (q *Queue) execute(j job) {
	err := q.safeRun(j)
	q.processed.Add(1)
	if err != nil {
		q.failed.Add(1)
		q.logger.Error("write failed", "task", j.name, "error", err)
	} else {
		q.logger.Debug("write done", "task", j.name, "waited", time.Since(j.queued))
	}
	j.future.resolve(err)
}

func (q *Queue) safeRun(j job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", j.name, p)
		}
	}()
	return j.task(q.ctx)
}

// drainCancelled resolves whatever is left after a forced shutdown.
func (q *Queue) drainCancelled() {
	q.mu.Lock()
	left := q.pending
	q.pending = nil
	q.closed = true
	q.mu.Unlock()
	for _, j := range left {
		j.future.resolve(fmt.Errorf("%s: %w", j.name, ErrQueueClosed))
	}
}
