package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/ingest"
)

// Job is one checklist waiting to be processed.
type Job struct {
	Source      ingest.Source
	SubmittedAt time.Time
	TraceID     string
}

// Outcome is reported once per job after its handler returns.
type Outcome struct {
	Job     Job
	Err     error
	Elapsed time.Duration
}

// Handler processes one job.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context) error
}

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("queue is shutting down")

// WorkerQueue runs jobs on a fixed pool of workers.
type WorkerQueue struct {
	handle    Handler
	onOutcome func(Outcome)
	logger    *slog.Logger
	workers   int
	timeout   time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*WorkerQueue)

func WithWorkers(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *WorkerQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOutcome registers a callback invoked from the worker after each job.
func WithOutcome(fn func(Outcome)) Option {
	return func(q *WorkerQueue) { q.onOutcome = fn }
}

func NewWorkerQueue(handle Handler, logger *slog.Logger, opts ...Option) *WorkerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerQueue{
		handle:  handle,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *WorkerQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *WorkerQueue) run(workerID int, job Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithRequestID(ctx, job.TraceID)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.New("worker panic")
				q.logger.Error("queue.job.panic", "worker_id", workerID, "checklist_id", job.Source.ChecklistID, "panic", r)
			}
		}()
		return q.handle(ctx, job)
	}()

	elapsed := time.Since(start)
	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "checklist_id", job.Source.ChecklistID, "trace_id", job.TraceID, "error", err)
	} else {
		q.logger.Info("queue.job.ok", "worker_id", workerID, "checklist_id", job.Source.ChecklistID, "trace_id", job.TraceID, "elapsed_ms", elapsed.Milliseconds())
	}
	if q.onOutcome != nil {
		q.onOutcome(Outcome{Job: job, Err: err, Elapsed: elapsed})
	}
}

// Enqueue blocks while the buffer is full, until ctx is done.
func (q *WorkerQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "checklist_id", job.Source.ChecklistID)
		return ErrClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.job.queued", "checklist_id", job.Source.ChecklistID, "trace_id", job.TraceID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "checklist_id", job.Source.ChecklistID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued jobs to finish, or for ctx.
func (q *WorkerQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
		return ctx.Err()
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
		return nil
	}
}
