package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
)

// RunQueue executes accepted runs off the request goroutine. The
// orchestrator admits one live run at a time; a second worker lets a new run
// start while a superseded one finishes its last stage.
type RunQueue struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch      chan Job
	quit    chan struct{}
	wg      sync.WaitGroup
	senders sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

var _ Queue = (*RunQueue)(nil)

type Option func(*RunQueue)

func WithWorkers(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *RunQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewRunQueue(logger *slog.Logger, opts ...Option) *RunQueue {
	q := &RunQueue{
		logger:  common.LoggerOr(logger),
		workers: 2,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 8),
		quit:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *RunQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("async.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.execute(workerID, job)
				}

				q.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *RunQueue) execute(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	waited := time.Since(job.SubmittedAt)
	snap, err := job.Run.Execute(ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunSuperseded):
		q.logger.Info("async.run.superseded", "worker_id", workerID, "run_id", job.Run.ID())
	case err != nil:
		q.logger.Warn("async.run.failed", "worker_id", workerID, "run_id", job.Run.ID(), "code", snap.ErrorCode, "queued_ms", waited.Milliseconds())
	default:
		q.logger.Info("async.run.done", "worker_id", workerID, "run_id", job.Run.ID(), "queued_ms", waited.Milliseconds())
	}
}

// Enqueue hands job to a worker, blocking while the buffer is full. A closed
// queue or a cancelled ctx fails the run so it does not stay in Extracting.
func (q *RunQueue) Enqueue(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return q.refuse(job, ErrQueueClosed)
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- job:
		q.logger.Debug("async.enqueue.ok", "run_id", job.Run.ID())
		return nil
	default:
	}
	q.logger.Warn("async.enqueue.backpressure", "run_id", job.Run.ID())
	select {
	case q.ch <- job:
		return nil
	case <-q.quit:
		return q.refuse(job, ErrQueueClosed)
	case <-ctx.Done():
		return q.refuse(job, ctx.Err())
	}
}

func (q *RunQueue) refuse(job Job, err error) error {
	q.logger.Warn("async.enqueue.refused", "run_id", job.Run.ID(), "error", err)
	job.Run.Fail(err)
	return err
}

// Shutdown stops intake, wakes blocked senders and waits for the workers to
// drain what was already queued, or for ctx.
func (q *RunQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()

	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted")
	case <-done:
		q.logger.Info("async.shutdown.drained")
	}
}
