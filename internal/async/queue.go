package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("run queue is shutting down")

// Job is one accepted pipeline run waiting for a worker.
type Job struct {
	Run         *pipeline.Run
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
