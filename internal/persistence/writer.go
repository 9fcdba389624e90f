package persistence

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultWriterCapacity = 128
	writerMaxAttempts     = 3
	writerRetryBase       = 300 * time.Millisecond
)

type writeJob struct {
	name string
	fn   func(context.Context) error
}

// WriterQueue serializes database writes onto one goroutine. Enqueue
// never blocks the caller; when the channel is full the job is handed
// off to a spill goroutine instead.
type WriterQueue struct {
	logger *slog.Logger
	queue  chan writeJob
}

func NewWriterQueue(logger *slog.Logger, capacity int) *WriterQueue {
	if capacity <= 0 {
		capacity = defaultWriterCapacity
	}
	return &WriterQueue{
		logger: logger,
		queue:  make(chan writeJob, capacity),
	}
}

func (w *WriterQueue) Enqueue(name string, fn func(context.Context) error) {
	job := writeJob{name: name, fn: fn}
	select {
	case w.queue <- job:
	default:
		go func() { w.queue <- job }()
	}
}

func (w *WriterQueue) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-w.queue:
				w.runWithRetry(ctx, job)
			}
		}
	}()
}

func (w *WriterQueue) runWithRetry(ctx context.Context, job writeJob) {
	for attempt := 1; attempt <= writerMaxAttempts; attempt++ {
		err := job.fn(ctx)
		if err == nil {
			return
		}
		w.logger.Error("db write failed", "job", job.name, "attempt", attempt, "error", err)
		if attempt == writerMaxAttempts {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * writerRetryBase):
		}
	}
}
