package persistence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriterQueueRetriesFailedJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := NewWriterQueue(testLogger(), 4)
	queue.Start(ctx)

	var attempts atomic.Int32
	done := make(chan struct{})
	queue.Enqueue("flaky write", func(ctx context.Context) error {
		n := attempts.Add(1)
		if n < 2 {
			return errors.New("transient failure")
		}
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("job did not succeed after retry")
	}
	if got := attempts.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestWriterQueueGivesUpAfterMaxAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := NewWriterQueue(testLogger(), 4)
	queue.Start(ctx)

	var attempts atomic.Int32
	queue.Enqueue("broken write", func(ctx context.Context) error {
		attempts.Add(1)
		return errors.New("permanent failure")
	})

	deadline := time.After(5 * time.Second)
	for attempts.Load() < writerMaxAttempts {
		select {
		case <-deadline:
			t.Fatalf("expected %d attempts, saw %d", writerMaxAttempts, attempts.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	time.Sleep(2 * writerRetryBase * writerMaxAttempts)
	if got := attempts.Load(); got != writerMaxAttempts {
		t.Fatalf("expected exactly %d attempts, got %d", writerMaxAttempts, got)
	}
}

func TestWriterQueueEnqueueDoesNotBlockWhenFull(t *testing.T) {
	// No Start: the channel never drains, so the spill path must keep
	// Enqueue from blocking.
	queue := NewWriterQueue(testLogger(), 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			queue.Enqueue("noop", func(ctx context.Context) error { return nil })
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("enqueue blocked on a full queue")
	}
}
