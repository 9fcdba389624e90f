package heartrate

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"hexilink/internal/bus"
	"hexilink/internal/events"
)

type scriptedReader struct {
	samples []int
	pos     int
	cleared int
}

func (r *scriptedReader) ReadSample() (int, error) {
	if r.pos >= len(r.samples) {
		return 0, io.EOF
	}
	s := r.samples[r.pos]
	r.pos++
	return s, nil
}

func (r *scriptedReader) ClearFIFO() error {
	r.cleared++
	return nil
}

type publishedEvent struct {
	topic string
	msg   any
}

type recordingBus struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (b *recordingBus) Publish(topic string, msg any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{topic: topic, msg: msg})
}

func (b *recordingBus) Subscribe(topics ...string) bus.Subscription { return make(bus.Subscription) }

func (b *recordingBus) Unsubscribe(ch bus.Subscription, topics ...string) {}

func (b *recordingBus) Close() {}

func TestMonitorPublishesOnAverageChange(t *testing.T) {
	reader := &scriptedReader{samples: beatSequence}
	rb := &recordingBus{}
	m := NewMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)), rb, reader, 50*time.Millisecond)

	for i := range beatSequence {
		if err := m.step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}

	if len(rb.events) != 1 {
		t.Fatalf("expected one heart rate event, got %d", len(rb.events))
	}
	ev := rb.events[0]
	if ev.topic != events.TopicHeartRate {
		t.Fatalf("wrong topic: %s", ev.topic)
	}
	hr, ok := ev.msg.(events.HeartRate)
	if !ok {
		t.Fatalf("wrong payload type: %T", ev.msg)
	}
	if hr.BPM != 15 {
		t.Fatalf("BPM mismatch: got %d want 15", hr.BPM)
	}
	if reader.cleared != len(beatSequence) {
		t.Fatalf("FIFO cleared %d times, want %d", reader.cleared, len(beatSequence))
	}
}

func TestMonitorPropagatesReadError(t *testing.T) {
	reader := &scriptedReader{}
	m := NewMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)), &recordingBus{}, reader, 50*time.Millisecond)

	if err := m.step(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if reader.cleared != 0 {
		t.Fatalf("FIFO must not be cleared after a failed read")
	}
}
