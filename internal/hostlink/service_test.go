package hostlink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"hexilink/internal/bus"
	"hexilink/internal/transport"
)

type fakeTransport struct {
	mu       sync.Mutex
	inbound  [][]byte
	written  [][]byte
	writeErr error
}

func (t *fakeTransport) Name() string                  { return "fake" }
func (t *fakeTransport) Connect(context.Context) error { return nil }
func (t *fakeTransport) Close() error                  { return nil }

func (t *fakeTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	if len(t.inbound) > 0 {
		raw := t.inbound[0]
		t.inbound = t.inbound[1:]
		t.mu.Unlock()
		return raw, nil
	}
	t.mu.Unlock()
	return nil, io.EOF
}

func (t *fakeTransport) WriteFrame(_ context.Context, frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return t.writeErr
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	t.written = append(t.written, cp)
	return nil
}

func (t *fakeTransport) writeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.written)
}

type publishedMsg struct {
	topic   string
	payload any
}

type recordingBus struct {
	mu        sync.Mutex
	published []publishedMsg
}

func (b *recordingBus) Publish(topic string, msg any) {
	b.mu.Lock()
	b.published = append(b.published, publishedMsg{topic: topic, payload: msg})
	b.mu.Unlock()
}

func (b *recordingBus) Subscribe(...string) bus.Subscription    { return make(bus.Subscription) }
func (b *recordingBus) Unsubscribe(bus.Subscription, ...string) {}
func (b *recordingBus) Close()                                  {}

func newTestService(tr transport.Transport) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, &recordingBus{}, tr, DefaultOptions())
}

func TestTransmitConfirmableRetriesThreeTimes(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestService(tr)

	start := time.Now()
	err := s.transmitConfirmable(context.Background(), Frame{Type: PacketBatteryLevel, Confirm: true, Payload: []byte{42}})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unconfirmed send must not fail, got %v", err)
	}
	if got := tr.writeCount(); got != 3 {
		t.Fatalf("expected 3 transmissions, got %d", got)
	}
	if elapsed < 200*time.Millisecond {
		t.Fatalf("retries not spaced by the retransmit timeout: %v", elapsed)
	}
}

func TestTransmitConfirmableStopsOnConfirmation(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestService(tr)

	done := make(chan error, 1)
	go func() {
		done <- s.transmitConfirmable(context.Background(), Frame{Type: PacketAlertOut, Confirm: true, Payload: []byte{1}})
	}()
	time.Sleep(20 * time.Millisecond)
	s.signalConfirm()

	if err := <-done; err != nil {
		t.Fatalf("confirmed send failed: %v", err)
	}
	if got := tr.writeCount(); got != 1 {
		t.Fatalf("expected 1 transmission after confirmation, got %d", got)
	}
}

func TestTransmitConfirmableIgnoresStaleConfirmation(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestService(tr)

	// A confirmation left over from an earlier frame must not satisfy
	// this send.
	s.signalConfirm()

	err := s.transmitConfirmable(context.Background(), Frame{Type: PacketHeartRate, Confirm: true, Payload: []byte{70}})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got := tr.writeCount(); got != 3 {
		t.Fatalf("stale confirmation short-circuited the send: %d transmissions", got)
	}
}

func TestTransmitConfirmableClearsTagOnWire(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestService(tr)

	if err := s.transmitConfirmable(context.Background(), Frame{Type: PacketBatteryLevel, Confirm: true, Payload: []byte{99}}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	for _, raw := range tr.written {
		if raw[1]&transport.FlagTransmitTagged != 0 {
			t.Fatalf("transmit tag leaked to the wire: byte 1 is 0x%02X", raw[1])
		}
		if raw[1]&transport.FlagConfirmRequest == 0 {
			t.Fatalf("confirm request bit missing on wire: byte 1 is 0x%02X", raw[1])
		}
	}
}

func TestRunReaderEnqueuesAndConfirms(t *testing.T) {
	raw, err := Encode(Frame{Type: PacketOK})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tr := &fakeTransport{inbound: [][]byte{clearTransmitTag(raw)}}
	s := newTestService(tr)

	if err := s.runReader(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected reader to stop with io.EOF, got %v", err)
	}

	select {
	case f := <-s.inbound:
		if f.Type != PacketOK {
			t.Fatalf("unexpected frame type %v", f.Type)
		}
	default:
		t.Fatalf("frame was not enqueued")
	}

	select {
	case <-s.confirm:
	default:
		t.Fatalf("confirmation was not signaled")
	}
}
