package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"hexilink/internal/bus"
	"hexilink/internal/config"
	"hexilink/internal/events"
)

type fakeToken struct {
	err error
}

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	connected    bool
	disconnected bool
	messages     []published
}

func (c *fakeClient) Connect() paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return fakeToken{}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, payload: payload.([]byte)})
	return fakeToken{}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func TestBrokerAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"mqtt://broker.local:1883", "tcp://broker.local:1883"},
		{"tcp://broker.local:1883", "tcp://broker.local:1883"},
		{"ssl://broker.local:8883", "ssl://broker.local:8883"},
	}
	for _, tc := range cases {
		got, err := brokerAddress(tc.in)
		if err != nil {
			t.Fatalf("brokerAddress(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("brokerAddress(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := brokerAddress("mqtt://"); err == nil {
		t.Fatalf("expected error for host-less url")
	}
}

func TestBridgeForwardsEventsAsJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	messageBus := bus.New(logger)
	defer messageBus.Close()

	fc := &fakeClient{}
	b := &Bridge{
		logger: logger,
		bus:    messageBus,
		cfg:    config.TelemetryConfig{TopicPrefix: "hexiwear", ClientID: "test"},
		client: fc,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	// Give Run a moment to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)
	messageBus.Publish(events.TopicHeartRate, events.HeartRate{BPM: 72, At: time.Now()})

	deadline := time.After(2 * time.Second)
	for fc.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("bridge published nothing")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	fc.mu.Lock()
	msg := fc.messages[0]
	fc.mu.Unlock()

	if msg.topic != "hexiwear/heartrate" {
		t.Fatalf("wrong topic: %q", msg.topic)
	}
	var hr events.HeartRate
	if err := json.Unmarshal(msg.payload, &hr); err != nil {
		t.Fatalf("payload not valid json: %v", err)
	}
	if hr.BPM != 72 {
		t.Fatalf("BPM mismatch: %d", hr.BPM)
	}
	if !fc.disconnected {
		t.Fatalf("client not disconnected on shutdown")
	}
}

func TestBridgeIgnoresUnknownPayloads(t *testing.T) {
	if _, ok := subtopicFor("free-form string"); ok {
		t.Fatalf("unexpected subtopic for unknown payload")
	}
}
