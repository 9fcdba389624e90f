// Package telemetry forwards bus events to an MQTT broker as JSON.
// The bridge is optional and fully driven by config.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"hexilink/internal/bus"
	"hexilink/internal/config"
	"hexilink/internal/events"
)

const publishQoS = 0

// client is the slice of paho.Client the bridge uses; tests substitute
// a fake.
type client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Disconnect(quiesce uint)
}

// Bridge republishes selected bus events under a configurable topic
// prefix. Publish failures are logged and dropped; telemetry must
// never stall the rest of the app.
type Bridge struct {
	logger *slog.Logger
	bus    bus.MessageBus
	cfg    config.TelemetryConfig
	client client
}

func NewBridge(logger *slog.Logger, messageBus bus.MessageBus, cfg config.TelemetryConfig) (*Bridge, error) {
	server, err := brokerAddress(cfg.BrokerURL)
	if err != nil {
		return nil, err
	}

	opts := paho.NewClientOptions().
		AddBroker(server).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	return &Bridge{
		logger: logger,
		bus:    messageBus,
		cfg:    cfg,
		client: paho.NewClient(opts),
	}, nil
}

// brokerAddress normalizes a broker URL for paho: a bare or mqtt://
// scheme becomes tcp://.
func brokerAddress(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse broker url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("broker url %q has no host", raw)
	}

	scheme := u.Scheme
	if scheme == "" || scheme == "mqtt" {
		scheme = "tcp"
	}
	return scheme + "://" + u.Host, nil
}

func (b *Bridge) Run(ctx context.Context) error {
	token := b.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect mqtt broker: %w", err)
	}
	defer b.client.Disconnect(250)

	b.logger.Info("telemetry bridge connected", "client_id", b.cfg.ClientID, "prefix", b.cfg.TopicPrefix)

	topics := []string{
		events.TopicSensorPush,
		events.TopicHeartRate,
		events.TopicButton,
		events.TopicLinkStatus,
		events.TopicDeviceState,
	}
	sub := b.bus.Subscribe(topics...)
	defer b.bus.Unsubscribe(sub, topics...)

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-sub:
			if !ok {
				return nil
			}
			b.forward(raw)
		}
	}
}

func (b *Bridge) forward(raw any) {
	sub, ok := subtopicFor(raw)
	if !ok {
		return
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		b.logger.Warn("telemetry marshal failed", "error", err)
		return
	}

	topic := b.cfg.TopicPrefix + "/" + sub
	token := b.client.Publish(topic, publishQoS, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		b.logger.Warn("telemetry publish failed", "topic", topic, "error", err)
	}
}

func subtopicFor(raw any) (string, bool) {
	switch raw.(type) {
	case events.SensorReport:
		return "sensors", true
	case events.HeartRate:
		return "heartrate", true
	case events.ButtonPress:
		return "buttons", true
	case events.LinkStatus:
		return "link", true
	case events.DeviceState:
		return "state", true
	default:
		return "", false
	}
}
