package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The KW40Z host link runs at a fixed high rate; the default matches
// the coprocessor firmware and rarely needs changing.
const DefaultLinkBaud = 230400

const (
	DefaultSensorPushSeconds     = 5
	DefaultHeartRateSampleMillis = 50
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	Format    string `json:"format"`
	LogToFile bool   `json:"log_to_file"`
}

// LinkConfig contains the serial connection parameters for the BLE
// coprocessor link.
type LinkConfig struct {
	SerialPort string `json:"serial_port"`
	SerialBaud int    `json:"serial_baud"`
}

// SensorsConfig controls the periodic sensor push towards the
// coprocessor. Disabled sensors are skipped entirely.
type SensorsConfig struct {
	PushIntervalSeconds int  `json:"push_interval_seconds"`
	Battery             bool `json:"battery"`
	Motion              bool `json:"motion"`
	Environment         bool `json:"environment"`
}

// HeartRateConfig controls the optical heart rate monitor loop.
type HeartRateConfig struct {
	Enabled            bool `json:"enabled"`
	SampleIntervalMsec int  `json:"sample_interval_msec"`
}

// RecorderConfig controls persistence of readings and link events.
type RecorderConfig struct {
	Enabled bool `json:"enabled"`
}

// TelemetryConfig configures the optional MQTT bridge.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled"`
	BrokerURL   string `json:"broker_url"`
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`
}

// NotificationsConfig stores desktop notification toggles.
type NotificationsConfig struct {
	Enabled bool                     `json:"enabled"`
	Events  NotificationEventsConfig `json:"events"`
}

// NotificationEventsConfig stores per-event notification toggles.
type NotificationEventsConfig struct {
	Alert      bool `json:"alert"`
	Passkey    bool `json:"passkey"`
	LinkStatus bool `json:"link_status"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Link          LinkConfig          `json:"link"`
	Logging       LoggingConfig       `json:"logging"`
	Sensors       SensorsConfig       `json:"sensors"`
	HeartRate     HeartRateConfig     `json:"heart_rate"`
	Recorder      RecorderConfig      `json:"recorder"`
	Telemetry     TelemetryConfig     `json:"telemetry"`
	Notifications NotificationsConfig `json:"notifications"`
}

func Default() AppConfig {
	return AppConfig{
		Link: LinkConfig{
			SerialPort: "",
			SerialBaud: DefaultLinkBaud,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			LogToFile: false,
		},
		Sensors: SensorsConfig{
			PushIntervalSeconds: DefaultSensorPushSeconds,
			Battery:             true,
			Motion:              true,
			Environment:         true,
		},
		HeartRate: HeartRateConfig{
			Enabled:            false,
			SampleIntervalMsec: DefaultHeartRateSampleMillis,
		},
		Recorder: RecorderConfig{Enabled: true},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			BrokerURL:   "",
			ClientID:    "hexilink",
			TopicPrefix: "hexiwear",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Events: NotificationEventsConfig{
				Alert:      true,
				Passkey:    true,
				LinkStatus: false,
			},
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Link.SerialBaud <= 0 {
		c.Link.SerialBaud = DefaultLinkBaud
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Sensors.PushIntervalSeconds <= 0 {
		c.Sensors.PushIntervalSeconds = DefaultSensorPushSeconds
	}
	if c.HeartRate.SampleIntervalMsec <= 0 {
		c.HeartRate.SampleIntervalMsec = DefaultHeartRateSampleMillis
	}
	if c.Telemetry.ClientID == "" {
		c.Telemetry.ClientID = "hexilink"
	}
	if c.Telemetry.TopicPrefix == "" {
		c.Telemetry.TopicPrefix = "hexiwear"
	}
}

func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.Link.SerialPort) == "" {
		return errors.New("serial port is required")
	}
	if c.Link.SerialBaud <= 0 {
		return errors.New("serial baud must be positive")
	}
	if c.Telemetry.Enabled && strings.TrimSpace(c.Telemetry.BrokerURL) == "" {
		return errors.New("telemetry broker url is required when telemetry is enabled")
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
