package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"hexilink/internal/bus"
	"hexilink/internal/events"
	"hexilink/internal/persistence"
)

// Recorder listens to bus events and persists readings and link
// events through the async writer queue.
type Recorder struct {
	bus      bus.MessageBus
	queue    *persistence.WriterQueue
	readings *persistence.ReadingRepo
	events   *persistence.EventRepo
	logger   *slog.Logger
}

func NewRecorder(
	messageBus bus.MessageBus,
	queue *persistence.WriterQueue,
	readings *persistence.ReadingRepo,
	eventRepo *persistence.EventRepo,
	logger *slog.Logger,
) *Recorder {
	if logger == nil {
		logger = slog.Default().With("component", "app.recorder")
	}

	return &Recorder{
		bus:      messageBus,
		queue:    queue,
		readings: readings,
		events:   eventRepo,
		logger:   logger,
	}
}

func (r *Recorder) Start(ctx context.Context) {
	if r == nil || r.bus == nil || r.queue == nil {
		return
	}

	sensorSub := r.bus.Subscribe(events.TopicSensorPush)
	hrSub := r.bus.Subscribe(events.TopicHeartRate)
	buttonSub := r.bus.Subscribe(events.TopicButton)
	linkSub := r.bus.Subscribe(events.TopicLinkStatus)
	alertSub := r.bus.Subscribe(events.TopicAlert)
	passkeySub := r.bus.Subscribe(events.TopicPasskey)

	go func() {
		defer r.bus.Unsubscribe(sensorSub, events.TopicSensorPush)
		defer r.bus.Unsubscribe(hrSub, events.TopicHeartRate)
		defer r.bus.Unsubscribe(buttonSub, events.TopicButton)
		defer r.bus.Unsubscribe(linkSub, events.TopicLinkStatus)
		defer r.bus.Unsubscribe(alertSub, events.TopicAlert)
		defer r.bus.Unsubscribe(passkeySub, events.TopicPasskey)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sensorSub:
				if !ok {
					return
				}
				if report, ok := raw.(events.SensorReport); ok {
					r.handleSensorReport(report)
				}
			case raw, ok := <-hrSub:
				if !ok {
					return
				}
				if hr, ok := raw.(events.HeartRate); ok {
					r.handleHeartRate(hr)
				}
			case raw, ok := <-buttonSub:
				if !ok {
					return
				}
				if press, ok := raw.(events.ButtonPress); ok {
					r.handleButton(press)
				}
			case raw, ok := <-linkSub:
				if !ok {
					return
				}
				if status, ok := raw.(events.LinkStatus); ok {
					r.handleLinkStatus(status)
				}
			case raw, ok := <-alertSub:
				if !ok {
					return
				}
				if alert, ok := raw.(events.Alert); ok {
					r.handleAlert(alert)
				}
			case raw, ok := <-passkeySub:
				if !ok {
					return
				}
				if passkey, ok := raw.(events.Passkey); ok {
					r.handlePasskey(passkey)
				}
			}
		}
	}()
}

func (r *Recorder) handleSensorReport(report events.SensorReport) {
	batch := readingsFromReport(report)
	if len(batch) == 0 {
		return
	}
	r.queue.Enqueue("record sensor cycle", func(ctx context.Context) error {
		return r.readings.InsertBatch(ctx, batch)
	})
}

func (r *Recorder) handleHeartRate(hr events.HeartRate) {
	reading := persistence.Reading{
		Kind:       persistence.ReadingHeartRate,
		Value:      float64(hr.BPM),
		RecordedAt: hr.At,
	}
	r.queue.Enqueue("record heart rate", func(ctx context.Context) error {
		return r.readings.Insert(ctx, reading)
	})
}

func (r *Recorder) handleButton(press events.ButtonPress) {
	event := persistence.LinkEvent{
		Kind:       persistence.EventButton,
		Detail:     string(press.Button),
		OccurredAt: press.At,
	}
	r.queue.Enqueue("record button", func(ctx context.Context) error {
		return r.events.Insert(ctx, event)
	})
}

func (r *Recorder) handleLinkStatus(status events.LinkStatus) {
	detail := string(status.State)
	if errText := strings.TrimSpace(status.Err); errText != "" {
		detail = fmt.Sprintf("%s (%s)", detail, errText)
	}
	event := persistence.LinkEvent{
		Kind:       persistence.EventLinkStatus,
		Detail:     detail,
		OccurredAt: status.Timestamp,
	}
	r.queue.Enqueue("record link status", func(ctx context.Context) error {
		return r.events.Insert(ctx, event)
	})
}

func (r *Recorder) handleAlert(alert events.Alert) {
	event := persistence.LinkEvent{
		Kind:       persistence.EventAlert,
		Detail:     strings.ToUpper(hex.EncodeToString(alert.Payload)),
		OccurredAt: alert.At,
	}
	r.queue.Enqueue("record alert", func(ctx context.Context) error {
		return r.events.Insert(ctx, event)
	})
}

func (r *Recorder) handlePasskey(passkey events.Passkey) {
	event := persistence.LinkEvent{
		Kind:       persistence.EventPasskey,
		Detail:     fmt.Sprintf("%06d", passkey.Code),
		OccurredAt: passkey.At,
	}
	r.queue.Enqueue("record passkey", func(ctx context.Context) error {
		return r.events.Insert(ctx, event)
	})
}

// readingsFromReport flattens one sensor cycle into rows, one per
// scalar, skipping absent fields.
func readingsFromReport(report events.SensorReport) []persistence.Reading {
	var batch []persistence.Reading

	add := func(kind string, value float64) {
		batch = append(batch, persistence.Reading{Kind: kind, Value: value, RecordedAt: report.At})
	}
	addAxes := func(kinds [3]string, axes *[3]uint16) {
		if axes == nil {
			return
		}
		for i, kind := range kinds {
			add(kind, float64(axes[i]))
		}
	}

	if report.Battery != nil {
		add(persistence.ReadingBattery, float64(*report.Battery))
	}
	addAxes([3]string{persistence.ReadingAccelX, persistence.ReadingAccelY, persistence.ReadingAccelZ}, report.Accel)
	addAxes([3]string{persistence.ReadingGyroX, persistence.ReadingGyroY, persistence.ReadingGyroZ}, report.Gyro)
	addAxes([3]string{persistence.ReadingMagnetX, persistence.ReadingMagnetY, persistence.ReadingMagnetZ}, report.Magnet)
	if report.Light != nil {
		add(persistence.ReadingLight, float64(*report.Light))
	}
	if report.Temperature != nil {
		add(persistence.ReadingTemperature, float64(*report.Temperature))
	}
	if report.Humidity != nil {
		add(persistence.ReadingHumidity, float64(*report.Humidity))
	}
	if report.Pressure != nil {
		add(persistence.ReadingPressure, float64(*report.Pressure))
	}

	return batch
}
