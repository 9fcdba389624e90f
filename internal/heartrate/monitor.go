package heartrate

import (
	"context"
	"log/slog"
	"time"

	"hexilink/internal/bus"
	"hexilink/internal/events"
)

const errorBackoff = time.Second

// SampleReader is the raw PPG sensor collaborator. ReadSample returns
// one unscaled reflectance sample; ClearFIFO discards buffered samples
// so the next read is current.
type SampleReader interface {
	ReadSample() (int, error)
	ClearFIFO() error
}

// Monitor paces the detector against a live sensor: one sample per
// interval, FIFO cleared after each read. Read errors are logged and
// retried after a backoff; the loop only stops with the context.
type Monitor struct {
	logger   *slog.Logger
	bus      bus.MessageBus
	reader   SampleReader
	detector *Detector
	interval time.Duration

	lastPublished int
}

func NewMonitor(logger *slog.Logger, b bus.MessageBus, reader SampleReader, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Monitor{
		logger:   logger,
		bus:      b,
		reader:   reader,
		detector: NewDetector(interval),
		interval: interval,
	}
}

// Average returns the current rolling-average BPM.
func (m *Monitor) Average() int {
	return m.detector.Average()
}

func (m *Monitor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := m.step(); err != nil {
			m.logger.Error("heart rate sample failed", "error", err)
			if !sleepWithContext(ctx, errorBackoff) {
				return
			}
			continue
		}
		if !sleepWithContext(ctx, m.interval) {
			return
		}
	}
}

func (m *Monitor) step() error {
	sample, err := m.reader.ReadSample()
	if err != nil {
		return err
	}

	m.detector.AddSample(sample)
	if avg := m.detector.Average(); avg != m.lastPublished {
		m.lastPublished = avg
		m.bus.Publish(events.TopicHeartRate, events.HeartRate{BPM: avg, At: time.Now()})
	}

	return m.reader.ClearFIFO()
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
