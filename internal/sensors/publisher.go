package sensors

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"hexilink/internal/hostlink"
)

const (
	DefaultPushInterval = 5 * time.Second

	errorBackoff = 3 * time.Second
	pausePoll    = 250 * time.Millisecond
)

// Pusher is the host-link side of the publisher.
type Pusher interface {
	PushSensorValues(v hostlink.SensorValues) error
}

// Publisher periodically reads the board and pushes the values over
// the host link. The loop can be paused and resumed at runtime; while
// paused it holds without reading any sensor.
type Publisher struct {
	logger   *slog.Logger
	board    *Board
	link     Pusher
	interval time.Duration

	enabled atomic.Bool
}

func NewPublisher(logger *slog.Logger, board *Board, link Pusher, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = DefaultPushInterval
	}
	p := &Publisher{
		logger:   logger,
		board:    board,
		link:     link,
		interval: interval,
	}
	p.enabled.Store(true)

	return p
}

// Enable resumes the periodic push.
func (p *Publisher) Enable() { p.enabled.Store(true) }

// Disable pauses the periodic push after the current cycle.
func (p *Publisher) Disable() { p.enabled.Store(false) }

func (p *Publisher) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if !p.enabled.Load() {
			if !sleepWithContext(ctx, pausePoll) {
				return
			}
			continue
		}
		if err := p.step(); err != nil {
			p.logger.Error("sensor push failed", "error", err)
			if !sleepWithContext(ctx, errorBackoff) {
				return
			}
			continue
		}
		if !sleepWithContext(ctx, p.interval) {
			return
		}
	}
}

func (p *Publisher) step() error {
	values, err := p.board.Read()
	if err != nil {
		return err
	}

	return p.link.PushSensorValues(values)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
