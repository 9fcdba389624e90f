package hostlink

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hexilink/internal/bus"
	"hexilink/internal/events"
	"hexilink/internal/transport"
)

const (
	// Retransmission policy fixed by the coprocessor firmware.
	retransmitCount   = 3
	retransmitTimeout = 100 * time.Millisecond

	queueCapacity = 10
	errorBackoff  = time.Second
)

// Options tune protocol behavior that the stock firmware keeps as
// compile-time switches.
type Options struct {
	// AutoAck answers inbound confirm-requesting frames with an OK frame.
	AutoAck bool
	// ConfirmOnAnyFrame treats any inbound frame as a delivery
	// confirmation for the in-flight confirmable send, matching the
	// stock firmware. When false only OK frames confirm.
	ConfirmOnAnyFrame bool
}

func DefaultOptions() Options {
	return Options{AutoAck: true, ConfirmOnAnyFrame: true}
}

// Service owns the link to the BLE coprocessor: it keeps the transport
// connected, parses inbound frames, dispatches them to callbacks and
// the bus, and serializes outbound sends with best-effort confirmation.
type Service struct {
	logger    *slog.Logger
	bus       bus.MessageBus
	transport transport.Transport
	opts      Options

	inbound chan Frame
	outbox  chan Frame
	// Single-slot rendezvous for the one confirmable send in flight.
	// Drained right before each send so a stale confirmation cannot
	// satisfy a later frame.
	confirm chan struct{}

	state     stateMirror
	callbacks callbackSet
}

func NewService(logger *slog.Logger, b bus.MessageBus, tr transport.Transport, opts Options) *Service {
	return &Service{
		logger:    logger,
		bus:       b,
		transport: tr,
		opts:      opts,
		inbound:   make(chan Frame, queueCapacity),
		outbox:    make(chan Frame, queueCapacity),
		confirm:   make(chan struct{}, 1),
	}
}

// Start launches the connector, dispatcher, and outbox loops. None of
// them terminate before ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.runConnector(ctx)
	go s.runDispatcher(ctx)
	go s.runOutbox(ctx)
}

func (s *Service) runConnector(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		s.publishLinkStatus(events.LinkStateConnecting, nil)
		if err := s.transport.Connect(ctx); err != nil {
			s.publishLinkStatus(events.LinkStateReconnecting, err)
			s.logger.Error("transport connect failed", "error", err)
			if !sleepWithContext(ctx, errorBackoff) {
				return
			}
			continue
		}

		s.publishLinkStatus(events.LinkStateConnected, nil)
		s.queryDeviceState()

		err := s.runReader(ctx)
		_ = s.transport.Close()
		if ctx.Err() != nil {
			s.publishLinkStatus(events.LinkStateDisconnected, nil)
			return
		}
		s.publishLinkStatus(events.LinkStateReconnecting, err)
		s.logger.Error("link reader stopped", "error", err)
		if !sleepWithContext(ctx, errorBackoff) {
			return
		}
	}
}

// runReader parses the wire into frames. Framing problems are recovered
// by resynchronizing on the next start marker; only I/O errors return,
// handing control back to the connector.
func (s *Service) runReader(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := s.transport.ReadFrame(ctx)
		if err != nil {
			var fe *transport.FramingError
			if errors.As(err, &fe) {
				s.logger.Warn("resyncing after bad frame", "error", err)
				continue
			}
			return err
		}

		s.bus.Publish(events.TopicRawFrameIn, rawFrameEvent(raw))
		f, err := Decode(raw)
		if err != nil {
			s.logger.Warn("decode frame failed", "error", err)
			continue
		}

		if s.opts.ConfirmOnAnyFrame || f.Type == PacketOK {
			s.signalConfirm()
		}

		select {
		case s.inbound <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runDispatcher routes inbound frames one at a time, in arrival order.
// A failed frame is logged and dropped; the loop never stops.
func (s *Service) runDispatcher(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.inbound:
			if err := s.processFrame(f); err != nil {
				s.logger.Error("process frame failed", "type", f.Type, "error", err)
				if !sleepWithContext(ctx, errorBackoff) {
					return
				}
			}
		}
	}
}

func (s *Service) runOutbox(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.outbox:
			var err error
			if f.Confirm {
				err = s.transmitConfirmable(ctx, f)
			} else {
				err = s.writeFrame(ctx, f)
			}
			if err != nil {
				s.logger.Warn("send failed", "type", f.Type, "error", err)
				if !sleepWithContext(ctx, errorBackoff) {
					return
				}
			}
		}
	}
}

// transmitConfirmable sends f up to retransmitCount times, waiting
// retransmitTimeout for the confirmation rendezvous between attempts.
// Exhausted retries are logged, not surfaced: the protocol is
// fire-and-forget with best-effort confirmation.
func (s *Service) transmitConfirmable(ctx context.Context, f Frame) error {
	s.drainConfirm()

	for attempt := 1; attempt <= retransmitCount; attempt++ {
		if err := s.writeFrame(ctx, f); err != nil {
			return err
		}

		timer := time.NewTimer(retransmitTimeout)
		select {
		case <-s.confirm:
			timer.Stop()
			return nil
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	s.logger.Warn("delivery unconfirmed", "type", f.Type, "attempts", retransmitCount)
	return nil
}

func (s *Service) writeFrame(ctx context.Context, f Frame) error {
	raw, err := Encode(f)
	if err != nil {
		return err
	}
	raw = clearTransmitTag(raw)
	if err := s.transport.WriteFrame(ctx, raw); err != nil {
		return err
	}
	s.bus.Publish(events.TopicRawFrameOut, rawFrameEvent(raw))
	return nil
}

// send queues a frame for the outbox loop. Blocks when the outbox is
// full; capacity is a backpressure bound, not a drop policy.
func (s *Service) send(t PacketType, confirm bool, payload []byte) {
	s.outbox <- Frame{Type: t, Confirm: confirm, Payload: payload}
}

func (s *Service) signalConfirm() {
	select {
	case s.confirm <- struct{}{}:
	default:
	}
}

func (s *Service) drainConfirm() {
	select {
	case <-s.confirm:
	default:
	}
}

func (s *Service) publishLinkStatus(state events.LinkState, err error) {
	status := events.LinkStatus{
		State:         state,
		TransportName: s.transport.Name(),
		Timestamp:     time.Now(),
	}
	if named, ok := s.transport.(interface{ PortName() string }); ok {
		status.Target = named.PortName()
	}
	if err != nil {
		status.Err = err.Error()
	}
	s.bus.Publish(events.TopicLinkStatus, status)
}

func rawFrameEvent(raw []byte) events.RawFrame {
	return events.RawFrame{
		Hex: strings.ToUpper(hex.EncodeToString(raw)),
		Len: len(raw),
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
