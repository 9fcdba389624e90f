package hostlink

import (
	"testing"
)

func drainOutbox(s *Service) []Frame {
	var out []Frame
	for {
		select {
		case f := <-s.outbox:
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestProcessFrameRoutesButtonToSingleCallback(t *testing.T) {
	s := newTestService(&fakeTransport{})

	counts := make(map[string]int)
	s.AttachButtonUp(func() { counts["up"]++ })
	s.AttachButtonDown(func() { counts["down"]++ })
	s.AttachAlert(func() { counts["alert"]++ })

	if err := s.processFrame(Frame{Type: PacketPressUp}); err != nil {
		t.Fatalf("process frame: %v", err)
	}

	if counts["up"] != 1 {
		t.Fatalf("up callback invoked %d times, want 1", counts["up"])
	}
	if counts["down"] != 0 || counts["alert"] != 0 {
		t.Fatalf("unrelated callbacks invoked: %v", counts)
	}
}

func TestProcessFrameWithoutCallbackIsNoOp(t *testing.T) {
	s := newTestService(&fakeTransport{})

	// No callback registered for any slot.
	if err := s.processFrame(Frame{Type: PacketPressRight}); err != nil {
		t.Fatalf("unregistered callback slot must be a silent no-op, got %v", err)
	}
}

func TestProcessFrameAutoAcknowledges(t *testing.T) {
	s := newTestService(&fakeTransport{})

	if err := s.processFrame(Frame{Type: PacketAlertIn, Confirm: true}); err != nil {
		t.Fatalf("process frame: %v", err)
	}

	queued := drainOutbox(s)
	if len(queued) != 1 {
		t.Fatalf("expected one queued ack, got %d frames", len(queued))
	}
	if queued[0].Type != PacketOK || queued[0].Confirm {
		t.Fatalf("ack must be an unconfirmed OK frame, got %+v", queued[0])
	}
}

func TestProcessFrameAutoAckDisabled(t *testing.T) {
	s := newTestService(&fakeTransport{})
	s.opts.AutoAck = false

	if err := s.processFrame(Frame{Type: PacketAlertIn, Confirm: true}); err != nil {
		t.Fatalf("process frame: %v", err)
	}
	if queued := drainOutbox(s); len(queued) != 0 {
		t.Fatalf("expected no ack, got %d frames", len(queued))
	}
}

func TestProcessFrameUpdatesLinkState(t *testing.T) {
	s := newTestService(&fakeTransport{})

	if err := s.processFrame(Frame{Type: PacketLinkStateSend, Payload: []byte{1}}); err != nil {
		t.Fatalf("process frame: %v", err)
	}
	if _, _, connected := s.Info(); !connected {
		t.Fatalf("link state not mirrored as connected")
	}

	if err := s.processFrame(Frame{Type: PacketLinkStateSend, Payload: []byte{0}}); err != nil {
		t.Fatalf("process frame: %v", err)
	}
	if _, _, connected := s.Info(); connected {
		t.Fatalf("link state not mirrored as disconnected")
	}
}

func TestProcessFrameUpdatesAdvertisingAndTouchGroup(t *testing.T) {
	s := newTestService(&fakeTransport{})

	if err := s.processFrame(Frame{Type: PacketAdvModeSend, Payload: []byte{1}}); err != nil {
		t.Fatalf("process frame: %v", err)
	}
	if err := s.processFrame(Frame{Type: PacketTouchGroupSend, Payload: []byte{1}}); err != nil {
		t.Fatalf("process frame: %v", err)
	}

	advertising, group, _ := s.Info()
	if !advertising {
		t.Fatalf("advertising state not mirrored")
	}
	if group != TouchGroupRight {
		t.Fatalf("touch group mismatch: got %v want right", group)
	}
}

func TestProcessFrameDecodesPasskey(t *testing.T) {
	s := newTestService(&fakeTransport{})

	invoked := 0
	s.AttachPasskey(func() { invoked++ })

	// 0x01D42A little-endian across three payload bytes.
	if err := s.processFrame(Frame{Type: PacketPassDisplay, Payload: []byte{0x2A, 0xD4, 0x01}}); err != nil {
		t.Fatalf("process frame: %v", err)
	}

	if got := s.Passkey(); got != 0x01D42A {
		t.Fatalf("passkey mismatch: got %06X want 01D42A", got)
	}
	if invoked != 1 {
		t.Fatalf("passkey callback invoked %d times, want 1", invoked)
	}
}

func TestProcessFrameShortStatePayloadFails(t *testing.T) {
	s := newTestService(&fakeTransport{})

	if err := s.processFrame(Frame{Type: PacketPassDisplay, Payload: []byte{0x2A}}); err == nil {
		t.Fatalf("expected error for short pass_display payload")
	}
	if err := s.processFrame(Frame{Type: PacketAdvModeSend}); err == nil {
		t.Fatalf("expected error for missing adv_mode payload")
	}
}

func TestProcessFrameIgnoresInformationalTypes(t *testing.T) {
	s := newTestService(&fakeTransport{})

	for _, typ := range []PacketType{PacketOK, PacketOTAPCompleted, PacketOTAPFailed, PacketBuildVersion, PacketType(200)} {
		if err := s.processFrame(Frame{Type: typ}); err != nil {
			t.Fatalf("type %v should be ignored, got %v", typ, err)
		}
	}
	if queued := drainOutbox(s); len(queued) != 0 {
		t.Fatalf("informational frames must not queue replies, got %d", len(queued))
	}
}
