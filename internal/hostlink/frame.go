package hostlink

import (
	"fmt"

	"hexilink/internal/transport"
)

// Frame is the in-memory form of one protocol exchange unit.
type Frame struct {
	Type    PacketType
	Confirm bool // sender requests a delivery confirmation
	Payload []byte
}

// Encode builds the wire bytes for f. The transmit tag is always set on
// encode; the send path clears it again before the bytes reach the
// wire, which is how the coprocessor firmware expects outbound frames.
func Encode(f Frame) ([]byte, error) {
	if len(f.Payload) > transport.MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPayload, len(f.Payload))
	}

	raw := make([]byte, transport.HeaderSize+len(f.Payload)+1)
	raw[0] = transport.StartByte1
	raw[1] = transport.StartByte2 | transport.FlagTransmitTagged
	if f.Confirm {
		raw[1] |= transport.FlagConfirmRequest
	}
	raw[2] = byte(f.Type)
	raw[3] = byte(len(f.Payload))
	copy(raw[transport.HeaderSize:], f.Payload)
	raw[len(raw)-1] = transport.TrailerByte

	return raw, nil
}

// Decode parses a structurally complete frame as produced by the
// transport reader. Flag bits are masked out of the marker byte; the
// trailer has already been validated by the reader.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < transport.HeaderSize+1 {
		return Frame{}, fmt.Errorf("frame too short: %d bytes", len(raw))
	}
	ln := int(raw[3])
	if len(raw) != transport.HeaderSize+ln+1 {
		return Frame{}, fmt.Errorf("frame length mismatch: declared %d, have %d bytes", ln, len(raw))
	}

	f := Frame{
		Type:    PacketType(raw[2]),
		Confirm: raw[1]&transport.FlagConfirmRequest != 0,
	}
	if ln > 0 {
		f.Payload = make([]byte, ln)
		copy(f.Payload, raw[transport.HeaderSize:transport.HeaderSize+ln])
	}

	return f, nil
}

// transmitTagged reports whether raw carries the outbound tag bit.
func transmitTagged(raw []byte) bool {
	return len(raw) > 1 && raw[1]&transport.FlagTransmitTagged != 0
}

// clearTransmitTag returns raw with the tag bit cleared, ready for the
// wire. The input slice is not modified.
func clearTransmitTag(raw []byte) []byte {
	out := make([]byte, len(raw))
	copy(out, raw)
	if len(out) > 1 {
		out[1] &^= transport.FlagTransmitTagged
	}
	return out
}
