package transport

import (
	"fmt"
	"io"
)

// Wire layout of one KW40Z host-interface frame:
//
//	[0] 0x55              start marker 1
//	[1] 0xAA | flags      start marker 2, bit0 confirm-request, bit4 transmit-tagged
//	[2] type              packet type
//	[3] length            payload length, 0-23
//	[4..4+length-1]       payload
//	[4+length] 0x45       trailer
//
// There is no checksum; corruption detection relies on the structural
// fields alone. Because flag bits are OR'd into the second marker byte,
// resynchronization has to match it under the flag mask.
const (
	StartByte1  = 0x55
	StartByte2  = 0xAA
	TrailerByte = 0x45

	FlagConfirmRequest = 0x01
	FlagTransmitTagged = 0x10

	HeaderSize     = 4
	MaxPayloadSize = 23
)

const flagMask = FlagConfirmRequest | FlagTransmitTagged

// FramingError reports a structurally invalid frame. The reader recovers
// by resynchronizing on the next start marker; it is never surfaced to
// application code.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string {
	return "bad frame: " + e.Reason
}

type readFullFunc func(buf []byte) error

// readFrame reads one complete frame including header and trailer bytes.
// It skips noise until a start marker is found, then trusts the declared
// length and validates the trailer.
func readFrame(readFull readFullFunc) ([]byte, error) {
	marker2, err := resyncToMarker(readFull)
	if err != nil {
		return nil, err
	}

	var rest [2]byte // type, length
	if err := readFull(rest[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	ln := int(rest[1])
	if ln > MaxPayloadSize {
		return nil, &FramingError{Reason: fmt.Sprintf("payload length %d exceeds %d", ln, MaxPayloadSize)}
	}

	frame := make([]byte, HeaderSize+ln+1)
	frame[0] = StartByte1
	frame[1] = marker2
	frame[2] = rest[0]
	frame[3] = rest[1]
	if err := readFull(frame[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	if frame[len(frame)-1] != TrailerByte {
		return nil, &FramingError{Reason: fmt.Sprintf("trailer byte 0x%02X", frame[len(frame)-1])}
	}

	return frame, nil
}

func resyncToMarker(readFull readFullFunc) (byte, error) {
	buf := make([]byte, 1)
	for {
		if err := readFull(buf); err != nil {
			return 0, fmt.Errorf("read start byte 1: %w", err)
		}
		if buf[0] != StartByte1 {
			continue
		}
		if err := readFull(buf); err != nil {
			return 0, fmt.Errorf("read start byte 2: %w", err)
		}
		if buf[0]&^flagMask == StartByte2 {
			return buf[0], nil
		}
	}
}

func ioReadFullFunc(r io.Reader) readFullFunc {
	return func(buf []byte) error {
		_, err := io.ReadFull(r, buf)

		return err
	}
}
