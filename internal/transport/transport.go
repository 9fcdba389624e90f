package transport

import "context"

// Transport owns one byte channel to the BLE coprocessor and exchanges
// complete wire frames over it. ReadFrame returns a structurally valid
// frame including header and trailer; WriteFrame writes the given frame
// bytes without interleaving with other writers.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	ReadFrame(ctx context.Context) ([]byte, error)
	WriteFrame(ctx context.Context, frame []byte) error
}
