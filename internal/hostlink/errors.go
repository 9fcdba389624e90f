package hostlink

import (
	"errors"
	"fmt"
)

// ErrInvalidPayload is returned when an encoded payload would exceed
// the 23-byte protocol limit.
var ErrInvalidPayload = errors.New("payload exceeds frame limit")

// RangeError reports a sensor value outside its protocol-defined bound.
// It aborts only the field being encoded; fields validated earlier in
// the same call have already been queued.
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s value %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}
