package events

import "time"

// LinkState describes the serial link lifecycle state.
type LinkState string

const (
	LinkStateDisconnected LinkState = "disconnected"
	LinkStateConnecting   LinkState = "connecting"
	LinkStateConnected    LinkState = "connected"
	LinkStateReconnecting LinkState = "reconnecting"
)

// LinkStatus is a bus snapshot of the serial link state.
type LinkStatus struct {
	State         LinkState
	Err           string
	TransportName string
	Target        string
	Timestamp     time.Time
}

// RawFrame carries frame diagnostics for debug views and logs.
type RawFrame struct {
	Hex string
	Len int
}

// Button identifies one of the capacitive touch events.
type Button string

const (
	ButtonUp    Button = "up"
	ButtonDown  Button = "down"
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
	ButtonSlide Button = "slide"
)

// ButtonPress is emitted for every decoded touch event frame.
type ButtonPress struct {
	Button Button
	At     time.Time
}

// Alert is an inbound alert relayed by the coprocessor.
type Alert struct {
	Payload []byte
	At      time.Time
}

// Notification is an inbound notification relayed by the coprocessor.
type Notification struct {
	Payload []byte
	At      time.Time
}

// Passkey carries the pairing code the coprocessor asks the host to display.
type Passkey struct {
	Code uint32
	At   time.Time
}

// DeviceState mirrors the latest known coprocessor settings.
type DeviceState struct {
	AdvertisingOn bool
	RightTouchPad bool
	LinkConnected bool
	At            time.Time
}

// SensorReport is one batch of sensor values pushed to the coprocessor.
type SensorReport struct {
	Battery     *int
	Accel       *[3]uint16
	Gyro        *[3]uint16
	Magnet      *[3]uint16
	Light       *int
	Temperature *uint16
	Humidity    *uint16
	Pressure    *uint16
	At          time.Time
}

// HeartRate is a published rolling-average BPM sample.
type HeartRate struct {
	BPM int
	At  time.Time
}
