package hostlink

import (
	"encoding/binary"
	"fmt"
	"time"

	"hexilink/internal/events"
	"hexilink/internal/transport"
)

// SensorValues carries the optional sensor fields for one push. Nil
// fields are skipped. The triple-axis and 16-bit fields are bounded by
// their types; battery and light are validated at runtime.
type SensorValues struct {
	Battery     *int       // percent, 0-100
	Accel       *[3]uint16 // x, y, z
	Gyro        *[3]uint16
	Magnet      *[3]uint16
	Light       *int // 0-255
	Temperature *uint16
	Humidity    *uint16
	Pressure    *uint16
}

// HealthValues carries the optional health metrics for one push.
type HealthValues struct {
	HeartRate *int // bpm, 0-255
	Steps     *uint16
	Calories  *uint16
}

// PushSensorValues queues one confirmable frame per present field, in
// fixed field order. Validation happens per field, right before that
// field is queued: a RangeError aborts the call but fields validated
// earlier have already been sent.
func (s *Service) PushSensorValues(v SensorValues) error {
	if v.Battery != nil {
		if err := checkRange("battery", *v.Battery, 0, 100); err != nil {
			return err
		}
		s.send(PacketBatteryLevel, true, []byte{byte(*v.Battery)})
	}
	if v.Accel != nil {
		s.send(PacketAccel, true, encodeAxes(*v.Accel))
	}
	if v.Gyro != nil {
		s.send(PacketGyro, true, encodeAxes(*v.Gyro))
	}
	if v.Magnet != nil {
		s.send(PacketMagnet, true, encodeAxes(*v.Magnet))
	}
	if v.Light != nil {
		if err := checkRange("ambient light", *v.Light, 0, 255); err != nil {
			return err
		}
		s.send(PacketAmbientLight, true, []byte{byte(*v.Light)})
	}
	if v.Temperature != nil {
		s.send(PacketTemperature, true, encodeU16(*v.Temperature))
	}
	if v.Humidity != nil {
		s.send(PacketHumidity, true, encodeU16(*v.Humidity))
	}
	if v.Pressure != nil {
		s.send(PacketPressure, true, encodeU16(*v.Pressure))
	}

	s.bus.Publish(events.TopicSensorPush, events.SensorReport{
		Battery:     v.Battery,
		Accel:       v.Accel,
		Gyro:        v.Gyro,
		Magnet:      v.Magnet,
		Light:       v.Light,
		Temperature: v.Temperature,
		Humidity:    v.Humidity,
		Pressure:    v.Pressure,
		At:          time.Now(),
	})
	return nil
}

// PushHealth queues the health metrics readable through the BLE health
// service.
func (s *Service) PushHealth(v HealthValues) error {
	if v.HeartRate != nil {
		if err := checkRange("heart rate", *v.HeartRate, 0, 255); err != nil {
			return err
		}
		s.send(PacketHeartRate, true, []byte{byte(*v.HeartRate)})
	}
	if v.Steps != nil {
		s.send(PacketSteps, true, encodeU16(*v.Steps))
	}
	if v.Calories != nil {
		s.send(PacketCalories, true, encodeU16(*v.Calories))
	}
	return nil
}

// SendAlert queues an outbound alert for the connected BLE peer.
func (s *Service) SendAlert(payload []byte) error {
	if len(payload) > MaxAlertSize {
		return fmt.Errorf("%w: alert of %d bytes", ErrInvalidPayload, len(payload))
	}
	s.send(PacketAlertOut, true, payload)
	return nil
}

// ToggleAdvertising flips the coprocessor's BLE advertising state. The
// new state arrives later as an adv_mode_send frame.
func (s *Service) ToggleAdvertising() {
	s.send(PacketAdvModeToggle, true, nil)
}

// ToggleTouchGroup flips the active pair of capacitive touch
// electrodes. The new group arrives later as a touch_group_send frame.
func (s *Service) ToggleTouchGroup() {
	s.send(PacketTouchGroupToggle, true, nil)
}

// SetAppMode selects the application profile shown by the coprocessor.
// Only the idle and sensor-tag profiles can be set from the host.
func (s *Service) SetAppMode(mode AppMode) error {
	if mode != AppModeIdle && mode != AppModeSensorTag {
		return fmt.Errorf("app mode %d cannot be set from the host", mode)
	}
	s.send(PacketAppMode, true, []byte{byte(mode)})
	return nil
}

// queryDeviceState asks the coprocessor for its current settings. The
// replies update the state mirror through the dispatcher.
func (s *Service) queryDeviceState() {
	s.send(PacketTouchGroupGet, false, nil)
	s.send(PacketAdvModeGet, false, nil)
	s.send(PacketLinkStateGet, false, nil)
}

// MaxAlertSize is the largest alert payload one frame can carry.
const MaxAlertSize = transport.MaxPayloadSize

func checkRange(field string, value, min, max int) error {
	if value < min || value > max {
		return &RangeError{Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}

func encodeAxes(axes [3]uint16) []byte {
	out := make([]byte, 6)
	for i, v := range axes {
		binary.BigEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func encodeU16(v uint16) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, v)
	return out
}
