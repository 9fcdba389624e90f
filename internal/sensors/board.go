// Package sensors aggregates the board's sensor collaborators into a
// single read path feeding the host link. The actual device drivers
// live behind narrow interfaces; anything nil is treated as absent.
package sensors

import (
	"fmt"

	"hexilink/internal/config"
	"hexilink/internal/hostlink"
)

// BatteryGauge reads the raw battery-sense ADC value.
type BatteryGauge interface {
	ReadADC() (uint16, error)
}

// MotionSensor is the combined accelerometer/magnetometer.
type MotionSensor interface {
	Acceleration() ([3]uint16, error)
	MagneticField() ([3]uint16, error)
}

// Gyroscope reads raw angular rate per axis.
type Gyroscope interface {
	AngularRate() ([3]uint16, error)
}

// AmbientLight reads illuminance in lux.
type AmbientLight interface {
	Lux() (int, error)
}

// Climate is the combined temperature/humidity sensor.
type Climate interface {
	RawTemperature() (uint16, error)
	RawHumidity() (uint16, error)
}

// Barometer reads the raw pressure register.
type Barometer interface {
	RawPressure() (uint32, error)
}

// Board groups the sensor collaborators with the config enable flags.
// A sensor is read only when its group is enabled and the collaborator
// is present.
type Board struct {
	cfg config.SensorsConfig

	Battery BatteryGauge
	Motion  MotionSensor
	Gyro    Gyroscope
	Light   AmbientLight
	Climate Climate
	Baro    Barometer
}

func NewBoard(cfg config.SensorsConfig) *Board {
	return &Board{cfg: cfg}
}

// Read collects one sample from every enabled, present sensor. Any
// read error aborts the whole cycle; partial cycles are not pushed.
func (b *Board) Read() (hostlink.SensorValues, error) {
	var v hostlink.SensorValues

	if b.cfg.Battery && b.Battery != nil {
		raw, err := b.Battery.ReadADC()
		if err != nil {
			return hostlink.SensorValues{}, fmt.Errorf("battery: %w", err)
		}
		level := BatteryLevelFromADC(raw)
		v.Battery = &level
	}

	if b.cfg.Motion {
		if b.Motion != nil {
			acc, err := b.Motion.Acceleration()
			if err != nil {
				return hostlink.SensorValues{}, fmt.Errorf("accelerometer: %w", err)
			}
			mag, err := b.Motion.MagneticField()
			if err != nil {
				return hostlink.SensorValues{}, fmt.Errorf("magnetometer: %w", err)
			}
			v.Accel = &acc
			v.Magnet = &mag
		}
		if b.Gyro != nil {
			rate, err := b.Gyro.AngularRate()
			if err != nil {
				return hostlink.SensorValues{}, fmt.Errorf("gyroscope: %w", err)
			}
			v.Gyro = &rate
		}
	}

	if b.cfg.Environment {
		if b.Light != nil {
			lux, err := b.Light.Lux()
			if err != nil {
				return hostlink.SensorValues{}, fmt.Errorf("ambient light: %w", err)
			}
			light := lux & 0xFF
			v.Light = &light
		}
		if b.Climate != nil {
			t, err := b.Climate.RawTemperature()
			if err != nil {
				return hostlink.SensorValues{}, fmt.Errorf("temperature: %w", err)
			}
			h, err := b.Climate.RawHumidity()
			if err != nil {
				return hostlink.SensorValues{}, fmt.Errorf("humidity: %w", err)
			}
			v.Temperature = &t
			v.Humidity = &h
		}
		if b.Baro != nil {
			raw, err := b.Baro.RawPressure()
			if err != nil {
				return hostlink.SensorValues{}, fmt.Errorf("pressure: %w", err)
			}
			// The pressure register carries four fractional bits.
			p := uint16(raw >> 4)
			v.Pressure = &p
		}
	}

	return v, nil
}
