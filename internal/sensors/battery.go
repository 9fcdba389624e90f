package sensors

// The battery sense pin sits behind a voltage divider on a 16-bit ADC
// with a 3.3 V reference.
const (
	adcFullScale     = 65535.0
	adcReferenceVolt = 3.3
)

// BatteryLevelFromADC converts a raw battery-sense ADC reading into a
// percentage using the board's discharge curve. The curve is piecewise
// linear over the divider millivolts, flat at 100 above 2670 mV and at
// 0 below 2370 mV.
func BatteryLevelFromADC(raw uint16) int {
	mv := float64(raw) * (adcReferenceVolt / adcFullScale) * 1000

	var level float64
	switch {
	case mv > 2670:
		level = 100
	case mv > 2500:
		level = 50*(mv-2500)/170.0 + 50
	case mv > 2430:
		level = 20*(mv-2430)/70.0 + 30
	case mv > 2370:
		level = 20*(mv-2370)/60.0 + 10
	default:
		level = 0
	}

	return int(level)
}
