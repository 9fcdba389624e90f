package hostlink

// PacketType identifies the meaning of a frame's payload. The values
// are fixed by the coprocessor firmware.
type PacketType byte

const (
	PacketPressUp    PacketType = 0 // electrode touch detected
	PacketPressDown  PacketType = 1
	PacketPressLeft  PacketType = 2
	PacketPressRight PacketType = 3
	PacketSlide      PacketType = 4

	PacketBatteryLevel PacketType = 5

	PacketAccel        PacketType = 6
	PacketAmbientLight PacketType = 7
	PacketPressure     PacketType = 8
	PacketGyro         PacketType = 9
	PacketTemperature  PacketType = 10
	PacketHumidity     PacketType = 11
	PacketMagnet       PacketType = 12

	PacketHeartRate PacketType = 13
	PacketSteps     PacketType = 14
	PacketCalories  PacketType = 15

	PacketAlertIn  PacketType = 16
	PacketAlertOut PacketType = 17

	PacketPassDisplay PacketType = 18 // pairing code for the host to show

	PacketOTAPKW40Started PacketType = 19
	PacketOTAPMK64Started PacketType = 20
	PacketOTAPCompleted   PacketType = 21
	PacketOTAPFailed      PacketType = 22

	PacketTouchGroupToggle PacketType = 23
	PacketTouchGroupGet    PacketType = 24
	PacketTouchGroupSend   PacketType = 25

	PacketAdvModeGet    PacketType = 26
	PacketAdvModeSend   PacketType = 27
	PacketAdvModeToggle PacketType = 28

	PacketAppMode PacketType = 29

	PacketLinkStateGet  PacketType = 30
	PacketLinkStateSend PacketType = 31

	PacketNotification PacketType = 32

	PacketBuildVersion PacketType = 33

	PacketOK PacketType = 255
)

func (t PacketType) String() string {
	switch t {
	case PacketPressUp:
		return "press_up"
	case PacketPressDown:
		return "press_down"
	case PacketPressLeft:
		return "press_left"
	case PacketPressRight:
		return "press_right"
	case PacketSlide:
		return "slide"
	case PacketBatteryLevel:
		return "battery_level"
	case PacketAccel:
		return "accel"
	case PacketAmbientLight:
		return "ambient_light"
	case PacketPressure:
		return "pressure"
	case PacketGyro:
		return "gyro"
	case PacketTemperature:
		return "temperature"
	case PacketHumidity:
		return "humidity"
	case PacketMagnet:
		return "magnet"
	case PacketHeartRate:
		return "heart_rate"
	case PacketSteps:
		return "steps"
	case PacketCalories:
		return "calories"
	case PacketAlertIn:
		return "alert_in"
	case PacketAlertOut:
		return "alert_out"
	case PacketPassDisplay:
		return "pass_display"
	case PacketOTAPKW40Started:
		return "otap_kw40_started"
	case PacketOTAPMK64Started:
		return "otap_mk64_started"
	case PacketOTAPCompleted:
		return "otap_completed"
	case PacketOTAPFailed:
		return "otap_failed"
	case PacketTouchGroupToggle:
		return "touch_group_toggle"
	case PacketTouchGroupGet:
		return "touch_group_get"
	case PacketTouchGroupSend:
		return "touch_group_send"
	case PacketAdvModeGet:
		return "adv_mode_get"
	case PacketAdvModeSend:
		return "adv_mode_send"
	case PacketAdvModeToggle:
		return "adv_mode_toggle"
	case PacketAppMode:
		return "app_mode"
	case PacketLinkStateGet:
		return "link_state_get"
	case PacketLinkStateSend:
		return "link_state_send"
	case PacketNotification:
		return "notification"
	case PacketBuildVersion:
		return "build_version"
	case PacketOK:
		return "ok"
	default:
		return "unknown"
	}
}

// Inbound alert subtypes (first payload byte of an alert_in frame).
const (
	AlertNotification = 1
	AlertSettings     = 2
	AlertTimeUpdate   = 3
)

// AppMode selects the application profile shown by the coprocessor.
type AppMode byte

const (
	AppModeIdle      AppMode = 0
	AppModeSensorTag AppMode = 2
	AppModeHeartRate AppMode = 5
	AppModePedometer AppMode = 6
)
