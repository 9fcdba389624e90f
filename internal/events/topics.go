package events

const (
	TopicLinkStatus   = "link.status"
	TopicRawFrameIn   = "frame.raw.in"
	TopicRawFrameOut  = "frame.raw.out"
	TopicButton       = "button.press"
	TopicAlert        = "alert.in"
	TopicNotification = "notification.in"
	TopicPasskey      = "pairing.passkey"
	TopicDeviceState  = "device.state"
	TopicSensorPush   = "sensor.push"
	TopicHeartRate    = "heartrate.avg"
)
