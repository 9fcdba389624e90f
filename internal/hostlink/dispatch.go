package hostlink

import (
	"fmt"
	"time"

	"hexilink/internal/events"
)

// processFrame routes one inbound frame: optionally acknowledge it,
// then update the state mirror or invoke the registered callback for
// its type. Unrecognized types are ignored for forward compatibility.
func (s *Service) processFrame(f Frame) error {
	if s.opts.AutoAck && f.Confirm {
		// Acks are never themselves confirmable.
		s.send(PacketOK, false, nil)
	}

	now := time.Now()
	switch f.Type {
	case PacketPressUp:
		s.callbacks.invoke(func(c *callbackSet) Callback { return c.buttonUp })
		s.bus.Publish(events.TopicButton, events.ButtonPress{Button: events.ButtonUp, At: now})
	case PacketPressDown:
		s.callbacks.invoke(func(c *callbackSet) Callback { return c.buttonDown })
		s.bus.Publish(events.TopicButton, events.ButtonPress{Button: events.ButtonDown, At: now})
	case PacketPressLeft:
		s.callbacks.invoke(func(c *callbackSet) Callback { return c.buttonLeft })
		s.bus.Publish(events.TopicButton, events.ButtonPress{Button: events.ButtonLeft, At: now})
	case PacketPressRight:
		s.callbacks.invoke(func(c *callbackSet) Callback { return c.buttonRight })
		s.bus.Publish(events.TopicButton, events.ButtonPress{Button: events.ButtonRight, At: now})
	case PacketSlide:
		s.callbacks.invoke(func(c *callbackSet) Callback { return c.buttonSlide })
		s.bus.Publish(events.TopicButton, events.ButtonPress{Button: events.ButtonSlide, At: now})

	case PacketPassDisplay:
		if len(f.Payload) < 3 {
			return fmt.Errorf("pass_display payload too short: %d bytes", len(f.Payload))
		}
		code := uint32(f.Payload[2])<<16 | uint32(f.Payload[1])<<8 | uint32(f.Payload[0])
		s.state.setPasskey(code)
		s.callbacks.invoke(func(c *callbackSet) Callback { return c.passkey })
		s.bus.Publish(events.TopicPasskey, events.Passkey{Code: code, At: now})

	case PacketTouchGroupSend:
		if len(f.Payload) < 1 {
			return fmt.Errorf("touch_group_send payload missing")
		}
		s.state.setTouchGroup(TouchGroup(f.Payload[0] & 1))
		s.publishDeviceState(now)
	case PacketAdvModeSend:
		if len(f.Payload) < 1 {
			return fmt.Errorf("adv_mode_send payload missing")
		}
		s.state.setAdvertising(f.Payload[0] != 0)
		s.publishDeviceState(now)
	case PacketLinkStateSend:
		if len(f.Payload) < 1 {
			return fmt.Errorf("link_state_send payload missing")
		}
		s.state.setConnected(f.Payload[0] != 0)
		s.publishDeviceState(now)

	case PacketAlertIn:
		s.callbacks.invoke(func(c *callbackSet) Callback { return c.alert })
		s.bus.Publish(events.TopicAlert, events.Alert{Payload: f.Payload, At: now})
	case PacketNotification:
		s.callbacks.invoke(func(c *callbackSet) Callback { return c.notification })
		s.bus.Publish(events.TopicNotification, events.Notification{Payload: f.Payload, At: now})

	case PacketOK, PacketOTAPKW40Started, PacketOTAPMK64Started,
		PacketOTAPCompleted, PacketOTAPFailed, PacketBuildVersion:
		// Informational, dropped.
	default:
		s.logger.Debug("ignoring unrecognized packet", "type", byte(f.Type))
	}

	return nil
}

func (s *Service) publishDeviceState(at time.Time) {
	advertising, group, connected := s.state.snapshot()
	s.bus.Publish(events.TopicDeviceState, events.DeviceState{
		AdvertisingOn: advertising,
		RightTouchPad: group == TouchGroupRight,
		LinkConnected: connected,
		At:            at,
	})
}
