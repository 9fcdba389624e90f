package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"hexilink/internal/bus"
	"hexilink/internal/config"
	"hexilink/internal/events"
	"hexilink/internal/notifications"
)

const (
	notificationTitleAlert   = "Hexiwear alert"
	notificationTitlePasskey = "Hexiwear pairing"
)

// Notifier listens to bus events and emits user-facing desktop
// notifications, honoring per-event config toggles.
type Notifier struct {
	bus           bus.MessageBus
	currentConfig func() config.AppConfig
	sender        notifications.Sender
	logger        *slog.Logger

	linkStateMu      sync.Mutex
	lastLinkState    events.LinkState
	lastLinkStateSet bool
}

func NewNotifier(
	messageBus bus.MessageBus,
	currentConfig func() config.AppConfig,
	sender notifications.Sender,
	logger *slog.Logger,
) *Notifier {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifier")
	}

	return &Notifier{
		bus:           messageBus,
		currentConfig: currentConfig,
		sender:        sender,
		logger:        logger,
	}
}

func (n *Notifier) Start(ctx context.Context) {
	if n == nil || n.bus == nil || n.sender == nil {
		return
	}

	alertSub := n.bus.Subscribe(events.TopicAlert)
	notifSub := n.bus.Subscribe(events.TopicNotification)
	passkeySub := n.bus.Subscribe(events.TopicPasskey)
	linkSub := n.bus.Subscribe(events.TopicLinkStatus)

	go func() {
		defer n.bus.Unsubscribe(alertSub, events.TopicAlert)
		defer n.bus.Unsubscribe(notifSub, events.TopicNotification)
		defer n.bus.Unsubscribe(passkeySub, events.TopicPasskey)
		defer n.bus.Unsubscribe(linkSub, events.TopicLinkStatus)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-alertSub:
				if !ok {
					return
				}
				if alert, ok := raw.(events.Alert); ok {
					n.handleAlert(alert.Payload)
				}
			case raw, ok := <-notifSub:
				if !ok {
					return
				}
				if notif, ok := raw.(events.Notification); ok {
					n.handleAlert(notif.Payload)
				}
			case raw, ok := <-passkeySub:
				if !ok {
					return
				}
				if passkey, ok := raw.(events.Passkey); ok {
					n.handlePasskey(passkey)
				}
			case raw, ok := <-linkSub:
				if !ok {
					return
				}
				if status, ok := raw.(events.LinkStatus); ok {
					n.handleLinkStatus(status)
				}
			}
		}
	}()
}

func (n *Notifier) handleAlert(payload []byte) {
	prefs := n.prefs()
	if !prefs.Enabled || !prefs.Events.Alert {
		return
	}

	content := alertContent(payload)
	if content == "" {
		return
	}
	n.send(notifications.Payload{
		Title:   notificationTitleAlert,
		Content: content,
	})
}

func (n *Notifier) handlePasskey(passkey events.Passkey) {
	prefs := n.prefs()
	if !prefs.Enabled || !prefs.Events.Passkey {
		return
	}

	n.send(notifications.Payload{
		Title:   notificationTitlePasskey,
		Content: fmt.Sprintf("Passkey: %06d", passkey.Code),
	})
}

func (n *Notifier) handleLinkStatus(status events.LinkStatus) {
	if status.State == "" {
		return
	}

	n.linkStateMu.Lock()
	if n.lastLinkStateSet && n.lastLinkState == status.State {
		n.linkStateMu.Unlock()

		return
	}
	n.lastLinkState = status.State
	n.lastLinkStateSet = true
	n.linkStateMu.Unlock()

	if status.State != events.LinkStateConnected &&
		status.State != events.LinkStateDisconnected {
		return
	}

	prefs := n.prefs()
	if !prefs.Enabled || !prefs.Events.LinkStatus {
		return
	}

	details := strings.TrimSpace(status.Target)
	if details == "" {
		details = "No connection details"
	}
	if status.State == events.LinkStateDisconnected {
		if errText := strings.TrimSpace(status.Err); errText != "" {
			details = fmt.Sprintf("%s (error: %s)", details, errText)
		}
	}

	n.send(notifications.Payload{
		Title:   fmt.Sprintf("Hexiwear link %s", status.State),
		Content: details,
	})
}

func (n *Notifier) prefs() config.NotificationsConfig {
	if n.currentConfig == nil {
		return config.Default().Notifications
	}

	return n.currentConfig().Notifications
}

func (n *Notifier) send(payload notifications.Payload) {
	n.logger.Debug("sending notification", "title", payload.Title)
	n.sender.Send(payload)
}

// alertContent renders the alert bytes as text when they are
// printable, hex otherwise.
func alertContent(payload []byte) string {
	trimmed := strings.TrimRight(string(payload), "\x00")
	if trimmed == "" {
		return ""
	}
	for _, r := range trimmed {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return fmt.Sprintf("% X", payload)
		}
	}

	return trimmed
}
