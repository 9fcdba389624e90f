// Package notifications defines the user-facing notification surface
// and its desktop backend.
package notifications

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

// Payload is a generic user-facing notification payload.
type Payload struct {
	Title   string
	Content string
}

// Sender sends notifications using a platform-specific backend.
type Sender interface {
	Send(payload Payload)
}

// DesktopSender delivers payloads as native desktop notifications.
type DesktopSender struct {
	logger *slog.Logger
}

func NewDesktopSender(logger *slog.Logger) *DesktopSender {
	return &DesktopSender{logger: logger}
}

func (s *DesktopSender) Send(payload Payload) {
	title := strings.TrimSpace(payload.Title)
	content := strings.TrimSpace(payload.Content)
	if title == "" && content == "" {
		return
	}

	if err := beeep.Notify(title, content, ""); err != nil {
		s.logger.Warn("desktop notification failed", "error", err)
	}
}
