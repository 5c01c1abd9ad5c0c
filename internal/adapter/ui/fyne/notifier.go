// Package fyne surfaces session messages as desktop notifications through a Fyne app.
package fyne

import (
	"log/slog"

	fyneapp "fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// Notifier sends every message as a system notification.
type Notifier struct {
	app    fyneapp.App
	logger *slog.Logger
}

// NewNotifier creates a notifier bound to app.
func NewNotifier(app fyneapp.App, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{
		app:    app,
		logger: logger.With(slog.String("component", "notifier")),
	}
}

// ShowError displays an error notification.
func (n *Notifier) ShowError(title, message string) {
	n.logger.Debug("error notification", slog.String("title", title), slog.String("message", message))
	n.app.SendNotification(fyneapp.NewNotification(title, message))
}

// ShowInfo displays an informational notification.
func (n *Notifier) ShowInfo(title, message string) {
	n.app.SendNotification(fyneapp.NewNotification(title, message))
}

var _ ports.Notifier = (*Notifier)(nil)
