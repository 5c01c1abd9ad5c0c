package fyne

import (
	"testing"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"github.com/tejashwikalptaru/studybeats/internal/logger"
)

func TestNotifier_ShowError(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	n := NewNotifier(app, logger.NewTestLogger())

	test.AssertNotificationSent(t, fyneapp.NewNotification("Cannot play track", "This track has no audio source."), func() {
		n.ShowError("Cannot play track", "This track has no audio source.")
	})
}

func TestNotifier_ShowInfo(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	n := NewNotifier(app, nil)

	test.AssertNotificationSent(t, fyneapp.NewNotification("Scan complete", "12 tracks"), func() {
		n.ShowInfo("Scan complete", "12 tracks")
	})
}
