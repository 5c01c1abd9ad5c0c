// Package ports define the Notifier interface for user-facing messages.
package ports

// Notifier surfaces short, non-blocking messages to the user.
// The controller never waits for the user to acknowledge them.
//
// Thread-safety: Implementations must be safe to call from any goroutine.
type Notifier interface {
	// ShowError displays an error message.
	// title: Short heading, e.g. "Cannot play track"
	// message: Human-readable reason
	ShowError(title, message string)

	// ShowInfo displays an informational message.
	ShowInfo(title, message string)
}
