// Package console prints session messages for the command line front-end.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// Notifier writes one line per message.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNotifier creates a notifier writing to w.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

// ShowError prints "! title: message".
func (n *Notifier) ShowError(title, message string) {
	n.write("!", title, message)
}

// ShowInfo prints "* title: message".
func (n *Notifier) ShowInfo(title, message string) {
	n.write("*", title, message)
}

func (n *Notifier) write(marker, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s %s: %s\n", marker, title, message)
}

var _ ports.Notifier = (*Notifier)(nil)
