package runner

import "github.com/gen2brain/beeep"

// Notifier delivers a one-line suite summary through an external channel.
// Absence of a notifier never affects correctness; delivery failures are
// logged and ignored.
type Notifier interface {
	Notify(summary string) error
}

// DesktopNotifier sends the summary as a desktop notification.
type DesktopNotifier struct {
	Title string
}

// NewDesktopNotifier creates a desktop notifier with the default title.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{Title: "scenic"}
}

// Notify delivers the summary.
func (n *DesktopNotifier) Notify(summary string) error {
	return beeep.Notify(n.Title, summary, "")
}
