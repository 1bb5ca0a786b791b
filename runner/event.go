// Package runner owns the driver session lifecycle and drives
// feature-by-feature suite execution.
package runner

import "time"

// Action represents the type of feature event.
type Action string

// Action constants for feature events.
const (
	ActionRun   Action = "run"
	ActionPass  Action = "passed"
	ActionFail  Action = "failed"
	ActionError Action = "error"
)

// IsTerminal returns true if this action ends a feature.
func (a Action) IsTerminal() bool {
	return a == ActionPass || a == ActionFail || a == ActionError
}

// Event represents a single event emitted during suite execution.
type Event struct {
	Time    time.Time     // When the event occurred
	Action  Action        // What happened
	Suite   string        // Suite directory
	Feature string        // Feature description
	Elapsed time.Duration // Time taken (for terminal events)

	// Failures are expected-value mismatches (for ActionFail).
	Failures []string

	// Errors are unexpected exceptions and rejected actions (for
	// ActionFail and ActionError).
	Errors []string

	// Err is a run-level error (navigation failure, infrastructure).
	Err error
}

// ID returns a unique identifier: "suite::feature".
func (e Event) ID() string {
	if e.Suite == "" {
		return e.Feature
	}

	return e.Suite + "::" + e.Feature
}
