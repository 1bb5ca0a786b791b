package suite

import (
	"errors"
	"fmt"
)

// Phase identifies which loading phase a file belongs to. Phases load in
// a mandatory order: data, then widgets, then features.
type Phase string

// Loading phases.
const (
	PhaseData    Phase = "data"
	PhaseWidget  Phase = "widget"
	PhaseFeature Phase = "feature"
)

// Sentinel errors for the suite package.
var (
	// ErrBadDataFile is returned when a data file does not evaluate to a
	// mapping of named values.
	ErrBadDataFile = errors.New("suite: data file must evaluate to a mapping")

	// ErrNoFeature is returned when a feature file evaluates without
	// defining any feature.
	ErrNoFeature = errors.New("suite: feature file defined no feature")

	// ErrReservedName is returned when a data value or widget would shadow
	// part of the fixed sandbox surface.
	ErrReservedName = errors.New("suite: name is reserved")
)

// LoadError is a fatal suite-loading error carrying the offending file.
type LoadError struct {
	Path  string
	Phase Phase
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s (%s phase): %v", e.Path, e.Phase, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Cause }
