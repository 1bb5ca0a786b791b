package scenic

import "errors"

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no scenic.yaml is found in a suite
	// directory. The configuration artifact is mandatory; a suite cannot
	// start without it.
	ErrConfigNotFound = errors.New("scenic: no scenic.yaml found")

	// ErrNoBaseURL is returned when the configuration lacks a base URL.
	ErrNoBaseURL = errors.New("scenic: no base_url configured")

	// ErrUnknownWidget is returned when an attribute path names a widget
	// that does not exist in the registry.
	ErrUnknownWidget = errors.New("scenic: unknown widget")

	// ErrUnknownMethod is returned when a widget method is invoked that
	// was never declared.
	ErrUnknownMethod = errors.New("scenic: unknown widget method")

	// ErrUnknownElement is returned when a widget element is referenced by
	// a logical name that was never declared.
	ErrUnknownElement = errors.New("scenic: unknown widget element")

	// ErrDanglingArguments is returned when a scenario contains an argument
	// list with no preceding action step to bind to.
	ErrDanglingArguments = errors.New("scenic: argument list without a preceding action step")

	// ErrPathTooDeep is returned for attribute paths with more than two
	// segments after the widget name.
	ErrPathTooDeep = errors.New("scenic: attribute path too deep")

	// ErrBadDescriptor is returned when a widget descriptor literal has the
	// wrong shape.
	ErrBadDescriptor = errors.New("scenic: malformed widget descriptor")
)
