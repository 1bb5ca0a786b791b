package driver

import "errors"

// Sentinel errors for the driver package.
var (
	// ErrElementNotFound is returned when a locator matches no element.
	ErrElementNotFound = errors.New("driver: element not found")

	// ErrUnknownBackend is returned when an unregistered backend is requested.
	ErrUnknownBackend = errors.New("driver: unknown backend")

	// ErrEmptyLocator is returned for a blank locator descriptor.
	ErrEmptyLocator = errors.New("driver: empty locator")

	// ErrSessionClosed is returned for calls on a closed session.
	ErrSessionClosed = errors.New("driver: session closed")
)
