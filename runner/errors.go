package runner

import "errors"

// Sentinel errors for the runner package.
var (
	// ErrNoSession is returned when no driver session is configured.
	ErrNoSession = errors.New("runner: no driver session configured")

	// ErrNoBaseURL is returned when no base URL is configured.
	ErrNoBaseURL = errors.New("runner: no base URL configured")
)
