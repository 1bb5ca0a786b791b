// Package driver defines the browser-automation session boundary.
//
// The core engine never talks to a browser directly; it issues navigate,
// locate, read and interact calls through a Session. Backends register
// themselves by name (see driver/chrome) and are selected from configuration.
package driver

import (
	"context"
	"fmt"
	"strings"
)

// Strategy identifies how a locator addresses an element.
type Strategy string

// Locator strategies.
const (
	ByID    Strategy = "id"
	ByCSS   Strategy = "css"
	ByXPath Strategy = "xpath"
)

// Locator addresses a single element on the current page.
type Locator struct {
	Strategy Strategy
	Value    string
}

// String returns the locator in its authored form.
func (l Locator) String() string {
	return string(l.Strategy) + "=" + l.Value
}

// ParseLocator parses an authored locator descriptor.
//
// Explicit forms use a strategy prefix: "css=.result", "id=query",
// "xpath=//a[1]". Without a prefix the strategy is inferred: strings
// starting with "/" are XPath, strings containing any CSS metacharacter
// are CSS selectors, and bare identifiers address elements by id.
func ParseLocator(s string) (Locator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Locator{}, ErrEmptyLocator
	}

	if kind, value, ok := strings.Cut(s, "="); ok {
		switch Strategy(kind) {
		case ByID, ByCSS, ByXPath:
			return Locator{Strategy: Strategy(kind), Value: value}, nil
		}
	}

	switch {
	case strings.HasPrefix(s, "/"):
		return Locator{Strategy: ByXPath, Value: s}, nil
	case strings.ContainsAny(s, "#.[ >:*"):
		return Locator{Strategy: ByCSS, Value: s}, nil
	default:
		return Locator{Strategy: ByID, Value: s}, nil
	}
}

// ElementRef is a handle to an element located on the current page.
// Backends resolve it per call; the page may have changed since location.
type ElementRef struct {
	Locator Locator
}

// Session is a single live browser-automation channel.
//
// All operations are synchronous from the caller's perspective and honor
// ctx for cancellation and timeouts. Exactly one Session exists per suite
// run; the runner owns its lifecycle.
type Session interface {
	// Navigate loads the given URL in the browser.
	Navigate(ctx context.Context, url string) error

	// Refresh reloads the current page.
	Refresh(ctx context.Context) error

	// Find locates an element. Returns ErrElementNotFound (wrapped) if the
	// locator matches nothing on the current page.
	Find(ctx context.Context, loc Locator) (ElementRef, error)

	// Text returns the element's rendered text content.
	Text(ctx context.Context, el ElementRef) (string, error)

	// Attribute returns the value of a DOM attribute, or "" if unset.
	Attribute(ctx context.Context, el ElementRef, name string) (string, error)

	// Click performs a click on the element.
	Click(ctx context.Context, el ElementRef) error

	// SendKeys types text into the element.
	SendKeys(ctx context.Context, el ElementRef, text string) error

	// Submit submits the form the element belongs to.
	Submit(ctx context.Context, el ElementRef) error

	// Close terminates the session and releases the browser.
	Close() error
}

// Factory creates a Session from backend-specific configuration.
type Factory func(cfg any) (Session, error)

var backends = make(map[string]Factory)

// Register registers a session backend by name.
func Register(name string, factory Factory) {
	backends[name] = factory
}

// New creates a session using the named backend.
func New(name string, cfg any) (Session, error) {
	factory, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}

	return factory(cfg)
}

// Registered returns the names of all registered backends.
func Registered() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}

	return names
}
