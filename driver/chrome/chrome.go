// Package chrome provides a chromedp-backed scenic driver session.
package chrome

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/rlch/scenic"
	"github.com/rlch/scenic/driver"
)

// ErrInvalidConfig is returned when an invalid configuration is provided.
var ErrInvalidConfig = errors.New("chrome: expected *scenic.ChromeConfig")

//nolint:gochecknoinits // Backend self-registration pattern
func init() {
	driver.Register(scenic.DriverChrome, func(cfg any) (driver.Session, error) {
		chromeCfg, ok := cfg.(*scenic.ChromeConfig)
		if !ok {
			return nil, fmt.Errorf("%w, got %T", ErrInvalidConfig, cfg)
		}

		return New(chromeCfg)
	})
}

// Session implements driver.Session on top of a chromedp browser tab.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closed      bool
}

// New launches a browser and opens a fresh tab.
func New(cfg *scenic.ChromeConfig) (*Session, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]

	if !cfg.IsHeadless() {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}

	for flag, value := range cfg.Flags {
		opts = append(opts, chromedp.Flag(flag, value))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
	}

	// Starting the browser eagerly surfaces launch problems at session
	// creation rather than on the first navigation.
	err := chromedp.Run(tabCtx)
	if err != nil {
		s.teardown()

		return nil, fmt.Errorf("chrome: failed to launch browser: %w", err)
	}

	return s, nil
}

// run executes chromedp actions on the session tab, honoring the caller's
// context for cancellation.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed {
		return driver.ErrSessionClosed
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return err
	}

	return nil
}

// query translates a locator into a chromedp selector and query options.
func query(loc driver.Locator) (string, []chromedp.QueryOption) {
	switch loc.Strategy {
	case driver.ByID:
		return "#" + loc.Value, []chromedp.QueryOption{chromedp.ByQuery}
	case driver.ByXPath:
		return loc.Value, []chromedp.QueryOption{chromedp.BySearch}
	case driver.ByCSS:
		return loc.Value, []chromedp.QueryOption{chromedp.ByQuery}
	default:
		return loc.Value, []chromedp.QueryOption{chromedp.ByQuery}
	}
}

// Navigate loads the given URL.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

// Refresh reloads the current page.
func (s *Session) Refresh(ctx context.Context) error {
	return s.run(ctx, chromedp.Reload())
}

// Find locates an element on the current page without waiting for it to
// appear; absence is reported as driver.ErrElementNotFound.
func (s *Session) Find(ctx context.Context, loc driver.Locator) (driver.ElementRef, error) {
	sel, opts := query(loc)

	var nodes []*cdp.Node

	err := s.run(ctx, chromedp.Nodes(sel, &nodes, append(opts, chromedp.AtLeast(0))...))
	if err != nil {
		return driver.ElementRef{}, err
	}

	if len(nodes) == 0 {
		return driver.ElementRef{}, fmt.Errorf("%w: %s", driver.ErrElementNotFound, loc)
	}

	return driver.ElementRef{Locator: loc}, nil
}

// Text returns the element's rendered text content.
func (s *Session) Text(ctx context.Context, el driver.ElementRef) (string, error) {
	sel, opts := query(el.Locator)

	var text string

	err := s.run(ctx, chromedp.Text(sel, &text, opts...))

	return text, err
}

// Attribute returns a DOM attribute value, or "" if the attribute is unset.
func (s *Session) Attribute(ctx context.Context, el driver.ElementRef, name string) (string, error) {
	sel, opts := query(el.Locator)

	var (
		value string
		ok    bool
	)

	err := s.run(ctx, chromedp.AttributeValue(sel, name, &value, &ok, opts...))
	if err != nil {
		return "", err
	}

	if !ok {
		return "", nil
	}

	return value, nil
}

// Click clicks the element.
func (s *Session) Click(ctx context.Context, el driver.ElementRef) error {
	sel, opts := query(el.Locator)

	return s.run(ctx, chromedp.Click(sel, opts...))
}

// SendKeys types text into the element.
func (s *Session) SendKeys(ctx context.Context, el driver.ElementRef, text string) error {
	sel, opts := query(el.Locator)

	return s.run(ctx, chromedp.SendKeys(sel, text, opts...))
}

// Submit submits the form the element belongs to.
func (s *Session) Submit(ctx context.Context, el driver.ElementRef) error {
	sel, opts := query(el.Locator)

	return s.run(ctx, chromedp.Submit(sel, opts...))
}

// Close terminates the tab and the browser process. Safe to call once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}

	s.teardown()

	return nil
}

func (s *Session) teardown() {
	s.closed = true
	s.cancel()
	s.allocCancel()
}
