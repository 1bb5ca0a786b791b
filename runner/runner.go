package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rlch/scenic"
	"github.com/rlch/scenic/driver"
)

// State is the runner's lifecycle state.
type State int

// Runner states.
const (
	StateIdle State = iota
	StateRunning
	StateFinished
)

// Runner drives feature-by-feature suite execution. It exclusively owns
// the driver session and guarantees teardown on every terminal path.
type Runner struct {
	session  driver.Session
	baseURL  string
	suite    string
	features []*scenic.Feature
	handler  Handler
	notifier Notifier
	log      *zap.Logger

	state  State
	index  int
	failed bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithSession sets the driver session. The runner takes ownership and
// closes it when the run finishes.
func WithSession(s driver.Session) Option {
	return func(r *Runner) {
		r.session = s
	}
}

// WithBaseURL sets the location navigated to before the first feature.
func WithBaseURL(url string) Option {
	return func(r *Runner) {
		r.baseURL = url
	}
}

// WithSuite sets the suite identifier attached to emitted events.
func WithSuite(dir string) Option {
	return func(r *Runner) {
		r.suite = dir
	}
}

// WithFeatures sets the features to run, in order.
func WithFeatures(features []*scenic.Feature) Option {
	return func(r *Runner) {
		r.features = features
	}
}

// WithHandler sets the event handler.
func WithHandler(h Handler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithNotifier sets the optional completion notifier.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) {
		r.notifier = n
	}
}

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{log: zap.NewNop(), state: StateIdle}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// State returns the runner's current lifecycle state.
func (r *Runner) State() State {
	return r.state
}

// Run executes the suite and returns the aggregated result.
//
// The driver session is navigated to the base URL first; if navigation
// fails the run finishes as failed without evaluating any feature. In
// either case the session is torn down before Run returns. A feature's
// failure never prevents the remaining features from running.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.session == nil {
		return nil, ErrNoSession
	}

	if r.baseURL == "" {
		return nil, ErrNoBaseURL
	}

	r.state = StateRunning
	r.index = 0
	r.failed = false

	defer func() {
		r.state = StateFinished

		if err := r.session.Close(); err != nil {
			r.log.Warn("session teardown failed", zap.Error(err))
		}
	}()

	result := NewResult()

	handlers := []Handler{NewResultHandler()}
	if r.handler != nil {
		handlers = append(handlers, r.handler)
	}

	handler := NewMultiHandler(handlers...)

	if err := r.session.Navigate(ctx, r.baseURL); err != nil {
		navErr := fmt.Errorf("navigating to %s: %w", r.baseURL, err)

		r.failed = true
		result.SetFatal(navErr)

		r.log.Error("base navigation failed", zap.String("url", r.baseURL), zap.Error(err))
		r.emitErr(handler, navErr.Error())

		result.Finish()
		r.notify(result)

		return result, nil
	}

	for r.index = 0; r.index < len(r.features); r.index++ {
		r.runFeature(ctx, r.features[r.index], handler, result)
	}

	result.Finish()
	r.notify(result)

	r.log.Info("suite finished",
		zap.Bool("passed", !r.failed),
		zap.Int("features", result.Total),
		zap.Duration("elapsed", result.Elapsed()))

	return result, nil
}

func (r *Runner) runFeature(ctx context.Context, f *scenic.Feature, handler Handler, result *Result) {
	start := time.Now()

	r.emit(ctx, handler, result, Event{
		Time:    start,
		Action:  ActionRun,
		Suite:   r.suite,
		Feature: f.Description(),
	})

	err := f.Test(ctx)
	elapsed := time.Since(start)

	event := Event{
		Time:    time.Now(),
		Suite:   r.suite,
		Feature: f.Description(),
		Elapsed: elapsed,
	}

	var runErr *scenic.RunError

	switch {
	case err == nil:
		event.Action = ActionPass

		r.log.Info("feature passed", zap.String("feature", f.Description()))
	case errors.As(err, &runErr):
		// A run with at least one expectation mismatch is a failure; a run
		// whose only problems are unexpected errors is an error.
		event.Action = ActionFail
		if len(runErr.Failures) == 0 {
			event.Action = ActionError
		}

		event.Failures = runErr.Failures
		event.Errors = runErr.Errors
		r.failed = true

		r.log.Warn("feature failed",
			zap.String("feature", f.Description()),
			zap.Strings("failures", runErr.Failures),
			zap.Strings("errors", runErr.Errors))
	default:
		event.Action = ActionError
		event.Err = err
		r.failed = true

		r.log.Error("feature errored", zap.String("feature", f.Description()), zap.Error(err))
	}

	r.emit(ctx, handler, result, event)
}

// emit delivers an event. Handler errors are logged, never propagated: a
// reporting problem must not halt the remaining features.
func (r *Runner) emit(ctx context.Context, handler Handler, result *Result, event Event) {
	if err := handler.Event(ctx, event, result); err != nil {
		r.log.Debug("event handler error", zap.Error(err))
	}
}

func (r *Runner) emitErr(handler Handler, text string) {
	if err := handler.Err(text); err != nil {
		r.log.Debug("event handler error", zap.Error(err))
	}
}

// notify delivers the completion summary through the optional channel.
func (r *Runner) notify(result *Result) {
	if r.notifier == nil {
		return
	}

	status := "PASS"
	if !result.Ok() {
		status = "FAIL"
	}

	summary := fmt.Sprintf("%s: %d features, %d passed, %d failed",
		status, result.Total, result.Passed, result.Failed+result.Errors)

	if err := r.notifier.Notify(summary); err != nil {
		r.log.Warn("notification failed", zap.Error(err))
	}
}
