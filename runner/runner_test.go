package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rlch/scenic"
	"github.com/rlch/scenic/driver"
)

type stubSession struct {
	mu      sync.Mutex
	navErr  error
	visited []string
	closed  bool
}

func (s *stubSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.navErr != nil {
		return s.navErr
	}

	s.visited = append(s.visited, url)

	return nil
}

func (s *stubSession) Refresh(context.Context) error { return nil }

func (s *stubSession) Find(_ context.Context, loc driver.Locator) (driver.ElementRef, error) {
	return driver.ElementRef{Locator: loc}, nil
}

func (s *stubSession) Text(context.Context, driver.ElementRef) (string, error) {
	return "", nil
}

func (s *stubSession) Attribute(context.Context, driver.ElementRef, string) (string, error) {
	return "", nil
}

func (s *stubSession) Click(context.Context, driver.ElementRef) error { return nil }

func (s *stubSession) SendKeys(context.Context, driver.ElementRef, string) error {
	return nil
}

func (s *stubSession) Submit(context.Context, driver.ElementRef) error { return nil }

func (s *stubSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

type recordingHandler struct {
	events []Event
	errs   []string
}

func (h *recordingHandler) Event(_ context.Context, event Event, _ *Result) error {
	h.events = append(h.events, event)

	return nil
}

func (h *recordingHandler) Err(text string) error {
	h.errs = append(h.errs, text)

	return nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(summary string) error {
	n.messages = append(n.messages, summary)

	return nil
}

// stepFeature builds a single-step feature whose step returns err.
func stepFeature(t *testing.T, desc string, err error) *scenic.Feature {
	t.Helper()

	step := scenic.NewStep(desc+".step", func(context.Context, []any) error {
		return err
	})

	f, ferr := scenic.NewFeature(desc, []scenic.Element{scenic.Classify(step)}, nil)
	if ferr != nil {
		t.Fatalf("NewFeature(%s): %v", desc, ferr)
	}

	return f
}

func TestRunRequiresSessionAndBaseURL(t *testing.T) {
	if _, err := New(WithBaseURL("https://example.com")).Run(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Run without session = %v, want ErrNoSession", err)
	}

	r := New(WithSession(&stubSession{}))
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrNoBaseURL) {
		t.Errorf("Run without base URL = %v, want ErrNoBaseURL", err)
	}

	if r.State() != StateIdle {
		t.Errorf("state after rejected run = %v, want StateIdle", r.State())
	}
}

func TestRunAggregatesOutcomes(t *testing.T) {
	session := &stubSession{}
	handler := &recordingHandler{}

	features := []*scenic.Feature{
		stepFeature(t, "passes", nil),
		stepFeature(t, "fails", scenic.Failuref("result was %q instead of %q", "15", "14")),
		stepFeature(t, "errors", fmt.Errorf("driver exploded")),
	}

	r := New(
		WithSession(session),
		WithBaseURL("https://example.com"),
		WithSuite("clock"),
		WithFeatures(features),
		WithHandler(handler),
	)

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Total != 3 || result.Passed != 1 || result.Failed != 1 || result.Errors != 1 {
		t.Errorf("counts = %d/%d/%d/%d, want 3/1/1/1",
			result.Total, result.Passed, result.Failed, result.Errors)
	}

	if result.Ok() {
		t.Error("Ok() = true for a failing suite")
	}

	if r.State() != StateFinished {
		t.Errorf("state = %v, want StateFinished", r.State())
	}

	if !session.closed {
		t.Error("session not closed after run")
	}

	if len(session.visited) != 1 || session.visited[0] != "https://example.com" {
		t.Errorf("visited = %v, want the base URL once", session.visited)
	}

	// One run event and one terminal event per feature, in order.
	if len(handler.events) != 6 {
		t.Fatalf("got %d events, want 6", len(handler.events))
	}

	wantActions := []Action{ActionRun, ActionPass, ActionRun, ActionFail, ActionRun, ActionError}
	for i, want := range wantActions {
		if handler.events[i].Action != want {
			t.Errorf("event %d action = %v, want %v", i, handler.events[i].Action, want)
		}
	}

	failEvent := handler.events[3]
	if len(failEvent.Failures) != 1 || !strings.Contains(failEvent.Failures[0], "instead of") {
		t.Errorf("fail event failures = %v", failEvent.Failures)
	}

	failed := result.FailedFeatures()
	if len(failed) != 2 || failed[0].Feature != "fails" || failed[1].Feature != "errors" {
		t.Errorf("FailedFeatures = %v", failed)
	}
}

func TestRunContinuesPastFailingFeature(t *testing.T) {
	session := &stubSession{}
	handler := &recordingHandler{}

	r := New(
		WithSession(session),
		WithBaseURL("https://example.com"),
		WithFeatures([]*scenic.Feature{
			stepFeature(t, "first fails", scenic.Failuref("nope")),
			stepFeature(t, "second runs anyway", nil),
		}),
		WithHandler(handler),
	)

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Total != 2 || result.Passed != 1 {
		t.Errorf("counts = %d total %d passed, want 2 total 1 passed", result.Total, result.Passed)
	}
}

func TestRunNavigationFailureIsFatal(t *testing.T) {
	session := &stubSession{navErr: fmt.Errorf("connection refused")}
	handler := &recordingHandler{}
	notifier := &recordingNotifier{}

	r := New(
		WithSession(session),
		WithBaseURL("https://example.com"),
		WithFeatures([]*scenic.Feature{stepFeature(t, "never runs", nil)}),
		WithHandler(handler),
		WithNotifier(notifier),
	)

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Fatal == nil {
		t.Fatal("Fatal not set after navigation failure")
	}

	if result.Total != 0 {
		t.Errorf("Total = %d, want 0: no feature should run", result.Total)
	}

	if result.Ok() {
		t.Error("Ok() = true after fatal navigation failure")
	}

	if !session.closed {
		t.Error("session not closed after fatal navigation failure")
	}

	if len(handler.events) != 0 {
		t.Errorf("got %d feature events, want 0", len(handler.events))
	}

	if len(handler.errs) != 1 || !strings.Contains(handler.errs[0], "https://example.com") {
		t.Errorf("handler errs = %v", handler.errs)
	}

	if len(notifier.messages) != 1 || !strings.HasPrefix(notifier.messages[0], "FAIL") {
		t.Errorf("notifications = %v", notifier.messages)
	}
}

func TestRunNotifiesSummary(t *testing.T) {
	notifier := &recordingNotifier{}

	r := New(
		WithSession(&stubSession{}),
		WithBaseURL("https://example.com"),
		WithFeatures([]*scenic.Feature{stepFeature(t, "passes", nil)}),
		WithNotifier(notifier),
	)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "PASS: 1 features, 1 passed, 0 failed"
	if len(notifier.messages) != 1 || notifier.messages[0] != want {
		t.Errorf("notifications = %v, want [%q]", notifier.messages, want)
	}
}

func TestResultMerge(t *testing.T) {
	a := NewResult()
	a.Add(Event{Action: ActionPass, Suite: "s1", Feature: "f1"})
	a.Finish()

	b := NewResult()
	b.Add(Event{Action: ActionFail, Suite: "s2", Feature: "f2"})
	b.SetFatal(fmt.Errorf("boom"))
	b.Finish()

	a.Merge(b)

	if a.Total != 2 || a.Passed != 1 || a.Failed != 1 {
		t.Errorf("merged counts = %d/%d/%d, want 2/1/1", a.Total, a.Passed, a.Failed)
	}

	if a.Fatal == nil {
		t.Error("merge dropped the fatal error")
	}

	if len(a.Order) != 2 {
		t.Errorf("merged order = %v, want 2 entries", a.Order)
	}

	if a.Ok() {
		t.Error("Ok() = true after merging a failed result")
	}
}

var _ driver.Session = (*stubSession)(nil)
