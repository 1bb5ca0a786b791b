package runner

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func terminalEvents() []Event {
	return []Event{
		{Action: ActionRun, Feature: "passes"},
		{Action: ActionPass, Feature: "passes", Elapsed: 10 * time.Millisecond},
		{Action: ActionRun, Feature: "fails"},
		{
			Action:   ActionFail,
			Feature:  "fails",
			Elapsed:  5 * time.Millisecond,
			Failures: []string{`ClockWidget.result was "15" instead of "14"`},
		},
		{Action: ActionRun, Feature: "errors"},
		{
			Action:  ActionError,
			Feature: "errors",
			Errors:  []string{"driver exploded"},
		},
	}
}

func feedResult(events []Event) *Result {
	result := NewResult()
	for _, e := range events {
		result.Add(e)
	}

	result.Finish()

	return result
}

func TestDotsFormatter(t *testing.T) {
	var buf bytes.Buffer

	f := NewDotsFormatter(&buf)
	events := terminalEvents()

	for _, e := range events {
		if err := f.Format(e, nil); err != nil {
			t.Fatalf("Format: %v", err)
		}
	}

	if got := buf.String(); got != ".FE" {
		t.Errorf("dots output = %q, want %q", got, ".FE")
	}

	buf.Reset()

	if err := f.Summary(feedResult(events)); err != nil {
		t.Fatalf("Summary: %v", err)
	}

	out := buf.String()

	for _, want := range []string{
		"FAIL fails",
		`failure: ClockWidget.result was "15" instead of "14"`,
		"ERROR errors",
		"error: driver exploded",
		"FAIL 3 features, 1 passed, 1 failed, 1 errored",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestVerboseFormatter(t *testing.T) {
	var buf bytes.Buffer

	f := NewVerboseFormatter(&buf)

	for _, e := range terminalEvents() {
		if err := f.Format(e, nil); err != nil {
			t.Fatalf("Format: %v", err)
		}
	}

	out := buf.String()

	for _, want := range []string{
		"=== RUN   passes",
		"--- PASS: passes (10ms)",
		"--- FAIL: fails (5ms)",
		`    failure: ClockWidget.result was "15" instead of "14"`,
		"--- ERROR: errors",
		"    error: driver exploded",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer

	f := NewJSONFormatter(&buf)
	events := terminalEvents()

	for _, e := range events {
		if err := f.Format(e, nil); err != nil {
			t.Fatalf("Format: %v", err)
		}
	}

	if err := f.Summary(feedResult(events)); err != nil {
		t.Fatalf("Summary: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(events)+1 {
		t.Fatalf("got %d JSON lines, want %d", len(lines), len(events)+1)
	}

	var fail jsonEvent
	if err := json.Unmarshal([]byte(lines[3]), &fail); err != nil {
		t.Fatalf("unmarshal fail event: %v", err)
	}

	if fail.Action != ActionFail || len(fail.Failures) != 1 {
		t.Errorf("fail event = %+v", fail)
	}

	var summary jsonSummary
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &summary); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}

	if summary.Ok || summary.Total != 3 || summary.Passed != 1 {
		t.Errorf("summary = %+v", summary)
	}
}
