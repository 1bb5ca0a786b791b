package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Formatter renders feature events and results.
type Formatter interface {
	Format(event Event, result *Result) error
	Summary(result *Result) error
}

// Summarizer is implemented by handlers that can render a final summary.
type Summarizer interface {
	Summary(result *Result) error
}

// FormatHandler is a Handler that delegates to a Formatter.
type FormatHandler struct {
	formatter Formatter
	stderr    io.Writer
}

// NewFormatHandler creates a handler that formats events.
func NewFormatHandler(f Formatter, stderr io.Writer) *FormatHandler {
	return &FormatHandler{formatter: f, stderr: stderr}
}

// Event formats the event.
func (h *FormatHandler) Event(_ context.Context, event Event, result *Result) error {
	return h.formatter.Format(event, result)
}

// Err writes to stderr.
func (h *FormatHandler) Err(text string) error {
	_, err := h.stderr.Write([]byte(text + "\n"))

	return err
}

// Summary renders the final summary.
func (h *FormatHandler) Summary(result *Result) error {
	return h.formatter.Summary(result)
}

// -----------------------------------------------------------------------------
// Dots Formatter
// -----------------------------------------------------------------------------

// DotsFormatter is a minimal formatter that prints one character per
// feature.
type DotsFormatter struct {
	w     io.Writer
	count int
}

// NewDotsFormatter creates a dots formatter.
func NewDotsFormatter(w io.Writer) *DotsFormatter {
	return &DotsFormatter{w: w}
}

const lineWidth = 80

// Format prints a single character per terminal event.
func (d *DotsFormatter) Format(event Event, _ *Result) error {
	if !event.Action.IsTerminal() {
		return nil
	}

	var char string

	switch event.Action {
	case ActionPass:
		char = "."
	case ActionFail:
		char = "F"
	case ActionError:
		char = "E"
	case ActionRun:
		return nil
	}

	_, err := fmt.Fprint(d.w, char)
	d.count++

	if d.count%lineWidth == 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	return err
}

// Summary prints the final results.
func (d *DotsFormatter) Summary(result *Result) error {
	if d.count > 0 && d.count%lineWidth != 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	_, _ = fmt.Fprintln(d.w)

	for _, fr := range result.FailedFeatures() {
		switch fr.Status {
		case ActionFail:
			_, _ = fmt.Fprintf(d.w, "FAIL %s\n", fr.Feature)

			for _, f := range fr.Failures {
				_, _ = fmt.Fprintf(d.w, "  failure: %s\n", f)
			}

			for _, e := range fr.Errors {
				_, _ = fmt.Fprintf(d.w, "  error: %s\n", e)
			}
		case ActionError:
			_, _ = fmt.Fprintf(d.w, "ERROR %s\n", fr.Feature)

			for _, e := range fr.Errors {
				_, _ = fmt.Fprintf(d.w, "  error: %s\n", e)
			}

			if fr.Err != nil {
				_, _ = fmt.Fprintf(d.w, "  error: %v\n", fr.Err)
			}
		case ActionPass, ActionRun:
			// Not failures
		}

		_, _ = fmt.Fprintln(d.w)
	}

	if result.Fatal != nil {
		_, _ = fmt.Fprintf(d.w, "FATAL %v\n\n", result.Fatal)
	}

	status := "PASS"
	if !result.Ok() {
		status = "FAIL"
	}

	_, err := fmt.Fprintf(d.w, "%s %d features, %d passed, %d failed, %d errored in %s\n",
		status,
		result.Total,
		result.Passed,
		result.Failed,
		result.Errors,
		result.Elapsed().Round(time.Millisecond))

	return err
}

// -----------------------------------------------------------------------------
// Verbose Formatter
// -----------------------------------------------------------------------------

// VerboseFormatter prints go-test style per-feature lines.
type VerboseFormatter struct {
	w io.Writer
}

// NewVerboseFormatter creates a verbose formatter.
func NewVerboseFormatter(w io.Writer) *VerboseFormatter {
	return &VerboseFormatter{w: w}
}

// Format prints one line per event.
func (v *VerboseFormatter) Format(event Event, _ *Result) error {
	switch event.Action {
	case ActionRun:
		_, err := fmt.Fprintf(v.w, "=== RUN   %s\n", event.Feature)

		return err
	case ActionPass:
		_, err := fmt.Fprintf(v.w, "--- PASS: %s (%s)\n", event.Feature, event.Elapsed.Round(time.Millisecond))

		return err
	case ActionFail:
		_, _ = fmt.Fprintf(v.w, "--- FAIL: %s (%s)\n", event.Feature, event.Elapsed.Round(time.Millisecond))

		for _, f := range event.Failures {
			_, _ = fmt.Fprintf(v.w, "    failure: %s\n", f)
		}

		for _, e := range event.Errors {
			_, _ = fmt.Fprintf(v.w, "    error: %s\n", e)
		}

		return nil
	case ActionError:
		_, _ = fmt.Fprintf(v.w, "--- ERROR: %s (%s)\n", event.Feature, event.Elapsed.Round(time.Millisecond))

		for _, e := range event.Errors {
			_, _ = fmt.Fprintf(v.w, "    error: %s\n", e)
		}

		if event.Err != nil {
			_, _ = fmt.Fprintf(v.w, "    error: %v\n", event.Err)
		}

		return nil
	default:
		return nil
	}
}

// Summary prints the final counts.
func (v *VerboseFormatter) Summary(result *Result) error {
	if result.Fatal != nil {
		_, _ = fmt.Fprintf(v.w, "FATAL %v\n", result.Fatal)
	}

	status := "PASS"
	if !result.Ok() {
		status = "FAIL"
	}

	_, err := fmt.Fprintf(v.w, "%s %d features, %d passed, %d failed, %d errored in %s\n",
		status,
		result.Total,
		result.Passed,
		result.Failed,
		result.Errors,
		result.Elapsed().Round(time.Millisecond))

	return err
}

// -----------------------------------------------------------------------------
// JSON Formatter
// -----------------------------------------------------------------------------

// JSONFormatter emits one JSON object per event, suitable for machine
// consumption.
type JSONFormatter struct {
	enc *json.Encoder
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{enc: json.NewEncoder(w)}
}

type jsonEvent struct {
	Time     time.Time `json:"time"`
	Action   Action    `json:"action"`
	Suite    string    `json:"suite,omitempty"`
	Feature  string    `json:"feature,omitempty"`
	Elapsed  float64   `json:"elapsed,omitempty"`
	Failures []string  `json:"failures,omitempty"`
	Errors   []string  `json:"errors,omitempty"`
	Err      string    `json:"fatal,omitempty"`
}

// Format emits the event as JSON.
func (j *JSONFormatter) Format(event Event, _ *Result) error {
	je := jsonEvent{
		Time:     event.Time,
		Action:   event.Action,
		Suite:    event.Suite,
		Feature:  event.Feature,
		Elapsed:  event.Elapsed.Seconds(),
		Failures: event.Failures,
		Errors:   event.Errors,
	}
	if event.Err != nil {
		je.Err = event.Err.Error()
	}

	return j.enc.Encode(je)
}

type jsonSummary struct {
	Ok      bool    `json:"ok"`
	Total   int     `json:"total"`
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	Errors  int     `json:"errors"`
	Elapsed float64 `json:"elapsed"`
	Fatal   string  `json:"fatal,omitempty"`
}

// Summary emits the final counts as JSON.
func (j *JSONFormatter) Summary(result *Result) error {
	js := jsonSummary{
		Ok:      result.Ok(),
		Total:   result.Total,
		Passed:  result.Passed,
		Failed:  result.Failed,
		Errors:  result.Errors,
		Elapsed: result.Elapsed().Seconds(),
	}
	if result.Fatal != nil {
		js.Fatal = result.Fatal.Error()
	}

	return j.enc.Encode(js)
}
