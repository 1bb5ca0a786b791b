package scenic

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Feature is a named, fully compiled sequence of steps representing one
// test scenario. It is immutable after construction and evaluated exactly
// once per run.
type Feature struct {
	description string
	steps       []*CompiledStep
	widgets     Registry
}

// NewFeature compiles a classified scenario against the widget registry.
// Heuristic classification has already happened at the authoring boundary;
// attribute paths are pre-validated here, so construction fails before any
// step can execute.
func NewFeature(description string, raw []Element, widgets Registry) (*Feature, error) {
	steps, err := Compile(raw, widgets)
	if err != nil {
		return nil, fmt.Errorf("feature %q: %w", description, err)
	}

	return &Feature{
		description: description,
		steps:       steps,
		widgets:     widgets,
	}, nil
}

// Description returns the feature's human-readable description.
func (f *Feature) Description() string { return f.description }

// Steps returns the compiled plan. The slice is shared; callers must not
// mutate it.
func (f *Feature) Steps() []*CompiledStep { return f.steps }

// Test executes every compiled step exactly once, strictly in order.
//
// A step's failure never halts the remaining steps: one run surfaces every
// problem in the scenario, not just the first. Assertion mismatches and
// missing elements accumulate as failures; panics and unexpected action
// errors accumulate as errors. A feature with zero steps is vacuously
// satisfiable.
func (f *Feature) Test(ctx context.Context) error {
	var failures, errs []string

	for _, step := range f.steps {
		err := step.invoke(ctx)
		if err == nil {
			continue
		}

		var fail *Failure
		if errors.As(err, &fail) {
			failures = append(failures, fail.Reason)
		} else {
			errs = append(errs, err.Error())
		}
	}

	if len(failures) > 0 || len(errs) > 0 {
		return &RunError{Failures: failures, Errors: errs}
	}

	return nil
}

// RunError aggregates every problem a feature run surfaced: expected-value
// mismatches in Failures, unexpected exceptions and rejected actions in
// Errors, each in originating step order.
type RunError struct {
	Failures []string
	Errors   []string
}

// Error implements the error interface.
func (e *RunError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d failure(s), %d error(s)", len(e.Failures), len(e.Errors))

	for _, f := range e.Failures {
		b.WriteString("\n  failure: ")
		b.WriteString(f)
	}

	for _, m := range e.Errors {
		b.WriteString("\n  error: ")
		b.WriteString(m)
	}

	return b.String()
}
