// Package scenic compiles declarative widget and feature descriptions into
// executable browser-test plans and runs them against a driver session.
package scenic

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/rlch/scenic/driver"
)

// Step is a named callable scenario action. Steps are referenced by
// features and bound to their arguments during compilation.
type Step struct {
	name string
	fn   func(ctx context.Context, args []any) error
}

// NewStep creates a step from a name and an action function.
func NewStep(name string, fn func(ctx context.Context, args []any) error) *Step {
	return &Step{name: name, fn: fn}
}

// Name returns the step's qualified name.
func (s *Step) Name() string { return s.name }

// Element is a classified scenario element. Classification happens once at
// the authoring boundary, when the loader converts an evaluated scenario
// literal; the compiler only ever sees tagged variants.
type Element interface {
	isElement()
}

// StepElement is a callable action step.
type StepElement struct {
	Step *Step
}

// ArgsElement is an ordered argument list for the immediately preceding
// action step.
type ArgsElement struct {
	Args []any
}

// AssertionElement is a state assertion: dotted attribute paths mapped to
// their expected textual values.
type AssertionElement struct {
	Expect map[string]string
}

// PrimitiveElement is a bare value, bound as a single positional argument
// to the immediately preceding action step.
type PrimitiveElement struct {
	Value any
}

func (StepElement) isElement()      {}
func (ArgsElement) isElement()      {}
func (AssertionElement) isElement() {}
func (PrimitiveElement) isElement() {}

// Classify converts a raw evaluated scenario value into a tagged element.
func Classify(v any) Element {
	switch t := v.(type) {
	case nil:
		return PrimitiveElement{}
	case Element:
		return t
	case *Step:
		return StepElement{Step: t}
	case []any:
		return ArgsElement{Args: t}
	case map[string]any:
		expect := make(map[string]string, len(t))
		for path, want := range t {
			expect[path] = fmt.Sprint(want)
		}

		return AssertionElement{Expect: expect}
	case map[string]string:
		return AssertionElement{Expect: t}
	}

	// Sequence- and mapping-shaped values arriving as concrete types from
	// the evaluator.
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		args := make([]any, rv.Len())
		for i := range args {
			args[i] = rv.Index(i).Interface()
		}

		return ArgsElement{Args: args}
	case reflect.Map:
		expect := make(map[string]string, rv.Len())
		for _, key := range rv.MapKeys() {
			expect[fmt.Sprint(key.Interface())] = fmt.Sprint(rv.MapIndex(key).Interface())
		}

		return AssertionElement{Expect: expect}
	default:
		return PrimitiveElement{Value: v}
	}
}

// StepKind distinguishes compiled step flavors.
type StepKind string

// Compiled step kinds.
const (
	KindAction    StepKind = "action"
	KindAssertion StepKind = "assertion"
)

// CompiledStep is one entry of a feature's executable plan.
type CompiledStep struct {
	Kind StepKind

	// Name is the qualified step name, or the asserted paths for
	// assertion steps.
	Name string

	// Args are the bound arguments of an action step.
	Args []any

	// Expect holds the expected values of an assertion step.
	Expect map[string]string

	step *Step
	run  func(ctx context.Context) error
}

// invoke runs the step, converting panics from user-supplied behavior into
// ordinary errors.
func (cs *CompiledStep) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	return cs.run(ctx)
}

// Compile turns a classified scenario into an ordered executable plan.
//
// Processing is strictly left to right: action steps append; argument
// lists rebind the arguments of the previously appended action step (the
// original callable is retained, so a later list replaces an earlier
// binding outright); assertions are validated against the registry and
// appended; bare primitives behave as one-element argument lists.
// Compilation is pure given the same registry.
func Compile(raw []Element, reg Registry) ([]*CompiledStep, error) {
	out := make([]*CompiledStep, 0, len(raw))

	bind := func(args []any) error {
		if len(out) == 0 || out[len(out)-1].Kind != KindAction {
			return ErrDanglingArguments
		}

		out[len(out)-1].Args = args

		return nil
	}

	for _, el := range raw {
		switch t := el.(type) {
		case StepElement:
			cs := &CompiledStep{Kind: KindAction, Name: t.Step.Name(), step: t.Step}
			cs.run = func(ctx context.Context) error {
				return cs.step.fn(ctx, cs.Args)
			}

			out = append(out, cs)
		case ArgsElement:
			if err := bind(t.Args); err != nil {
				return nil, err
			}
		case AssertionElement:
			cs, err := compileAssertion(t.Expect, reg)
			if err != nil {
				return nil, err
			}

			out = append(out, cs)
		case PrimitiveElement:
			if err := bind([]any{t.Value}); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("scenic: unsupported scenario element %T", el)
		}
	}

	return out, nil
}

// compileAssertion validates every asserted path eagerly and builds the
// assertion thunk. An unknown widget name aborts compilation immediately.
func compileAssertion(expect map[string]string, reg Registry) (*CompiledStep, error) {
	// The authoring literal is an unordered mapping; sorting fixes which
	// mismatch reports first.
	keys := make([]string, 0, len(expect))
	for path := range expect {
		keys = append(keys, path)
	}

	sort.Strings(keys)

	paths := make([]*AttrPath, len(keys))

	for i, key := range keys {
		p, err := ParseAttrPath(key)
		if err != nil {
			return nil, fmt.Errorf("scenic: bad attribute path %q: %w", key, err)
		}

		if err := p.Validate(reg); err != nil {
			return nil, err
		}

		paths[i] = p
	}

	cs := &CompiledStep{
		Kind:   KindAssertion,
		Name:   "assert " + strings.Join(keys, ", "),
		Expect: expect,
	}
	cs.run = assertionThunk(paths, expect, reg)

	return cs, nil
}

// assertionThunk checks every declared attribute concurrently against the
// live page. Reads are independent and may interleave, but the thunk only
// settles once all of them have reported; it then fails with the first
// mismatching attribute in path order. An empty expectation is vacuously
// true.
func assertionThunk(paths []*AttrPath, expect map[string]string, reg Registry) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if len(paths) == 0 {
			return nil
		}

		mismatches := make([]string, len(paths))

		var wg sync.WaitGroup

		for i, p := range paths {
			wg.Add(1)

			go func(i int, p *AttrPath) {
				defer wg.Done()

				actual, err := p.Resolve(ctx, reg)
				if err != nil {
					mismatches[i] = err.Error()

					return
				}

				if want := expect[p.String()]; actual != want {
					mismatches[i] = fmt.Sprintf("%s was %q instead of %q", p, actual, want)
				}
			}(i, p)
		}

		wg.Wait()

		for _, msg := range mismatches {
			if msg != "" {
				return &Failure{Reason: msg}
			}
		}

		return nil
	}
}

// Failure is an expected-vs-actual mismatch detected by an assertion, or a
// missing element at assertion time. The executor aggregates failures
// separately from unexpected errors.
type Failure struct {
	Reason string
}

// Error implements the error interface.
func (f *Failure) Error() string { return f.Reason }

// Failuref creates a Failure from a format string.
func Failuref(format string, args ...any) *Failure {
	return &Failure{Reason: fmt.Sprintf(format, args...)}
}

// DriverScope exposes session-level actions as pre-bound scenario steps,
// so features can navigate without going through a widget.
type DriverScope struct {
	session driver.Session
}

// NewDriverScope wraps a session for use inside the loader sandbox.
func NewDriverScope(session driver.Session) *DriverScope {
	return &DriverScope{session: session}
}

// Navigate returns a step that loads the given URL.
func (d *DriverScope) Navigate(url string) *Step {
	return NewStep("driver.navigate", func(ctx context.Context, _ []any) error {
		return d.session.Navigate(ctx, url)
	})
}

// Refresh returns a step that reloads the current page.
func (d *DriverScope) Refresh() *Step {
	return NewStep("driver.refresh", func(ctx context.Context, _ []any) error {
		return d.session.Refresh(ctx)
	})
}
