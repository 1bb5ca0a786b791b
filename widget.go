package scenic

import (
	"context"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rlch/scenic/driver"
)

// Registry maps widget names to loaded widgets. It is written only during
// suite loading and read-only afterwards.
type Registry map[string]*Widget

// Descriptor is the authored description of a widget: logical element
// names mapped to locator descriptors, and method names mapped to behavior
// expressions.
type Descriptor struct {
	Elements map[string]string
	Methods  map[string]string
}

// ParseDescriptor converts an evaluated widget-file literal into a
// Descriptor.
func ParseDescriptor(v any) (Descriptor, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: expected a mapping, got %T", ErrBadDescriptor, v)
	}

	d := Descriptor{
		Elements: make(map[string]string),
		Methods:  make(map[string]string),
	}

	for key, section := range m {
		var dst map[string]string

		switch key {
		case "elements":
			dst = d.Elements
		case "methods":
			dst = d.Methods
		default:
			return Descriptor{}, fmt.Errorf("%w: unknown section %q", ErrBadDescriptor, key)
		}

		entries, ok := section.(map[string]any)
		if !ok {
			return Descriptor{}, fmt.Errorf("%w: section %q must be a mapping", ErrBadDescriptor, key)
		}

		for name, val := range entries {
			s, ok := val.(string)
			if !ok {
				return Descriptor{}, fmt.Errorf("%w: %s.%s must be a string", ErrBadDescriptor, key, name)
			}

			dst[name] = s
		}
	}

	return d, nil
}

// Widget is a named bundle of element locators and behavior methods bound
// to a driver session. Widgets are created once during suite loading and
// never mutated afterwards.
type Widget struct {
	name     string
	elements map[string]driver.Locator
	methods  map[string]*method
	session  driver.Session
}

// method is a compiled behavior expression.
type method struct {
	name    string
	src     string
	program *vm.Program
}

// methodEnv is the evaluation environment for widget behavior methods.
// Methods receive an explicit handle to their owning widget's namespace as
// self, never an implicit receiver.
type methodEnv struct {
	Self *MethodScope  `expr:"self"`
	Args []any         `expr:"args"`
	Arg  func(int) any `expr:"arg"`
}

// NewWidget constructs a widget from its descriptor. Locators are parsed
// and behavior expressions compiled eagerly so that authoring mistakes
// surface at load time.
func NewWidget(name string, desc Descriptor, session driver.Session) (*Widget, error) {
	w := &Widget{
		name:     name,
		elements: make(map[string]driver.Locator, len(desc.Elements)),
		methods:  make(map[string]*method, len(desc.Methods)),
		session:  session,
	}

	for elName, descriptor := range desc.Elements {
		loc, err := driver.ParseLocator(descriptor)
		if err != nil {
			return nil, fmt.Errorf("widget %s, element %s: %w", name, elName, err)
		}

		w.elements[elName] = loc
	}

	for methodName, src := range desc.Methods {
		program, err := expr.Compile(src, expr.Env(methodEnv{}))
		if err != nil {
			return nil, fmt.Errorf("widget %s, method %s: %w", name, methodName, err)
		}

		w.methods[methodName] = &method{name: methodName, src: src, program: program}
	}

	return w, nil
}

// Name returns the widget's registry name.
func (w *Widget) Name() string { return w.name }

// Element resolves a declared element against the current page.
func (w *Widget) Element(ctx context.Context, name string) (driver.ElementRef, error) {
	loc, ok := w.elements[name]
	if !ok {
		return driver.ElementRef{}, fmt.Errorf("%w: %s.%s", ErrUnknownElement, w.name, name)
	}

	return w.session.Find(ctx, loc)
}

// Has reports whether the named element is present on the current page.
// Resolution failure is not itself a failure; it answers false.
func (w *Widget) Has(ctx context.Context, name string) bool {
	_, err := w.Element(ctx, name)

	return err == nil
}

// Value returns the element's current textual value, using the rendered
// text with a fallback to the value attribute. Content elements and form
// inputs are handled transparently.
func (w *Widget) Value(ctx context.Context, name string) (string, error) {
	el, err := w.Element(ctx, name)
	if err != nil {
		return "", err
	}

	return w.readValue(ctx, el)
}

func (w *Widget) readValue(ctx context.Context, el driver.ElementRef) (string, error) {
	text, err := w.session.Text(ctx, el)
	if err != nil {
		return "", err
	}

	if text != "" {
		return text, nil
	}

	return w.session.Attribute(ctx, el, "value")
}

// Call invokes a declared behavior method with the given arguments.
func (w *Widget) Call(ctx context.Context, name string, args []any) error {
	m, ok := w.methods[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, w.name, name)
	}

	env := methodEnv{
		Self: &MethodScope{ctx: ctx, widget: w},
		Args: args,
		Arg: func(i int) any {
			if i < 0 || i >= len(args) {
				return nil
			}

			return args[i]
		},
	}

	_, err := expr.Run(m.program, env)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", w.name, name, err)
	}

	return nil
}

// Step returns the named behavior method as a scenario step.
func (w *Widget) Step(name string) *Step {
	qualified := w.name + "." + name

	return NewStep(qualified, func(ctx context.Context, args []any) error {
		return w.Call(ctx, name, args)
	})
}

// LinkStep returns a zero-argument step that resolves the named element
// and clicks it. Derived automatically for elements carrying LinkSuffix.
func (w *Widget) LinkStep(name string) *Step {
	qualified := w.name + "." + name

	return NewStep(qualified, func(ctx context.Context, _ []any) error {
		el, err := w.Element(ctx, name)
		if err != nil {
			return err
		}

		return w.session.Click(ctx, el)
	})
}

// Namespace returns the widget's sandbox-visible surface: every declared
// method as a step, plus a click step for every element whose name carries
// the link suffix. Methods shadow same-named link elements.
func (w *Widget) Namespace() map[string]any {
	ns := make(map[string]any)

	for elName := range w.elements {
		if strings.HasSuffix(elName, LinkSuffix) {
			ns[elName] = w.LinkStep(elName)
		}
	}

	for methodName := range w.methods {
		ns[methodName] = w.Step(methodName)
	}

	return ns
}

// MethodScope is the explicit owning-widget handle passed to behavior
// methods as self. It exposes sibling elements and the driver session.
// Interaction methods return the scope itself so expressions can chain:
//
//	self.SendKeys("queryField", arg(0)).Submit("queryField")
type MethodScope struct {
	ctx    context.Context
	widget *Widget
}

// Click clicks the named element.
func (s *MethodScope) Click(name string) (*MethodScope, error) {
	el, err := s.widget.Element(s.ctx, name)
	if err != nil {
		return s, err
	}

	return s, s.widget.session.Click(s.ctx, el)
}

// SendKeys types text into the named element.
func (s *MethodScope) SendKeys(name, text string) (*MethodScope, error) {
	el, err := s.widget.Element(s.ctx, name)
	if err != nil {
		return s, err
	}

	return s, s.widget.session.SendKeys(s.ctx, el, text)
}

// Submit submits the form the named element belongs to.
func (s *MethodScope) Submit(name string) (*MethodScope, error) {
	el, err := s.widget.Element(s.ctx, name)
	if err != nil {
		return s, err
	}

	return s, s.widget.session.Submit(s.ctx, el)
}

// Navigate loads a URL in the session.
func (s *MethodScope) Navigate(url string) (*MethodScope, error) {
	return s, s.widget.session.Navigate(s.ctx, url)
}

// Text returns the named element's current textual value.
func (s *MethodScope) Text(name string) (string, error) {
	return s.widget.Value(s.ctx, name)
}

// Attribute returns a DOM attribute of the named element.
func (s *MethodScope) Attribute(name, attr string) (string, error) {
	el, err := s.widget.Element(s.ctx, name)
	if err != nil {
		return "", err
	}

	return s.widget.session.Attribute(s.ctx, el, attr)
}

// Has reports whether the named element is present on the current page.
func (s *MethodScope) Has(name string) bool {
	return s.widget.Has(s.ctx, name)
}
