package scenic

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// AttrPath is a dotted widget-attribute reference of the form
// WidgetName.elementName, with an optional trailing DOM attribute segment
// (WidgetName.elementName.title).
type AttrPath struct {
	Widget string   `parser:"@Ident"`
	Attrs  []string `parser:"( '.' @Ident )+"`
}

var pathParser = participle.MustBuild[AttrPath]()

// ParseAttrPath parses a dotted attribute path.
func ParseAttrPath(s string) (*AttrPath, error) {
	return pathParser.ParseString("", strings.TrimSpace(s))
}

// String returns the path in its authored dotted form.
func (p *AttrPath) String() string {
	return p.Widget + "." + strings.Join(p.Attrs, ".")
}

// Element returns the logical element name segment.
func (p *AttrPath) Element() string {
	return p.Attrs[0]
}

// Validate checks the path against a widget registry at compile time.
//
// Only the widget-name segment is checked: the element can only be
// confirmed against the live page, which differs across scenario steps and
// is unknown until execution. Authoring typos in widget names are caught
// early; element presence checks are deferred to runtime.
func (p *AttrPath) Validate(reg Registry) error {
	if _, ok := reg[p.Widget]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, p.Widget)
	}

	if len(p.Attrs) > 2 {
		return fmt.Errorf("%w: %s", ErrPathTooDeep, p)
	}

	return nil
}

// Resolve dereferences the path against the live page and returns the
// current textual value of the addressed attribute.
//
// With a single attribute segment the element's rendered text is returned,
// falling back to its value attribute when the text is empty. A second
// segment selects a raw DOM attribute instead. An unresolvable segment
// yields a *Failure naming the absent element rather than a generic error.
func (p *AttrPath) Resolve(ctx context.Context, reg Registry) (string, error) {
	w, ok := reg[p.Widget]
	if !ok {
		return "", Failuref("widget %s does not exist", p.Widget)
	}

	el, err := w.Element(ctx, p.Element())
	if err != nil {
		return "", Failuref("element %s does not exist on the page", p.Element())
	}

	if len(p.Attrs) > 1 {
		return w.session.Attribute(ctx, el, p.Attrs[1])
	}

	return w.readValue(ctx, el)
}
