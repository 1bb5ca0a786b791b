package suite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/expr-lang/expr"
	"go.uber.org/zap"

	"github.com/rlch/scenic"
	"github.com/rlch/scenic/driver"
)

// sandbox is the isolated evaluation context suite files run in. Its
// environment exposes exactly the widget constructor, the feature
// constructor, the driver handle, the shared widget mapping, the shared
// feature list bridge and a logging function; evaluated code can reach
// nothing else. Data files grow the environment with their own values,
// which is the only way definitions become visible to later files.
type sandbox struct {
	env     map[string]any
	widgets scenic.Registry
	nsMap   map[string]any
	pending []*scenic.Feature
	session driver.Session
	log     *zap.Logger
}

// reservedNames is the fixed sandbox surface; user definitions may not
// shadow it.
var reservedNames = map[string]struct{}{
	"widget":  {},
	"feature": {},
	"driver":  {},
	"widgets": {},
	"log":     {},
}

func newSandbox(session driver.Session, log *zap.Logger) *sandbox {
	sb := &sandbox{
		widgets: make(scenic.Registry),
		nsMap:   make(map[string]any),
		session: session,
		log:     log,
	}

	sb.env = map[string]any{
		"widget":  sb.defineWidget,
		"feature": sb.defineFeature,
		"driver":  scenic.NewDriverScope(session),
		"widgets": sb.nsMap,
		"log": func(msg string) bool {
			log.Info(msg)

			return true
		},
	}

	return sb
}

// evalFile compiles and runs one suite file inside the sandbox. The file
// is compiled against the environment as it exists at that moment, which
// is what enforces the load-order dependency: names defined by later
// phases are compile errors here.
func (sb *sandbox) evalFile(path string) (any, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	program, err := expr.Compile(string(data), expr.Env(sb.env))
	if err != nil {
		return nil, err
	}

	return expr.Run(program, sb.env)
}

// merge adds data-file values to the environment for subsequent files.
func (sb *sandbox) merge(values map[string]any) error {
	for name, value := range values {
		if _, ok := reservedNames[name]; ok {
			return fmt.Errorf("%w: %s", ErrReservedName, name)
		}

		sb.env[name] = value
	}

	return nil
}

// defineWidget constructs a widget, registers it in the shared mapping and
// exposes its namespace to subsequently loaded files under its name.
func (sb *sandbox) defineWidget(name string, descriptor map[string]any) (map[string]any, error) {
	if _, ok := reservedNames[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrReservedName, name)
	}

	desc, err := scenic.ParseDescriptor(descriptor)
	if err != nil {
		return nil, err
	}

	w, err := scenic.NewWidget(name, desc, sb.session)
	if err != nil {
		return nil, err
	}

	ns := w.Namespace()

	sb.widgets[name] = w
	sb.nsMap[name] = ns
	sb.env[name] = ns

	return ns, nil
}

// defineFeature classifies the raw scenario at the authoring boundary,
// compiles it against the current widget registry and pushes the feature
// onto the shared list bridge.
func (sb *sandbox) defineFeature(description string, scenario []any) (bool, error) {
	elements := make([]scenic.Element, len(scenario))
	for i, v := range scenario {
		elements[i] = scenic.Classify(v)
	}

	f, err := scenic.NewFeature(description, elements, sb.widgets)
	if err != nil {
		return false, err
	}

	sb.pending = append(sb.pending, f)

	return true, nil
}

// drainFeatures empties the shared feature list. The list is a one-shot
// bridge out of the sandbox: the loader pops features immediately after
// each feature file evaluates.
func (sb *sandbox) drainFeatures() []*scenic.Feature {
	out := sb.pending
	sb.pending = nil

	return out
}
