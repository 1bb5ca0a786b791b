// Package suite loads user-authored suite directories into widgets and
// features through an isolated, strictly ordered evaluation sandbox.
package suite

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rlch/scenic"
	"github.com/rlch/scenic/driver"
)

// Loader loads suite directories against a driver session.
type Loader struct {
	session driver.Session
	log     *zap.Logger
	sink    func(*scenic.Feature)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		l.log = log
	}
}

// WithFeatureSink sets a callback that receives each feature immediately
// after its file evaluates, in load order.
func WithFeatureSink(sink func(*scenic.Feature)) Option {
	return func(l *Loader) {
		l.sink = sink
	}
}

// NewLoader creates a Loader bound to a driver session.
func NewLoader(session driver.Session, opts ...Option) *Loader {
	l := &Loader{session: session, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Suite is a fully loaded suite directory.
type Suite struct {
	Dir      string
	Config   *scenic.Config
	Widgets  scenic.Registry
	Features []*scenic.Feature
}

// Load reads the mandatory configuration artifact and loads the suite
// directory. A missing configuration is a fatal load error.
func (l *Loader) Load(dir string) (*Suite, error) {
	cfg, err := scenic.LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	return l.LoadWithConfig(dir, cfg)
}

// LoadWithConfig loads a suite directory with an already-read config.
//
// Loading is three-phase and strictly ordered: every data file first, so
// later files can reference the values they define; then every widget
// file; then every feature file. Within a phase, files load in lexical
// name order. Any evaluation error aborts the load with the offending
// file path attached.
func (l *Loader) LoadWithConfig(dir string, cfg *scenic.Config) (*Suite, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dataFiles, widgetFiles, featureFiles []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		path := filepath.Join(dir, name)

		switch {
		case strings.HasSuffix(name, scenic.MarkerData):
			dataFiles = append(dataFiles, path)
		case strings.HasSuffix(name, scenic.MarkerWidget):
			widgetFiles = append(widgetFiles, path)
		case strings.HasSuffix(name, scenic.MarkerFeature):
			featureFiles = append(featureFiles, path)
		}
	}

	sb := newSandbox(l.session, l.log)

	suite := &Suite{
		Dir:     dir,
		Config:  cfg,
		Widgets: sb.widgets,
	}

	for _, path := range dataFiles {
		if err := l.loadData(sb, path); err != nil {
			return nil, err
		}
	}

	for _, path := range widgetFiles {
		if err := l.loadWidget(sb, path); err != nil {
			return nil, err
		}
	}

	for _, path := range featureFiles {
		features, err := l.loadFeatures(sb, path)
		if err != nil {
			return nil, err
		}

		suite.Features = append(suite.Features, features...)
	}

	l.log.Info("suite loaded",
		zap.String("dir", dir),
		zap.Int("widgets", len(suite.Widgets)),
		zap.Int("features", len(suite.Features)))

	return suite, nil
}

func (l *Loader) loadData(sb *sandbox, path string) error {
	v, err := sb.evalFile(path)
	if err != nil {
		return &LoadError{Path: path, Phase: PhaseData, Cause: err}
	}

	values, ok := v.(map[string]any)
	if !ok {
		return &LoadError{Path: path, Phase: PhaseData, Cause: ErrBadDataFile}
	}

	if err := sb.merge(values); err != nil {
		return &LoadError{Path: path, Phase: PhaseData, Cause: err}
	}

	l.log.Debug("loaded data file", zap.String("path", path), zap.Int("values", len(values)))

	return nil
}

func (l *Loader) loadWidget(sb *sandbox, path string) error {
	v, err := sb.evalFile(path)
	if err != nil {
		return &LoadError{Path: path, Phase: PhaseWidget, Cause: err}
	}

	descriptor, ok := v.(map[string]any)
	if !ok {
		return &LoadError{Path: path, Phase: PhaseWidget, Cause: scenic.ErrBadDescriptor}
	}

	name := scenic.WidgetNameFromFile(path)

	_, err = sb.defineWidget(name, descriptor)
	if err != nil {
		return &LoadError{Path: path, Phase: PhaseWidget, Cause: err}
	}

	l.log.Debug("loaded widget", zap.String("path", path), zap.String("widget", name))

	return nil
}

func (l *Loader) loadFeatures(sb *sandbox, path string) ([]*scenic.Feature, error) {
	_, err := sb.evalFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Phase: PhaseFeature, Cause: err}
	}

	features := sb.drainFeatures()
	if len(features) == 0 {
		return nil, &LoadError{Path: path, Phase: PhaseFeature, Cause: ErrNoFeature}
	}

	for _, f := range features {
		l.log.Debug("loaded feature",
			zap.String("path", path),
			zap.String("feature", f.Description()),
			zap.Int("steps", len(f.Steps())))

		if l.sink != nil {
			l.sink(f)
		}
	}

	return features, nil
}
