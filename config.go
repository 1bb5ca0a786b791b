package scenic

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the scenic.yaml suite configuration.
type Config struct {
	// BaseURL is the location the runner navigates to before the first
	// feature. Mandatory.
	BaseURL string `yaml:"base_url"`

	// Driver selects the session backend. Defaults to chrome.
	Driver string `yaml:"driver,omitempty"`

	// Chrome holds chrome backend settings.
	Chrome *ChromeConfig `yaml:"chrome,omitempty"`

	// Notify enables the desktop notification at suite completion.
	Notify bool `yaml:"notify,omitempty"`
}

// ChromeConfig holds settings for the chrome driver backend.
type ChromeConfig struct {
	// ExecPath overrides the browser binary location.
	ExecPath string `yaml:"exec_path,omitempty"`

	// Headless runs the browser without a display. Defaults to true.
	Headless *bool `yaml:"headless,omitempty"`

	UserAgent    string `yaml:"user_agent,omitempty"`
	WindowWidth  int    `yaml:"window_width,omitempty"`
	WindowHeight int    `yaml:"window_height,omitempty"`

	// Flags holds additional browser command-line switches.
	Flags map[string]any `yaml:"flags,omitempty"`
}

// IsHeadless reports whether the browser should run headless.
func (c *ChromeConfig) IsHeadless() bool {
	return c == nil || c.Headless == nil || *c.Headless
}

// DriverName returns the configured backend name.
func (c *Config) DriverName() string {
	if c.Driver != "" {
		return c.Driver
	}

	return DriverChrome
}

// DriverConfig returns the backend-specific configuration block.
func (c *Config) DriverConfig() any {
	switch c.DriverName() {
	case DriverChrome:
		if c.Chrome == nil {
			return &ChromeConfig{}
		}

		return c.Chrome
	default:
		return nil
	}
}

// Validate checks the config for mandatory fields.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}

	return nil
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{"scenic.yaml", "scenic.yml", ".scenic.yaml", ".scenic.yml"}

// LoadConfig loads the mandatory configuration artifact from a suite
// directory. Its absence is a fatal load error.
func LoadConfig(dir string) (*Config, error) {
	for _, name := range DefaultConfigNames {
		path := filepath.Join(dir, name)

		_, err := os.Stat(path)
		if err == nil {
			return LoadConfigFile(path)
		}
	}

	return nil, fmt.Errorf("%w in %s", ErrConfigNotFound, dir)
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}

	return &cfg, nil
}
