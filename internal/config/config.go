// Package config loads the project-level reqtrace configuration: where the
// requirements tree, staged results, and dashboard live, plus server
// settings. Values from reqtrace.yml override the defaults; command-line
// flags override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfigFile is the name of the project-level config file, searched
// for in the working directory and its parents.
const ProjectConfigFile = "reqtrace.yml"

// Config is the complete reqtrace configuration.
type Config struct {
	// Requirements is the system-level requirements document.
	Requirements string `yaml:"requirements"`
	// ComponentsDir holds one subdirectory per component.
	ComponentsDir string `yaml:"components_dir"`
	// ResultsDir holds staged test-result documents.
	ResultsDir string `yaml:"results_dir"`
	// ReportsDir receives generated compliance matrices.
	ReportsDir string `yaml:"reports_dir"`
	// DashboardDir is served over HTTP and receives a matrix copy.
	DashboardDir string `yaml:"dashboard_dir"`
	// Context is the @context IRI written into generated matrices.
	Context string `yaml:"context"`
	// MatrixName and MatrixDescription fill the matrix header.
	MatrixName        string `yaml:"matrix_name"`
	MatrixDescription string `yaml:"matrix_description"`
	// Components maps directory names to component names for layouts that
	// do not follow the directory-name convention.
	Components map[string]string `yaml:"components"`
	// Server configures the dashboard server.
	Server ServerConfig `yaml:"server"`
}

// ServerConfig configures reqtrace serve.
type ServerConfig struct {
	Port int `yaml:"port"`
	// Refresh is the re-aggregation interval as a duration string, e.g. "60s".
	Refresh string `yaml:"refresh"`
	// LogFile receives structured server logs in addition to stderr.
	LogFile string `yaml:"log_file"`
}

// RefreshInterval returns the parsed refresh interval, defaulting to one
// minute on empty or malformed values.
func (s ServerConfig) RefreshInterval() time.Duration {
	if s.Refresh == "" {
		return time.Minute
	}
	d, err := time.ParseDuration(s.Refresh)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// Default returns the configuration matching the conventional repository
// layout.
func Default() *Config {
	return &Config{
		Requirements:      "requirements/requirements.jsonld",
		ComponentsDir:     "components",
		ResultsDir:        "compliance/results",
		ReportsDir:        "compliance/reports",
		DashboardDir:      "compliance/dashboard",
		Context:           "../requirements/context/requirements-context.jsonld",
		MatrixName:        "Compliance Matrix",
		MatrixDescription: "Generated compliance matrix aggregating test results from all components",
		Server: ServerConfig{
			Port:    8000,
			Refresh: "60s",
			LogFile: "dashboard.log",
		},
	}
}

// LoadFromFile reads a config file. Missing optional fields stay zero; the
// caller merges onto defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &c, nil
}

// Merge overlays non-zero fields of o onto c.
func (c *Config) Merge(o *Config) {
	if o.Requirements != "" {
		c.Requirements = o.Requirements
	}
	if o.ComponentsDir != "" {
		c.ComponentsDir = o.ComponentsDir
	}
	if o.ResultsDir != "" {
		c.ResultsDir = o.ResultsDir
	}
	if o.ReportsDir != "" {
		c.ReportsDir = o.ReportsDir
	}
	if o.DashboardDir != "" {
		c.DashboardDir = o.DashboardDir
	}
	if o.Context != "" {
		c.Context = o.Context
	}
	if o.MatrixName != "" {
		c.MatrixName = o.MatrixName
	}
	if o.MatrixDescription != "" {
		c.MatrixDescription = o.MatrixDescription
	}
	if len(o.Components) > 0 {
		if c.Components == nil {
			c.Components = make(map[string]string)
		}
		for k, v := range o.Components {
			c.Components[k] = v
		}
	}
	if o.Server.Port != 0 {
		c.Server.Port = o.Server.Port
	}
	if o.Server.Refresh != "" {
		c.Server.Refresh = o.Server.Refresh
	}
	if o.Server.LogFile != "" {
		c.Server.LogFile = o.Server.LogFile
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Requirements == "" {
		return fmt.Errorf("requirements is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// Load finds reqtrace.yml in the working directory or its parents and merges
// it onto the defaults. No config file means defaults.
func Load() (*Config, error) {
	c := Default()
	path := findProjectConfig()
	if path != "" {
		overlay, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		c.Merge(overlay)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ComponentName maps a directory name to its component name, honoring
// configured overrides.
func (c *Config) ComponentName(dir string) string {
	if name, ok := c.Components[dir]; ok {
		return name
	}
	return dir
}

func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
