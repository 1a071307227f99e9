// Package config provides configuration management for the gridctl CLI.
//
// Configuration is resolved in layers: built-in defaults, then an optional
// YAML configuration file, then GRIDCTL_* environment variables, and finally
// the global CLI flags applied by the dispatcher. Later layers override
// earlier ones, so a flag always wins over the environment and the
// environment always wins over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/gridhive-dev/gridctl/internal/validate"
)

const (
	// DefaultInstance is the production task-service endpoint.
	DefaultInstance = "grid.gridhive.dev:8443"

	// DefaultTimeout is the request timeout in seconds for task-service calls.
	DefaultTimeout = 30

	// FileName is the per-directory configuration file name.
	FileName = "gridctl.yaml"
)

// Config holds the client configuration shared by all sub-commands.
type Config struct {
	Instance string `yaml:"instance" env:"GRIDCTL_INSTANCE"` // Task service endpoint (host:port)
	Proxy    string `yaml:"proxy" env:"GRIDCTL_PROXY"`       // Pre-existing proxy credential path, if any
	Timeout  int    `yaml:"timeout" env:"GRIDCTL_TIMEOUT"`   // Request timeout in seconds
}

// Default returns the built-in configuration baseline.
func Default() *Config {
	return &Config{
		Instance: DefaultInstance,
		Timeout:  DefaultTimeout,
	}
}

// Load resolves the configuration from defaults, the configuration file, and
// the environment. When path is empty the working directory and the user
// config directory are searched for gridctl.yaml; a missing file is not an
// error, an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing configuration file among the
// working directory and the user config directory, or "".
func findConfigFile() string {
	candidates := []string{FileName}
	if userDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(userDir, "gridctl", "config.yaml"))
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// Validate checks the resolved configuration before any command runs.
func (c *Config) Validate() error {
	if _, err := validate.ParseServiceAddress(c.Instance); err != nil {
		return fmt.Errorf("invalid instance address %q: %w", c.Instance, err)
	}

	if err := validate.ValidateField(c.Timeout, "required,min=1,max=3600"); err != nil {
		return fmt.Errorf("timeout must be between 1 and 3600 seconds, got %d", c.Timeout)
	}

	return nil
}
