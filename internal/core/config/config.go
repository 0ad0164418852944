// Package config handles configuration loading and validation for acre.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	// GitPath and GhPath locate the external binaries the diff sources
	// shell out to.
	GitPath string `yaml:"git_path"`
	GhPath  string `yaml:"gh_path"`

	// Author overrides the reviewer identity detected from git config.
	Author string `yaml:"author"`

	// DebounceMS is the session watcher debounce window in milliseconds.
	DebounceMS int `yaml:"debounce_ms"`

	Export ExportConfig `yaml:"export"`
}

// ExportConfig holds defaults for the export command.
type ExportConfig struct {
	Format string `yaml:"format"` // markdown or json
	Filter string `yaml:"filter"` // doublestar glob on file paths
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GitPath:    "git",
		GhPath:     "gh",
		DebounceMS: 200,
		Export: ExportConfig{
			Format: "markdown",
		},
	}
}

// Debounce returns the watcher debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Load reads configuration from the given path. A missing file is not
// an error; defaults apply.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.GitPath == "" {
		c.GitPath = defaults.GitPath
	}
	if c.GhPath == "" {
		c.GhPath = defaults.GhPath
	}
	if c.DebounceMS == 0 {
		c.DebounceMS = defaults.DebounceMS
	}
	if c.Export.Format == "" {
		c.Export.Format = defaults.Export.Format
	}
}
