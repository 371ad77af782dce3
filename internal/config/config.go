// Package config handles loading CLI run configuration from files.
//
// Configuration can be specified in a JSON file named mapalg.json or
// .mapalgrc. The config file is searched for in the current directory and
// parent directories; CLI flags override file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ImageSpec describes a synthetic image to create for a script variable.
type ImageSpec struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Fill   float64 `json:"fill,omitempty"`
}

// Config represents the configuration file structure. All fields are
// optional.
type Config struct {
	// Images maps script variable names to image specs.
	Images map[string]ImageSpec `json:"images,omitempty"`

	// Run executes the script after compiling (default: compile only).
	Run *bool `json:"run,omitempty"`

	// Verbose enables debug logging.
	Verbose *bool `json:"verbose,omitempty"`
}

// FileNames are the names searched for config files, in order of
// preference.
var FileNames = []string{
	"mapalg.json",
	".mapalgrc",
}

// Load searches for a config file starting from the given directory and
// walking up to parent directories. Returns nil if none is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, spec := range cfg.Images {
		if spec.Width <= 0 || spec.Height <= 0 {
			return nil, fmt.Errorf("image %q: width and height must be positive", name)
		}
	}
	return &cfg, nil
}

// Merge applies non-nil values from other on top of c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Images != nil {
		if c.Images == nil {
			c.Images = make(map[string]ImageSpec)
		}
		for name, spec := range other.Images {
			c.Images[name] = spec
		}
	}
	if other.Run != nil {
		c.Run = other.Run
	}
	if other.Verbose != nil {
		c.Verbose = other.Verbose
	}
}
