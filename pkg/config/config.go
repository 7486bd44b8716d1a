// Package config loads llvm2codecov settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file picked up from the working directory.
const DefaultFile = ".llvm2codecov.yaml"

// DefaultMaxFileSize caps source files read for shrinkwrapping.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Config holds conversion settings.
type Config struct {
	// Workers is the number of files converted concurrently (0 = NumCPU).
	Workers int `yaml:"workers"`

	// Shrinkwrap trims region boundaries to code. Nil means enabled.
	Shrinkwrap *bool `yaml:"shrinkwrap"`

	// Strict rejects files that leave regions open.
	Strict bool `yaml:"strict"`

	// Exclude lists gitignore-style patterns of files to drop.
	Exclude []string `yaml:"exclude"`

	Source Source `yaml:"source"`

	// Datastore is an SQLite path recording each run. Empty disables it.
	Datastore string `yaml:"datastore"`
}

// Source configures where source text is read from.
type Source struct {
	Root        string `yaml:"root"`
	Revision    string `yaml:"revision"`
	MaxFileSize int64  `yaml:"max_file_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: Source{MaxFileSize: DefaultMaxFileSize},
	}
}

// ShrinkwrapEnabled reports whether shrinkwrapping is on.
func (c *Config) ShrinkwrapEnabled() bool {
	return c.Shrinkwrap == nil || *c.Shrinkwrap
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.Source.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("source.max_file_size must be >= 0, got %d", c.Source.MaxFileSize))
	}
	if c.Datastore == ":memory:" {
		errs = append(errs, errors.New("datastore cannot be :memory:"))
	}
	return errors.Join(errs...)
}

// Parse decodes YAML over the defaults. Unknown keys are errors.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads path when given, otherwise DefaultFile when it exists,
// otherwise the built-in defaults.
func LoadDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	return Default(), nil
}
