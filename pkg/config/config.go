// Package config loads the jspack.yml build configuration. Patterns are
// compiled at load time so a malformed rule fails the build before any
// compilation starts.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Regexp wraps regexp.Regexp so rules compile during YAML decoding.
type Regexp struct {
	*regexp.Regexp
}

func (r *Regexp) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	re, err := regexp.Compile(s)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", s, err)
	}
	r.Regexp = re
	return nil
}

// DedupeTarget names a destination chunk and the rule selecting which module
// paths are relocated into it.
type DedupeTarget struct {
	Name string `yaml:"name"`
	Test Regexp `yaml:"test"`
}

// Dedupe configures the chunk dedupe pass: modules in any of the From chunks
// whose root relative path matches a target's rule move into that target's
// chunk.
type Dedupe struct {
	From []string       `yaml:"from"`
	To   []DedupeTarget `yaml:"to"`
}

type Config struct {
	Root        string            `yaml:"root"`
	Dst         string            `yaml:"dst"`
	Srcs        []string          `yaml:"srcs"`
	Entrypoints map[string]string `yaml:"entrypoints"`
	Chunks      []string          `yaml:"chunks"`
	Externals   map[string]string `yaml:"externals"`
	Ignore      []string          `yaml:"ignore"`
	Concurrency int               `yaml:"concurrency"`
	Dedupe      *Dedupe           `yaml:"dedupe"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) defaults() {
	if c.Root == "" {
		c.Root = "."
	}
	if c.Dst == "" {
		c.Dst = "dst"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
}

func (c *Config) validate() error {
	if len(c.Entrypoints) == 0 {
		return fmt.Errorf("at least one entrypoint is required")
	}
	if c.Dedupe == nil {
		return nil
	}
	for i, t := range c.Dedupe.To {
		if t.Name == "" {
			return fmt.Errorf("dedupe.to[%d]: name is required", i)
		}
		if t.Test.Regexp == nil {
			return fmt.Errorf("dedupe.to[%d]: test is required", i)
		}
	}
	return nil
}
