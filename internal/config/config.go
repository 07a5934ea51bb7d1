// Package config loads the project file .apiscope.yaml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up from the working directory upward.
const FileName = ".apiscope.yaml"

// Import match modes.
const (
	MatchSuffix   = "suffix"
	MatchRelative = "relative"
)

// Config is the project configuration. Relative paths are resolved against
// the directory holding the config file.
type Config struct {
	ContentRoots []string `yaml:"content_roots"`
	SkipDirs     []string `yaml:"skip_dirs"`
	ImportMatch  string   `yaml:"import_match"`
	MaxDepth     int      `yaml:"max_depth"`
	RulesDir     string   `yaml:"rules_dir"`
	GoDirs       []string `yaml:"go_dirs"`
	DB           string   `yaml:"db"`

	// Dir is the directory the config was loaded from; empty for defaults.
	Dir string `yaml:"-"`
}

// Default returns the configuration used when no file is found: the given
// directory is the only content root and imports match by suffix.
func Default(dir string) *Config {
	return &Config{
		ContentRoots: []string{dir},
		ImportMatch:  MatchSuffix,
		DB:           filepath.Join(dir, ".apiscope.db"),
	}
}

// Parse decodes a config document. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Config
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.ImportMatch == "" {
		c.ImportMatch = MatchSuffix
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses the config file at path, resolving relative paths
// against its directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	c.resolve(abs)
	return c, nil
}

// Find looks for FileName in start and its parents and loads the first one
// found. With no config file anywhere it returns Default(start).
func Find(start string) (*Config, error) {
	start, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("find config: %w", err)
	}
	for dir := start; ; {
		p := filepath.Join(dir, FileName)
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return Default(start), nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.ImportMatch {
	case MatchSuffix, MatchRelative:
	default:
		return fmt.Errorf("import_match: unknown mode %q (want %q or %q)", c.ImportMatch, MatchSuffix, MatchRelative)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth: must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

func (c *Config) resolve(dir string) {
	c.Dir = dir
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	if len(c.ContentRoots) == 0 {
		c.ContentRoots = []string{dir}
	}
	for i, r := range c.ContentRoots {
		c.ContentRoots[i] = abs(r)
	}
	for i, g := range c.GoDirs {
		c.GoDirs[i] = abs(g)
	}
	c.RulesDir = abs(c.RulesDir)
	if c.DB == "" {
		c.DB = ".apiscope.db"
	}
	c.DB = abs(c.DB)
}
