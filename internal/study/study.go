// Package study holds the execution context a process is bound to: which
// completion modules are enabled, which template tables apply to inputs and
// outputs, and the directories those tables are rooted at.
package study

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pathfill/internal/fom"
	"github.com/roach88/pathfill/internal/schema"
)

//go:embed schema.json
var schemaJSON []byte

var studySchema = schema.MustCompile("study", schemaJSON)

// ModuleFOM enables template-based completion.
const ModuleFOM = "fom"

// Directories are the roots the input and output tables resolve against.
type Directories struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// Config is one study configuration.
//
// Two *Config values are the same context only if they are the same
// pointer; binding a process to a second config is a mismatch even when
// the contents are equal.
type Config struct {
	Name        string      `yaml:"name"`
	Modules     []string    `yaml:"modules"`
	InputFOM    string      `yaml:"input_fom"`
	OutputFOM   string      `yaml:"output_fom"`
	FOMPath     string      `yaml:"fom_path"`
	Directories Directories `yaml:"directories"`

	// Path is the file the config was loaded from, empty when built in code.
	Path string `yaml:"-"`

	tables map[fom.Direction]*fom.Resolver
}

// Load reads, validates and decodes a study file. A relative fom_path is
// resolved against the directory of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read study %s: %w", path, err)
	}
	cfg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	if cfg.FOMPath != "" && !filepath.IsAbs(cfg.FOMPath) {
		cfg.FOMPath = filepath.Join(filepath.Dir(path), cfg.FOMPath)
	}
	return cfg, nil
}

// Decode parses a study document.
func Decode(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse study: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := studySchema.Validate(raw); err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode study: %w", err)
	}
	if cfg.OutputFOM == "" {
		cfg.OutputFOM = cfg.InputFOM
	}
	return &cfg, nil
}

// HasModule reports whether a completion module is enabled.
func (c *Config) HasModule(name string) bool {
	return c != nil && slices.Contains(c.Modules, name)
}

// SameTables reports whether inputs and outputs use one table.
func (c *Config) SameTables() bool {
	return c.InputFOM == c.OutputFOM
}

// TableNames returns the distinct table names the study refers to.
func (c *Config) TableNames() []string {
	var names []string
	for _, n := range []string{c.InputFOM, c.OutputFOM} {
		if n != "" && !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	return names
}

// AttachTables selects the input and output tables from a set of compiled
// tables and roots them at the study directories.
func (c *Config) AttachTables(tables map[string]*fom.Table) error {
	in, ok := tables[c.InputFOM]
	if !ok {
		return fmt.Errorf("study %q: input table %q not found", c.Name, c.InputFOM)
	}
	out, ok := tables[c.OutputFOM]
	if !ok {
		return fmt.Errorf("study %q: output table %q not found", c.Name, c.OutputFOM)
	}
	c.tables = map[fom.Direction]*fom.Resolver{
		fom.Input:  fom.NewResolver(in, c.Directories.Input),
		fom.Output: fom.NewResolver(out, c.Directories.Output),
	}
	return nil
}

// Templates returns the resolver for one direction, or nil before
// AttachTables.
func (c *Config) Templates(d fom.Direction) *fom.Resolver {
	if c == nil {
		return nil
	}
	return c.tables[d]
}
