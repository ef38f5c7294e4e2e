package process

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/schema"
)

//go:embed schema.json
var schemaJSON []byte

var processSchema = schema.MustCompile("process", schemaJSON)

// Definition is the YAML form of a process or pipeline.
type Definition struct {
	Name       string     `yaml:"name"`
	ID         string     `yaml:"id"`
	Parameters []ParamDef `yaml:"parameters"`
	Nodes      []NodeDef  `yaml:"nodes"`
	Links      []string   `yaml:"links"`
}

// ParamDef declares one parameter, optionally with an initial value.
type ParamDef struct {
	Name   string `yaml:"name"`
	Output bool   `yaml:"output"`
	Value  any    `yaml:"value"`
}

// NodeDef is one pipeline node. A node without a process is skipped by
// completion.
type NodeDef struct {
	Name    string      `yaml:"name"`
	Process *Definition `yaml:"process"`
}

// IsPipeline reports whether the definition builds a Pipeline.
func (d *Definition) IsPipeline() bool {
	return len(d.Nodes) > 0 || len(d.Links) > 0
}

// Decode parses and validates a definition document.
func Decode(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse process definition: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := processSchema.Validate(raw); err != nil {
		return nil, err
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode process definition: %w", err)
	}
	return &def, nil
}

// LoadFile reads a definition file and builds it.
func LoadFile(path string) (engine.Process, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read process definition %s: %w", path, err)
	}
	def, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p, err := def.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Build creates the process tree. Initial values are applied after links
// so they propagate.
func (d *Definition) Build() (engine.Process, error) {
	params := make([]Param, len(d.Parameters))
	for i, pd := range d.Parameters {
		params[i] = Param{Name: pd.Name, Output: pd.Output}
	}

	if !d.IsPipeline() {
		p, err := New(d.ID, d.Name, params...)
		if err != nil {
			return nil, err
		}
		if err := d.applyValues(p); err != nil {
			return nil, err
		}
		return p, nil
	}

	pl, err := NewPipeline(d.ID, d.Name, params...)
	if err != nil {
		return nil, err
	}
	for _, nd := range d.Nodes {
		var child engine.Process
		if nd.Process != nil {
			child, err = nd.Process.Build()
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", nd.Name, err)
			}
		}
		if err := pl.AddNode(nd.Name, child); err != nil {
			return nil, err
		}
	}
	for _, l := range d.Links {
		from, to, ok := strings.Cut(l, "->")
		if !ok {
			return nil, fmt.Errorf("pipeline %s: link %q must be written as \"from -> to\"", d.Name, l)
		}
		if err := pl.Link(from, to); err != nil {
			return nil, err
		}
	}
	if err := d.applyValues(pl); err != nil {
		return nil, err
	}
	return pl, nil
}

func (d *Definition) applyValues(p engine.Process) error {
	for _, pd := range d.Parameters {
		if pd.Value == nil {
			continue
		}
		v, err := ir.FromGo(pd.Value)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", d.Name, pd.Name, err)
		}
		if err := p.Set(pd.Name, v); err != nil {
			return err
		}
	}
	return nil
}

type nodeLookup interface {
	Node(name string) (engine.Process, bool)
}

// Find walks a dotted node path from root. An empty path returns root.
func Find(root engine.Process, path string) (engine.Process, error) {
	if path == "" {
		return root, nil
	}
	current := root
	for _, name := range strings.Split(path, ".") {
		nl, ok := current.(nodeLookup)
		if !ok {
			return nil, fmt.Errorf("find %s: %s is not a pipeline", path, current.Name())
		}
		next, ok := nl.Node(name)
		if !ok {
			return nil, fmt.Errorf("find %s: %s has no node %q", path, current.Name(), name)
		}
		if next == nil {
			return nil, fmt.Errorf("find %s: node %q has no process", path, name)
		}
		current = next
	}
	return current, nil
}
