package fom

import (
	"slices"
	"strings"
)

// ReservedPrefix marks attributes owned by the resolver itself.
// They are never declared on a process.
const ReservedPrefix = "fom_"

// PreferredFormat selects only the first format of each rule.
const PreferredFormat = "fom_preferred"

// Direction selects the input or output table of a study.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// AttributeDef describes one attribute a table knows about.
type AttributeDef struct {
	Default string `json:"default,omitempty"`
}

// Rule is one candidate pattern for a parameter.
// Attributes are fixed values the rule implies; a query that carries a
// different value for one of them does not match the rule.
type Rule struct {
	Pattern    string            `json:"pattern"`
	Formats    []string          `json:"formats,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Table is a compiled file organisation model.
type Table struct {
	Name       string                       `json:"name"`
	Attributes map[string]AttributeDef      `json:"attributes"`
	Formats    map[string][]string          `json:"formats"`
	Processes  map[string]map[string][]Rule `json:"processes"`
}

// ProcessNames returns the processes of the table in sorted order.
func (t *Table) ProcessNames() []string {
	names := make([]string, 0, len(t.Processes))
	for n := range t.Processes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Discriminants returns the attributes that select among the rules of a
// parameter: every placeholder and every fixed rule attribute, without
// reserved names, sorted.
func (t *Table) Discriminants(process, parameter string) []string {
	seen := make(map[string]bool)
	for _, r := range t.Processes[process][parameter] {
		p, err := ParsePattern(r.Pattern)
		if err == nil {
			for _, name := range p.Placeholders() {
				seen[name] = true
			}
		}
		for name := range r.Attributes {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		if !strings.HasPrefix(name, ReservedPrefix) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
