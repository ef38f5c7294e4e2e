package fom

import (
	"path"
	"slices"
	"strings"
)

// Query selects paths for one parameter of one process.
// An empty Format yields every format of every matching rule.
type Query struct {
	Process    string
	Parameter  string
	Format     string
	Attributes map[string]string
}

// Candidate is one path produced by FindPaths. Rule and Format give its
// rank: lower rule index first, then format order within the rule.
type Candidate struct {
	Path   string
	Rule   int
	Format string
}

// Resolver answers template queries for one table rooted at one directory.
type Resolver struct {
	Table *Table
	Root  string
}

// NewResolver binds t to a root directory.
func NewResolver(t *Table, root string) *Resolver {
	return &Resolver{Table: t, Root: root}
}

// HasProcess reports whether the table defines patterns for process.
func (r *Resolver) HasProcess(process string) bool {
	if r == nil || r.Table == nil {
		return false
	}
	_, ok := r.Table.Processes[process]
	return ok
}

// HasParameter reports whether process defines parameter.
func (r *Resolver) HasParameter(process, parameter string) bool {
	if !r.HasProcess(process) {
		return false
	}
	_, ok := r.Table.Processes[process][parameter]
	return ok
}

// Parameters returns the parameters defined for process, sorted.
func (r *Resolver) Parameters(process string) []string {
	if !r.HasProcess(process) {
		return nil
	}
	params := make([]string, 0, len(r.Table.Processes[process]))
	for p := range r.Table.Processes[process] {
		params = append(params, p)
	}
	slices.Sort(params)
	return params
}

// DiscriminantAttributes returns the attributes that select among the
// rules of process.parameter.
func (r *Resolver) DiscriminantAttributes(process, parameter string) []string {
	if !r.HasParameter(process, parameter) {
		return nil
	}
	return r.Table.Discriminants(process, parameter)
}

// AttributeDefault returns the default declared for an attribute.
func (r *Resolver) AttributeDefault(name string) (string, bool) {
	if r == nil || r.Table == nil {
		return "", false
	}
	def, ok := r.Table.Attributes[name]
	return def.Default, ok
}

// FindPaths returns candidate paths in rank order. A rule matches when
// every placeholder has a non-empty value and no fixed rule attribute
// contradicts the query.
func (r *Resolver) FindPaths(q Query) []Candidate {
	if !r.HasParameter(q.Process, q.Parameter) {
		return nil
	}
	var out []Candidate
	for i, rule := range r.Table.Processes[q.Process][q.Parameter] {
		if !fixedAttributesAgree(rule, q.Attributes) {
			continue
		}
		p, err := ParsePattern(rule.Pattern)
		if err != nil {
			continue
		}
		expanded, ok := p.Expand(q.Attributes)
		if !ok {
			continue
		}
		base := path.Join(r.Root, expanded)
		for _, format := range r.selectFormats(rule, q.Format) {
			exts := r.Table.Formats[format]
			if q.Format == PreferredFormat && len(exts) > 1 {
				exts = exts[:1]
			}
			for _, ext := range exts {
				out = append(out, Candidate{Path: base + ext, Rule: i, Format: format})
			}
		}
		if len(rule.Formats) == 0 {
			out = append(out, Candidate{Path: base, Rule: i})
		}
	}
	return out
}

func (r *Resolver) selectFormats(rule Rule, want string) []string {
	switch want {
	case "":
		return rule.Formats
	case PreferredFormat:
		if len(rule.Formats) == 0 {
			return nil
		}
		return rule.Formats[:1]
	default:
		if slices.Contains(rule.Formats, want) {
			return []string{want}
		}
		return nil
	}
}

func fixedAttributesAgree(rule Rule, attrs map[string]string) bool {
	for k, v := range rule.Attributes {
		if got, ok := attrs[k]; ok && got != "" && got != v {
			return false
		}
	}
	return true
}

// Parsed is the result of reading attributes back out of a path.
type Parsed struct {
	Process    string
	Parameter  string
	Format     string
	Attributes map[string]string
}

// ParsePath matches p against every rule of the table. When the full
// path does not match, leading components are stripped one by one and the
// remainder is tried again. Processes and parameters are tried in sorted
// order; the first match wins.
func (r *Resolver) ParsePath(p string) (Parsed, bool) {
	if r == nil || r.Table == nil {
		return Parsed{}, false
	}
	rel := path.Clean(p)
	if r.Root != "" {
		root := path.Clean(r.Root)
		if strings.HasPrefix(rel, root+"/") {
			rel = strings.TrimPrefix(rel, root+"/")
		}
	}
	rel = strings.TrimPrefix(rel, "/")
	for rel != "" {
		if parsed, ok := r.parseRelative(rel); ok {
			return parsed, true
		}
		idx := strings.IndexByte(rel, '/')
		if idx < 0 {
			break
		}
		rel = rel[idx+1:]
	}
	return Parsed{}, false
}

func (r *Resolver) parseRelative(rel string) (Parsed, bool) {
	for _, process := range r.Table.ProcessNames() {
		for _, param := range r.Parameters(process) {
			for _, rule := range r.Table.Processes[process][param] {
				pat, err := ParsePattern(rule.Pattern)
				if err != nil {
					continue
				}
				for _, format := range rule.Formats {
					for _, ext := range r.Table.Formats[format] {
						if !strings.HasSuffix(rel, ext) {
							continue
						}
						if values, ok := pat.match(strings.TrimSuffix(rel, ext)); ok {
							if parsed, ok := newParsed(process, param, format, rule, values); ok {
								return parsed, true
							}
						}
					}
				}
				if len(rule.Formats) == 0 {
					if values, ok := pat.match(rel); ok {
						if parsed, ok := newParsed(process, param, "", rule, values); ok {
							return parsed, true
						}
					}
				}
			}
		}
	}
	return Parsed{}, false
}

func newParsed(process, param, format string, rule Rule, values map[string]string) (Parsed, bool) {
	for k, v := range rule.Attributes {
		if got, ok := values[k]; ok && got != v {
			return Parsed{}, false
		}
		values[k] = v
	}
	return Parsed{Process: process, Parameter: param, Format: format, Attributes: values}, true
}
