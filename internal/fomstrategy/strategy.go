// Package fomstrategy completes process parameters from file organisation
// model tables.
//
// A Strategy declares every discriminant attribute of its process, then
// derives each parameter by asking the input or output table for paths
// matching the current attribute values. Only the first candidate is used.
package fomstrategy

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/fom"
	"github.com/roach88/pathfill/internal/ir"
)

// Templates is the read side of a template table.
type Templates interface {
	HasProcess(process string) bool
	HasParameter(process, parameter string) bool
	Parameters(process string) []string
	DiscriminantAttributes(process, parameter string) []string
	AttributeDefault(name string) (string, bool)
	FindPaths(q fom.Query) []fom.Candidate
}

// Strategy is a template-backed completion strategy.
type Strategy struct {
	*engine.Base
	in  Templates
	out Templates
}

var _ engine.Strategy = (*Strategy)(nil)

// New creates a strategy for p and declares its attributes.
//
// Attributes come from the discriminants of the process's parameters in
// the input table, with input defaults, then from the output table. A
// shared attribute whose output default disagrees keeps the input value.
func New(p engine.Process, name string, in, out Templates) (*Strategy, error) {
	s := &Strategy{Base: engine.NewBase(name), in: in, out: out}
	process, err := s.resolve(p)
	if err != nil {
		return nil, err
	}

	store := s.Attributes(p)
	fromInput := map[string]bool{}
	for _, param := range in.Parameters(process) {
		for _, attr := range in.DiscriminantAttributes(process, param) {
			if fromInput[attr] || strings.HasPrefix(attr, fom.ReservedPrefix) {
				continue
			}
			fromInput[attr] = true
			def, _ := in.AttributeDefault(attr)
			if err := store.Declare(attr, ir.IRString(def)); err != nil {
				return nil, fmt.Errorf("declare %s: %w", attr, err)
			}
		}
	}

	for _, param := range out.Parameters(process) {
		for _, attr := range out.DiscriminantAttributes(process, param) {
			if strings.HasPrefix(attr, fom.ReservedPrefix) {
				continue
			}
			def, _ := out.AttributeDefault(attr)
			if !store.Has(attr) {
				if err := store.Declare(attr, ir.IRString(def)); err != nil {
					return nil, fmt.Errorf("declare %s: %w", attr, err)
				}
				continue
			}
			if !fromInput[attr] {
				continue
			}
			current, _ := store.Get(attr)
			if ir.Text(current) != def {
				slog.Warn("input and output tables disagree on attribute default, keeping input value",
					"process", process,
					"attribute", attr,
					"input_default", ir.Text(current),
					"output_default", def,
				)
			}
		}
	}

	slog.Debug("fom strategy created", "process", process, "name", name, "attributes", store.Keys())
	return s, nil
}

// candidateNames lists the names p is looked up under, most specific first.
func (s *Strategy) candidateNames(p engine.Process) []string {
	var names []string
	for _, n := range []string{s.Name(), p.ID(), p.Name()} {
		if n != "" && !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	return names
}

// resolve returns the first candidate name either table knows.
func (s *Strategy) resolve(p engine.Process) (string, error) {
	names := s.candidateNames(p)
	for _, n := range names {
		if s.in.HasProcess(n) || s.out.HasProcess(n) {
			return n, nil
		}
	}
	return "", engine.NewLookupError(p.Name(), names)
}

// Derive implements engine.Strategy.
func (s *Strategy) Derive(p engine.Process, snapshot ir.IRObject) (map[string]ir.IRValue, error) {
	process, err := s.resolve(p)
	if err != nil {
		return nil, err
	}

	values := make(map[string]ir.IRValue)
	for _, param := range p.ParameterNames() {
		t := s.in
		if p.IsOutput(param) {
			t = s.out
		}
		if !t.HasParameter(process, param) {
			continue
		}

		// Attributes that are not discriminant for this parameter can
		// keep the right rule from matching.
		q := fom.Query{
			Process:    process,
			Parameter:  param,
			Format:     fom.PreferredFormat,
			Attributes: map[string]string{},
		}
		for _, attr := range t.DiscriminantAttributes(process, param) {
			if v, ok := snapshot[attr]; ok {
				q.Attributes[attr] = ir.Text(v)
			}
		}

		candidates := t.FindPaths(q)
		if len(candidates) == 0 {
			slog.Debug("no path matches", "process", process, "parameter", param)
			continue
		}
		values[param] = ir.IRString(candidates[0].Path)
	}
	return values, nil
}
