package fomstrategy

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/fom"
	"github.com/roach88/pathfill/internal/ir"
)

// Parser recovers attributes from a path.
type Parser interface {
	ParsePath(path string) (fom.Parsed, bool)
}

// PathAttributes parses filename with the input table and sets every
// recognised attribute the strategy declares. It returns all attributes
// the path encodes, declared or not.
func (s *Strategy) PathAttributes(p engine.Process, filename string) (ir.IRObject, error) {
	parser, ok := s.in.(Parser)
	if !ok {
		return nil, fmt.Errorf("input templates of %s cannot parse paths", p.Name())
	}
	parsed, ok := parser.ParsePath(filename)
	if !ok {
		return nil, fmt.Errorf("%s is not recognized for %s", filename, p.Name())
	}

	store := s.Attributes(p)
	found := make(ir.IRObject, len(parsed.Attributes))
	for _, name := range slices.Sorted(maps.Keys(parsed.Attributes)) {
		v := ir.IRString(parsed.Attributes[name])
		found[name] = v
		if !store.Has(name) {
			continue
		}
		if err := store.Set(name, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
	}
	return found, nil
}
