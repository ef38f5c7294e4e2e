package engine

import (
	"github.com/roach88/pathfill/internal/attrs"
	"github.com/roach88/pathfill/internal/ir"
)

// Strategy decides which attributes matter for a process and derives its
// parameters from them.
//
// The interface is sealed: concrete strategies embed *Base, which carries
// the attribute store and the completion flag used by the engine.
type Strategy interface {
	// Name is the qualifying name the strategy was created with, or "".
	Name() string

	// Attributes returns the store bound to p.
	Attributes(p Process) *attrs.Store

	// Derive computes parameter values from an attribute snapshot.
	// A nil value leaves the parameter untouched.
	Derive(p Process, snapshot ir.IRObject) (map[string]ir.IRValue, error)

	base() *Base
}

// Base is the no-op strategy: it exposes an attribute store and derives
// nothing. It is also the embeddable core of every other strategy.
type Base struct {
	name       string
	attrs      *attrs.Store
	completing bool
}

var _ Strategy = (*Base)(nil)

// NewBase returns a Base with an empty attribute store.
func NewBase(name string) *Base {
	return &Base{name: name, attrs: attrs.New()}
}

// Name implements Strategy.
func (b *Base) Name() string { return b.name }

// Attributes implements Strategy. The store is the same for every process.
func (b *Base) Attributes(Process) *attrs.Store { return b.attrs }

// Derive implements Strategy and derives nothing.
func (b *Base) Derive(Process, ir.IRObject) (map[string]ir.IRValue, error) {
	return nil, nil
}

// Completing reports whether the engine is currently completing with this strategy.
func (b *Base) Completing() bool { return b.completing }

func (b *Base) base() *Base { return b }

// qualifiedName picks the name a strategy completes p under.
func qualifiedName(s Strategy, p Process) string {
	if n := s.Name(); n != "" {
		return n
	}
	return p.Name()
}
