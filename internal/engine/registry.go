package engine

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/roach88/pathfill/internal/study"
)

// DefaultPriority is the slot holding the default factory. Lower values
// are consulted first.
const DefaultPriority = 100000

// DefaultFactoryName names the factory that produces Base strategies.
const DefaultFactoryName = "default"

// Factory builds a strategy for a process, or returns nil to decline.
type Factory interface {
	FactoryName() string
	NewStrategy(p Process, name string) Strategy
}

type funcFactory struct {
	name string
	fn   func(p Process, name string) Strategy
}

func (f funcFactory) FactoryName() string { return f.name }

func (f funcFactory) NewStrategy(p Process, name string) Strategy { return f.fn(p, name) }

// NewFactory adapts a function into a Factory.
func NewFactory(name string, fn func(p Process, name string) Strategy) Factory {
	return funcFactory{name: name, fn: fn}
}

func defaultFactory() Factory {
	return NewFactory(DefaultFactoryName, func(_ Process, name string) Strategy {
		return NewBase(name)
	})
}

type slot struct {
	priority  int
	factories []Factory
}

// Registration describes one registered factory.
type Registration struct {
	Name     string
	Priority int
}

// Registry selects a strategy for a process from priority-ordered factories.
//
// A Registry built by NewRegistry always ends with the default factory, so
// Strategy never runs out of candidates. Registry is not safe for
// concurrent use; register factories during startup.
type Registry struct {
	slots []slot // ascending priority
}

// NewRegistry returns a registry holding only the default factory.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(defaultFactory(), DefaultPriority)
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds f at priority. A factory with the same name is removed
// from its previous slot first.
func (r *Registry) Register(f Factory, priority int) {
	r.remove(f.FactoryName())
	i, found := slices.BinarySearchFunc(r.slots, priority, func(s slot, p int) int {
		return cmp.Compare(s.priority, p)
	})
	if found {
		r.slots[i].factories = append(r.slots[i].factories, f)
		return
	}
	r.slots = slices.Insert(r.slots, i, slot{priority: priority, factories: []Factory{f}})
}

// Unregister removes f. The default factory is never removed.
func (r *Registry) Unregister(f Factory) bool {
	if f.FactoryName() == DefaultFactoryName {
		return false
	}
	return r.remove(f.FactoryName())
}

func (r *Registry) remove(name string) bool {
	for i := range r.slots {
		idx := slices.IndexFunc(r.slots[i].factories, func(f Factory) bool {
			return f.FactoryName() == name
		})
		if idx < 0 {
			continue
		}
		r.slots[i].factories = slices.Delete(r.slots[i].factories, idx, idx+1)
		if len(r.slots[i].factories) == 0 {
			r.slots = slices.Delete(r.slots, i, i+1)
		}
		return true
	}
	return false
}

// Factories lists registrations in consultation order.
func (r *Registry) Factories() []Registration {
	var out []Registration
	for _, s := range r.slots {
		for _, f := range s.factories {
			out = append(out, Registration{Name: f.FactoryName(), Priority: s.priority})
		}
	}
	return out
}

// Strategy binds c to p and returns the first strategy a factory produces.
//
// A nil c leaves the binding alone. A process already bound to another
// study fails with ErrCodeConfigurationMismatch.
func (r *Registry) Strategy(p Process, c *study.Config, name string) (Strategy, error) {
	if c != nil {
		bound := p.Context()
		switch {
		case bound == nil:
			p.SetContext(c)
		case bound != c:
			return nil, newMismatchError(p.Name(), bound.Name, c.Name)
		}
	}
	for _, s := range r.slots {
		for _, f := range s.factories {
			if st := f.NewStrategy(p, name); st != nil {
				slog.Debug("strategy selected",
					"process", p.Name(),
					"name", name,
					"factory", f.FactoryName(),
					"priority", s.priority,
				)
				return st, nil
			}
		}
	}
	return nil, newExhaustedError(p.Name())
}
