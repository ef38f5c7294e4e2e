package fomstrategy

import (
	"log/slog"

	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/fom"
	"github.com/roach88/pathfill/internal/study"
)

// Priority is the registry slot of the template factory. It is consulted
// before the default factory.
const Priority = 10000

// FactoryName identifies the template factory in a registry.
const FactoryName = "fom"

// NewFactory returns a factory that builds a Strategy when the process's
// study enables the fom module and a table knows the process.
func NewFactory() engine.Factory {
	return engine.NewFactory(FactoryName, func(p engine.Process, name string) engine.Strategy {
		cfg := p.Context()
		if !cfg.HasModule(study.ModuleFOM) {
			return nil
		}
		in, out := cfg.Templates(fom.Input), cfg.Templates(fom.Output)
		if in == nil || out == nil {
			return nil
		}
		s, err := New(p, name, in, out)
		if err != nil {
			slog.Debug("fom factory declined", "process", p.Name(), "name", name, "error", err)
			return nil
		}
		return s
	})
}

// Register installs the template factory in r.
func Register(r *engine.Registry) {
	r.Register(NewFactory(), Priority)
}
