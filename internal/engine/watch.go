package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/pathfill/internal/attrs"
	"github.com/roach88/pathfill/internal/ir"
)

// watchPrefix namespaces engine subscriptions on an attribute store.
const watchPrefix = "engine.watch:"

// Watcher re-completes a process whenever one of its attributes changes.
//
// Notifications raised while the strategy is already completing are
// ignored, so a completion that touches its own attributes never recurses.
type Watcher struct {
	engine *Engine
	ctx    context.Context
	s      Strategy
	p      Process
	store  *attrs.Store
	name   string

	last      *Report
	lastErr   error
	triggered int
	ignored   int
}

// Watch subscribes to s's attributes for p. A second Watch of the same
// strategy and process replaces the first subscription.
func (e *Engine) Watch(ctx context.Context, s Strategy, p Process) *Watcher {
	w := &Watcher{
		engine: e,
		ctx:    ctx,
		s:      s,
		p:      p,
		store:  s.Attributes(p),
		name:   watchPrefix + qualifiedName(s, p),
	}
	if w.store != nil {
		w.store.Subscribe(w.name, w.onChange)
	}
	return w
}

func (w *Watcher) onChange(c attrs.Change) {
	if w.s.base().completing {
		w.ignored++
		slog.Debug("attribute change ignored during completion", "subscription", w.name, "attribute", c.Name)
		return
	}
	w.triggered++
	w.last, w.lastErr = w.engine.Complete(w.ctx, w.s, w.p, Inputs{
		Attributes: ir.IRObject{c.Name: c.New},
	})
	if w.lastErr != nil {
		slog.Warn("completion after attribute change failed", "attribute", c.Name, "error", w.lastErr)
	}
}

// Stop removes the subscription. It reports whether one was active.
func (w *Watcher) Stop() bool {
	if w.store == nil {
		return false
	}
	return w.store.Unsubscribe(w.name)
}

// Last returns the report and error of the most recent triggered completion.
func (w *Watcher) Last() (*Report, error) {
	return w.last, w.lastErr
}

// Triggered returns how many changes started a completion.
func (w *Watcher) Triggered() int { return w.triggered }

// Ignored returns how many changes arrived while already completing.
func (w *Watcher) Ignored() int { return w.ignored }
