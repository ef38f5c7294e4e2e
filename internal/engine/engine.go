package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/pathfill/internal/ir"
)

// Engine completes processes with strategies from a registry.
//
// Completion is single-threaded and synchronous. One Engine may complete
// many processes in turn; each Complete call gets its own Report and
// depth budget while sharing the engine's clock.
type Engine struct {
	registry *Registry
	clock    *Clock
	maxDepth int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithRegistry sets the registry used to resolve child strategies.
// Default: DefaultRegistry().
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithClock sets the logical clock. Used by replay and tests to get
// reproducible seqs.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithMaxDepth sets the nesting limit.
//
// Default: DefaultMaxDepth. Use WithMaxDepth(1) to allow a pipeline of
// leaves but no nested pipelines.
func WithMaxDepth(n int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		registry: DefaultRegistry(),
		clock:    NewClock(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine resolves strategies from.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Inputs are the values supplied to one Complete call.
//
// Parameters are written to the process directly. Attributes only update
// keys the strategy's store already declares; other keys are dropped.
type Inputs struct {
	Parameters ir.IRObject
	Attributes ir.IRObject
}

// Complete applies in to p, completes every child of a composite p, then
// derives p's own parameters with s.
//
// A child that fails is retried once with s; a second failure is recorded
// in the Report and the next sibling proceeds. Cancellation, depth errors
// and strategy resolution errors abort the whole call. The returned Report
// holds whatever was done before an error.
func (e *Engine) Complete(ctx context.Context, s Strategy, p Process, in Inputs) (*Report, error) {
	rep := &Report{}
	q := newDepthQuota(e.maxDepth)
	qname := qualifiedName(s, p)

	slog.Debug("completion starting", "process", qname)

	err := e.complete(ctx, s, p, in, qname, 0, rep, q)
	rep.Depth = q.deepest
	if err != nil {
		return rep, err
	}

	slog.Info("completion finished",
		"process", qname,
		"derivations", len(rep.Derivations),
		"failed", len(rep.Failed()),
	)
	return rep, nil
}

func (e *Engine) complete(ctx context.Context, s Strategy, p Process, in Inputs, qname string, depth int, rep *Report, q *depthQuota) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.check(qname, depth); err != nil {
		return err
	}

	b := s.base()
	prev := b.completing
	b.completing = true
	defer func() { b.completing = prev }()

	for _, name := range in.Parameters.SortedKeys() {
		if err := p.Set(name, in.Parameters[name]); err != nil {
			return fmt.Errorf("set parameter %s.%s: %w", qname, name, err)
		}
	}

	store := s.Attributes(p)
	if store != nil && len(in.Attributes) > 0 {
		if _, err := store.MergeKnown(in.Attributes); err != nil {
			return fmt.Errorf("merge attributes into %s: %w", qname, err)
		}
	}

	if c, ok := p.(Composite); ok {
		if err := e.completeChildren(ctx, s, c, qname, depth, rep, q); err != nil {
			return err
		}
	}

	var snapshot ir.IRObject
	if store != nil {
		snapshot = store.Snapshot()
	}
	values, err := s.Derive(p, snapshot)
	if err != nil {
		return err
	}
	for _, name := range ir.IRObject(values).SortedKeys() {
		v := values[name]
		if v == nil {
			continue
		}
		if err := p.Set(name, v); err != nil {
			return fmt.Errorf("set derived parameter %s.%s: %w", qname, name, err)
		}
		e.record(rep, qname, name, v)
	}
	return nil
}

func (e *Engine) completeChildren(ctx context.Context, s Strategy, c Composite, qname string, depth int, rep *Report, q *depthQuota) error {
	nodes, err := c.TopologicalNodes()
	if err != nil {
		return fmt.Errorf("order nodes of %s: %w", qname, err)
	}

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		childQ := qname + "." + n.Name
		if n.Process == nil {
			e.outcome(rep, NodeOutcome{Node: childQ, Status: StatusSkipped})
			continue
		}

		// Snapshot after each sibling; an earlier sibling may have
		// updated shared attributes through a link.
		var inherited ir.IRObject
		if store := s.Attributes(c); store != nil {
			inherited = store.Snapshot()
		}
		childIn := Inputs{Attributes: inherited}

		cs, err := e.registry.Strategy(n.Process, c.Context(), childQ)
		if err != nil {
			return fmt.Errorf("resolve strategy for %s: %w", childQ, err)
		}

		mark := rep.mark()
		childErr := e.complete(ctx, cs, n.Process, childIn, childQ, depth+1, rep, q)
		if childErr == nil {
			e.outcome(rep, NodeOutcome{Node: childQ, Status: StatusCompleted})
			continue
		}
		if isFatal(childErr) {
			return childErr
		}

		slog.Debug("child completion failed, retrying with parent strategy",
			"node", childQ,
			"error", childErr,
		)
		// Only the retry's subtree stays in the report.
		rep.rewind(mark)
		fbErr := e.complete(ctx, s, n.Process, childIn, childQ, depth+1, rep, q)
		switch {
		case fbErr == nil:
			e.outcome(rep, NodeOutcome{Node: childQ, Status: StatusFallback, Err: childErr})
		case isFatal(fbErr):
			return fbErr
		default:
			slog.Warn("node completion failed",
				"node", childQ,
				"error", childErr,
				"fallback_error", fbErr,
			)
			e.outcome(rep, NodeOutcome{Node: childQ, Status: StatusFailed, Err: childErr, FallbackErr: fbErr})
		}
	}
	return nil
}

func (e *Engine) record(rep *Report, process, parameter string, v ir.IRValue) {
	seq := e.clock.Next()
	id, err := ir.DerivationID(process, parameter, v, seq)
	if err != nil {
		// Compound values without a canonical form still get recorded.
		slog.Warn("derivation id unavailable", "process", process, "parameter", parameter, "error", err)
	}
	rep.Derivations = append(rep.Derivations, ir.Derivation{
		ID:        id,
		Seq:       seq,
		Process:   process,
		Parameter: parameter,
		Value:     v,
	})
	slog.Debug("parameter derived", "process", process, "parameter", parameter, "value", ir.Text(v))
}

func (e *Engine) outcome(rep *Report, o NodeOutcome) {
	o.Seq = e.clock.Next()
	rep.Outcomes = append(rep.Outcomes, o)
}

// isFatal reports errors that must not be absorbed by the fallback policy.
func isFatal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		IsConfigurationMismatch(err) ||
		IsDepthExceeded(err) ||
		IsRegistryExhausted(err)
}
