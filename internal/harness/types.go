package harness

import (
	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/ir"
)

// Trace event kinds.
const (
	EventDerivation = "derivation"
	EventOutcome    = "outcome"
)

// TraceEvent is one derivation or node outcome of a run, in seq order.
type TraceEvent struct {
	Kind          string     `json:"kind"`
	Seq           int64      `json:"seq"`
	Process       string     `json:"process,omitempty"`
	Parameter     string     `json:"parameter,omitempty"`
	Value         ir.IRValue `json:"value,omitempty"`
	Node          string     `json:"node,omitempty"`
	Status        string     `json:"status,omitempty"`
	Error         string     `json:"error,omitempty"`
	FallbackError string     `json:"fallback_error,omitempty"`
}

// Key names the event the way assertions refer to it: "process.param"
// for a derivation, the node name for an outcome.
func (e TraceEvent) Key() string {
	if e.Kind == EventDerivation {
		return e.Process + "." + e.Parameter
	}
	return e.Node
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion holds.
	Pass bool `json:"pass"`

	// Trace holds derivations and outcomes merged in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// Run is the record as read back from the history store.
	Run ir.Run `json:"-"`

	// Root is the completed process tree.
	Root engine.Process `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceFromRun merges a run's derivations and outcomes by seq. Both
// slices are already in seq order and seqs never collide.
func traceFromRun(run ir.Run) []TraceEvent {
	trace := make([]TraceEvent, 0, len(run.Derivations)+len(run.Outcomes))
	ds, outs := run.Derivations, run.Outcomes
	for len(ds) > 0 || len(outs) > 0 {
		if len(outs) == 0 || (len(ds) > 0 && ds[0].Seq < outs[0].Seq) {
			d := ds[0]
			ds = ds[1:]
			trace = append(trace, TraceEvent{
				Kind:      EventDerivation,
				Seq:       d.Seq,
				Process:   d.Process,
				Parameter: d.Parameter,
				Value:     d.Value,
			})
			continue
		}
		o := outs[0]
		outs = outs[1:]
		trace = append(trace, TraceEvent{
			Kind:          EventOutcome,
			Seq:           o.Seq,
			Node:          o.Node,
			Status:        o.Status,
			Error:         o.Error,
			FallbackError: o.FallbackError,
		})
	}
	return trace
}
