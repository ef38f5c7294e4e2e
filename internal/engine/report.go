package engine

import (
	"github.com/roach88/pathfill/internal/ir"
)

// Status is how completion of one node ended.
type Status string

const (
	StatusCompleted Status = ir.StatusCompleted
	StatusFallback  Status = ir.StatusFallback
	StatusFailed    Status = ir.StatusFailed
	StatusSkipped   Status = ir.StatusSkipped
)

// NodeOutcome records the result of completing one pipeline node.
//
// For StatusFallback, Err is the error of the node's own strategy. For
// StatusFailed, FallbackErr is the error of the retry with the parent's
// strategy.
type NodeOutcome struct {
	Seq         int64
	Node        string
	Status      Status
	Err         error
	FallbackErr error
}

// Report is everything one top-level Complete call did, in seq order.
//
// When a node falls back to its parent's strategy, the records of the
// abandoned attempt are dropped, so each node of the subtree is recorded
// once. Seqs of dropped records are not reused.
type Report struct {
	Derivations []ir.Derivation
	Outcomes    []NodeOutcome

	// Depth is the deepest nesting level reached. A leaf completes at 0.
	Depth int
}

type reportMark struct {
	derivations int
	outcomes    int
}

func (r *Report) mark() reportMark {
	return reportMark{derivations: len(r.Derivations), outcomes: len(r.Outcomes)}
}

// rewind drops everything recorded after m.
func (r *Report) rewind(m reportMark) {
	r.Derivations = r.Derivations[:m.derivations]
	r.Outcomes = r.Outcomes[:m.outcomes]
}

// Value returns the last value derived for process.parameter.
func (r *Report) Value(process, parameter string) (ir.IRValue, bool) {
	for i := len(r.Derivations) - 1; i >= 0; i-- {
		d := r.Derivations[i]
		if d.Process == process && d.Parameter == parameter {
			return d.Value, true
		}
	}
	return nil, false
}

// Outcome returns the last outcome recorded for node.
func (r *Report) Outcome(node string) (NodeOutcome, bool) {
	for i := len(r.Outcomes) - 1; i >= 0; i-- {
		if r.Outcomes[i].Node == node {
			return r.Outcomes[i], true
		}
	}
	return NodeOutcome{}, false
}

// Failed returns the outcomes with StatusFailed.
func (r *Report) Failed() []NodeOutcome {
	var out []NodeOutcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// OutcomeRecords converts outcomes to their persisted form.
func (r *Report) OutcomeRecords() []ir.Outcome {
	out := make([]ir.Outcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = ir.Outcome{
			Seq:    o.Seq,
			Node:   o.Node,
			Status: string(o.Status),
		}
		if o.Err != nil {
			out[i].Error = o.Err.Error()
		}
		if o.FallbackErr != nil {
			out[i].FallbackError = o.FallbackErr.Error()
		}
	}
	return out
}

// TraceHash hashes the derivations, ignoring ids and seqs.
func (r *Report) TraceHash() (string, error) {
	return ir.TraceHash(r.Derivations)
}

// Record fills run with the report's derivations, outcomes and trace hash.
// Identity fields of run (ID, paths, CreatedAt) are kept as given.
func (r *Report) Record(run ir.Run) (ir.Run, error) {
	hash, err := r.TraceHash()
	if err != nil {
		return ir.Run{}, err
	}
	run.Derivations = append([]ir.Derivation{}, r.Derivations...)
	run.Outcomes = r.OutcomeRecords()
	run.TraceHash = hash
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	return run, nil
}
