// Package engine implements attribute-driven parameter completion.
//
// A Strategy is bound to one process and knows which attributes matter for
// it and how to derive parameter values from them. A Registry picks the
// strategy for a process from priority-ordered factories; its lowest slot
// always holds the default factory so resolution never comes up empty.
// The Engine walks composite processes in topological order, completes
// every child with a strategy resolved under a dotted name, then derives
// the node's own parameters. Later writes win.
//
// Everything here is single-threaded and synchronous. Attribute change
// notifications re-enter Complete on the caller's stack; a per-strategy
// flag suppresses notifications raised while that strategy is completing.
//
// CRITICAL PATTERNS:
//
// Logical clock: every derivation and node outcome is stamped with a
// monotonic seq from Clock.Next(). Reports order by seq, never wall time.
//
// Closed-world merge: inherited attributes only update keys a child's
// store already declares.
//
// Observable fallback: a child that fails under its own strategy is retried
// once with the parent's strategy; a second failure is recorded in the
// Report and propagation continues with the next sibling.
package engine
