package harness

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// SuiteEntry pairs a scenario with its result or execution error.
type SuiteEntry struct {
	Scenario *Scenario
	Result   *Result
	Err      error
}

// RunAll executes scenarios with at most parallel running at once and
// returns entries in input order. Scenarios share no state: each builds
// its own registry, engine and store. A parallel below 1 runs one at a
// time.
func RunAll(ctx context.Context, scenarios []*Scenario, parallel int) []SuiteEntry {
	entries := make([]SuiteEntry, len(scenarios))
	if parallel < 1 {
		parallel = 1
	}

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, sc := range scenarios {
		g.Go(func() error {
			res, err := Run(ctx, sc)
			entries[i] = SuiteEntry{Scenario: sc, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return entries
}
