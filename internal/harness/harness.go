package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/pathfill/internal/compiler"
	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/fomstrategy"
	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/process"
	"github.com/roach88/pathfill/internal/store"
	"github.com/roach88/pathfill/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the study with its tables and build the pipeline
//  2. Resolve the root strategy from a fresh registry
//  3. Complete the pipeline with the scenario's inputs
//  4. Persist the run to an in-memory store and read it back
//  5. Evaluate assertions against the tree and the stored trace
//
// A returned error means the scenario could not execute; failed
// assertions are reported in the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := compiler.OpenStudy(scenario.Study)
	if err != nil {
		return nil, fmt.Errorf("failed to open study: %w", err)
	}
	root, err := process.LoadFile(scenario.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	attributes, err := ir.ObjectFromGo(scenario.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to convert attributes: %w", err)
	}
	parameters, err := ir.ObjectFromGo(scenario.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to convert parameters: %w", err)
	}

	registry := engine.NewRegistry()
	fomstrategy.Register(registry)
	eng := engine.New(engine.WithRegistry(registry), engine.WithClock(engine.NewClock()))

	strategy, err := registry.Strategy(root, cfg, scenario.NameOverride)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve strategy: %w", err)
	}
	rep, err := eng.Complete(ctx, strategy, root, engine.Inputs{
		Parameters: parameters,
		Attributes: attributes,
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	run, err := rep.Record(ir.Run{
		ID:           testutil.NewFixedRunIDGenerator(scenario.RunID).Generate(),
		StudyPath:    scenario.Study,
		PipelinePath: scenario.Pipeline,
		Name:         scenario.NameOverride,
		Attributes:   attributes,
		Parameters:   parameters,
		CreatedAt:    testutil.NewFixedTime(time.Time{}, time.Second).Now().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	stored, err := persist(ctx, run)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Run = stored
	result.Root = root
	result.Trace = traceFromRun(stored)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Debug("scenario executed",
		"scenario", scenario.Name,
		"derivations", len(stored.Derivations),
		"outcomes", len(stored.Outcomes),
		"pass", result.Pass,
	)
	return result, nil
}

// persist writes run to a fresh in-memory store and reads it back, so the
// trace the harness checks is the one history would hold.
func persist(ctx context.Context, run ir.Run) (ir.Run, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return ir.Run{}, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.WriteRun(ctx, run); err != nil {
		return ir.Run{}, fmt.Errorf("failed to write run: %w", err)
	}
	stored, err := st.ReadRun(ctx, run.ID)
	if err != nil {
		return ir.Run{}, fmt.Errorf("failed to read run: %w", err)
	}
	return stored, nil
}
