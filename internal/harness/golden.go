package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pathfill/internal/ir"
)

// Snapshot renders a trace as canonical JSON for golden comparison.
// Derivation ids and the trace hash are left out; seqs, names and values
// fully determine them.
func Snapshot(scenarioName string, trace []TraceEvent) ([]byte, error) {
	events := make(ir.IRArray, len(trace))
	for i, event := range trace {
		obj := ir.IRObject{
			"kind": ir.IRString(event.Kind),
			"seq":  ir.IRInt(event.Seq),
		}
		switch event.Kind {
		case EventDerivation:
			obj["process"] = ir.IRString(event.Process)
			obj["parameter"] = ir.IRString(event.Parameter)
			obj["value"] = event.Value
		case EventOutcome:
			obj["node"] = ir.IRString(event.Node)
			obj["status"] = ir.IRString(event.Status)
			if event.Error != "" {
				obj["error"] = ir.IRString(event.Error)
			}
			if event.FallbackError != "" {
				obj["fallback_error"] = ir.IRString(event.FallbackError)
			}
		}
		events[i] = obj
	}
	return ir.MarshalCanonical(ir.IRObject{
		"scenario_name": ir.IRString(scenarioName),
		"trace":         events,
	})
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
