package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathfill/internal/ir"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return sc
}

func TestRun_BasicCompletion(t *testing.T) {
	result, err := Run(context.Background(), loadScenario(t, "basic_completion"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	assert.Equal(t, "test-run-default", result.Run.ID)
	assert.Equal(t, "2024-01-01T00:00:00Z", result.Run.CreatedAt)
	assert.Equal(t, ir.EngineVersion, result.Run.EngineVersion)
	assert.NotEmpty(t, result.Run.TraceHash)
	assert.Len(t, result.Run.Derivations, 4)
	assert.Len(t, result.Run.Outcomes, 3)
	assert.Len(t, result.Trace, 7)
}

func TestRun_FailedAssertionIsReported(t *testing.T) {
	sc := loadScenario(t, "basic_completion")
	sc.Assertions = []Assertion{{Type: AssertParamEquals, Param: "report", Value: "/elsewhere.txt"}}

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "/out/subjects/S01/report_S01.txt")
}

func TestRun_Deterministic(t *testing.T) {
	sc := loadScenario(t, "closed_world")

	first, err := Run(context.Background(), sc)
	require.NoError(t, err)
	second, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Run, second.Run)
}

func TestRun_ClosedWorldDropsUnknownAttributes(t *testing.T) {
	result, err := Run(context.Background(), loadScenario(t, "closed_world"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	for _, e := range result.Trace {
		if e.Kind == EventDerivation {
			assert.NotContains(t, ir.Text(e.Value), "4", "session must not reach any path")
		}
	}
	assert.Equal(t, ir.IRString("4"), result.Run.Attributes["session"], "inputs are recorded as given")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, loadScenario(t, "basic_completion"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MissingTables(t *testing.T) {
	sc := loadScenario(t, "basic_completion")
	sc.Study = writeScenario(t, "name: x\nmodules: [fom]\ninput_fom: t\n")

	_, err := Run(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open study")
}

func TestRunAll(t *testing.T) {
	names := []string{"basic_completion", "closed_world", "name_override"}
	var scenarios []*Scenario
	for _, n := range names {
		scenarios = append(scenarios, loadScenario(t, n))
	}

	for _, parallel := range []int{0, 1, 3} {
		entries := RunAll(context.Background(), scenarios, parallel)
		require.Len(t, entries, len(names))
		for i, e := range entries {
			require.NoError(t, e.Err, names[i])
			assert.Equal(t, names[i], e.Scenario.Name, "entries keep input order")
			assert.True(t, e.Result.Pass, "%s: %v", names[i], e.Result.Errors)
		}
	}
}
