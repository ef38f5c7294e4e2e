package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathfill/internal/ir"
)

func TestGoldenScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			sc, err := LoadScenario(file)
			require.NoError(t, err)
			result, err := RunWithGolden(t, sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", "closed_world.yaml"))
	require.NoError(t, err)
	result, err := Run(t.Context(), sc)
	require.NoError(t, err)

	// A result checked twice against the same golden file stays stable.
	require.NoError(t, AssertGolden(t, sc.Name, result))
	require.NoError(t, AssertGolden(t, sc.Name, result))
}

func TestSnapshot_OmitsEmptyErrors(t *testing.T) {
	data, err := Snapshot("s", []TraceEvent{
		{Kind: EventOutcome, Seq: 1, Node: "n", Status: "completed"},
		{Kind: EventOutcome, Seq: 2, Node: "m", Status: "failed", Error: "own", FallbackError: "parent"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"s","trace":[`+
			`{"kind":"outcome","node":"n","seq":1,"status":"completed"},`+
			`{"error":"own","fallback_error":"parent","kind":"outcome","node":"m","seq":2,"status":"failed"}]}`,
		string(data))
}

func TestSnapshot_DerivationValue(t *testing.T) {
	data, err := Snapshot("s", []TraceEvent{
		{Kind: EventDerivation, Seq: 3, Process: "p", Parameter: "x", Value: ir.IRInt(7)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"s","trace":[{"kind":"derivation","parameter":"x","process":"p","seq":3,"value":7}]}`, string(data))
}

func TestGoldenFilesMatchScenarios(t *testing.T) {
	golden, err := filepath.Glob(filepath.Join("testdata", "golden", "*.golden"))
	require.NoError(t, err)
	for _, g := range golden {
		name := strings.TrimSuffix(filepath.Base(g), ".golden")
		_, err := os.Stat(filepath.Join("testdata", "scenarios", name+".yaml"))
		assert.NoError(t, err, "golden file %s has no scenario", g)
	}
}
