package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/store"
)

func TestReplay_AllRunsReproduce(t *testing.T) {
	db := recordRuns(t, "S01", "S02")

	out, _, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 run(s)")
	assert.Contains(t, out, markOK+" Run: run-1 (4 derivation(s))")
	assert.Contains(t, out, markOK+" Run: run-2 (4 derivation(s))")
	assert.Contains(t, out, markOK+" All runs reproduced")
}

func TestReplay_SingleRunJSON(t *testing.T) {
	db := recordRuns(t, "S01", "S02")

	out, _, err := execute(t, "--format", "json", "replay", "--db", db, "run-2")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	require.Len(t, resp.Data.Runs, 1)
	assert.Equal(t, "run-2", resp.Data.Runs[0].RunID)
	assert.Equal(t, resp.Data.Runs[0].TraceHash, resp.Data.Runs[0].ReplayHash)
}

func TestReplay_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, _, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in database.")
}

func TestReplay_DetectsTamperedHistory(t *testing.T) {
	db := recordRuns(t, "S01")

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE derivations SET value = '"/tampered.nii"' WHERE run_id = 'run-1' AND seq = 1`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "--format", "json", "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
	require.Len(t, resp.Data.Runs, 1)
	assert.False(t, resp.Data.Runs[0].Deterministic)
	assert.Contains(t, resp.Data.Runs[0].Diff, "/tampered.nii")
}

func TestReplay_UnknownRun(t *testing.T) {
	db := recordRuns(t, "S01")

	_, _, err := execute(t, "replay", "--db", db, "run-404")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCompareRuns(t *testing.T) {
	recorded := ir.Run{
		ID: "run-1",
		Derivations: []ir.Derivation{
			{ID: "a", Seq: 10, Process: "p", Parameter: "x", Value: ir.IRString("v")},
		},
		Outcomes:  []ir.Outcome{{Seq: 11, Node: "p.n", Status: ir.StatusCompleted}},
		TraceHash: "h",
	}
	replayed := ir.Run{
		Derivations: []ir.Derivation{
			{ID: "b", Seq: 1, Process: "p", Parameter: "x", Value: ir.IRString("v")},
		},
		Outcomes:  []ir.Outcome{{Seq: 2, Node: "p.n", Status: ir.StatusCompleted}},
		TraceHash: "h",
	}

	rr := compareRuns(recorded, replayed)
	assert.True(t, rr.Deterministic, rr.Diff)
	assert.Empty(t, rr.Diff)

	replayed.Outcomes[0].Status = ir.StatusFailed
	rr = compareRuns(recorded, replayed)
	assert.False(t, rr.Deterministic)
	assert.Contains(t, rr.Diff, ir.StatusFailed)
}
