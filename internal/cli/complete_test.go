package cli

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/store"
)

const (
	s01T1   = "/in/subjects/S01/t1mri/default_acquisition/S01.nii"
	s01Mask = "/out/subjects/S01/t1mri/default_acquisition/default_analysis/brain_S01.nii"
	s01Rep  = "/out/subjects/S01/report_S01.txt"
)

func TestComplete_Text(t *testing.T) {
	out, _, err := execute(t, "complete", fixturePipeline, "--study", fixtureStudy, "--attr", "subject=S01")
	require.NoError(t, err)

	assert.Contains(t, out, "morphologist.t1 = "+s01T1)
	assert.Contains(t, out, "morphologist.report = "+s01Rep)
	assert.Contains(t, out, "morphologist.segment.t1 = "+s01T1)
	assert.Contains(t, out, "morphologist.segment.mask = "+s01Mask)
	assert.Contains(t, out, "morphologist.write.input = "+s01Mask)
	assert.NotContains(t, out, "output_file")
	assert.Contains(t, out, "4 derivation(s), 0 failed node(s)")
	assert.NotContains(t, out, "Run:")
}

func TestComplete_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "complete", fixturePipeline,
		"--study", fixtureStudy, "--attr", "subject=S02", "--attr", "acquisition=3T")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   CompleteResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data.RunID)
	assert.NotEmpty(t, resp.Data.TraceHash)
	assert.Equal(t, 4, resp.Data.Derivations)

	assert.Contains(t, resp.Data.Parameters, ParameterValue{
		Process:   "morphologist.segment",
		Parameter: "t1",
		Value:     "/in/subjects/S02/t1mri/3T/S02.nii",
	})
	assert.Contains(t, resp.Data.Parameters, ParameterValue{
		Process:   "morphologist",
		Parameter: "report",
		Value:     "/out/subjects/S02/report_S02.txt",
		Output:    true,
	})

	statuses := map[string]string{}
	for _, o := range resp.Data.Outcomes {
		statuses[o.Node] = o.Status
	}
	assert.Equal(t, map[string]string{
		"morphologist.segment": ir.StatusCompleted,
		"morphologist.write":   ir.StatusCompleted,
		"morphologist.notes":   ir.StatusSkipped,
	}, statuses)
}

func TestComplete_UndeclaredAttributeIgnored(t *testing.T) {
	withExtra, _, err := execute(t, "--format", "json", "complete", fixturePipeline,
		"--study", fixtureStudy, "--attr", "subject=S01", "--attr", "scanner=prisma")
	require.NoError(t, err)
	plain, _, err := execute(t, "--format", "json", "complete", fixturePipeline,
		"--study", fixtureStudy, "--attr", "subject=S01")
	require.NoError(t, err)

	var a, b struct {
		Data CompleteResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(withExtra), &a))
	require.NoError(t, json.Unmarshal([]byte(plain), &b))
	assert.Equal(t, b.Data.TraceHash, a.Data.TraceHash)
}

func TestComplete_NameOverride(t *testing.T) {
	out, _, err := execute(t, "complete", fixtureSegment, "--study", fixtureStudy,
		"--name", "segment", "--attr", "subject=S03")
	require.NoError(t, err)
	assert.Contains(t, out, "segment.t1 = /in/subjects/S03/t1mri/default_acquisition/S03.nii")
	assert.Contains(t, out, "2 derivation(s)")
}

func TestComplete_FromFile(t *testing.T) {
	out, _, err := execute(t, "complete", fixturePipeline, "--study", fixtureStudy,
		"--from", "/in/subjects/S07/t1mri/7T/S07.nii")
	require.NoError(t, err)
	assert.Contains(t, out, "morphologist.segment.t1 = /in/subjects/S07/t1mri/7T/S07.nii")
	assert.Contains(t, out, "morphologist.report = /out/subjects/S07/report_S07.txt")
}

func TestComplete_FromFileFlagsWin(t *testing.T) {
	out, _, err := execute(t, "complete", fixturePipeline, "--study", fixtureStudy,
		"--from", "/in/subjects/S07/t1mri/7T/S07.nii", "--attr", "subject=S08")
	require.NoError(t, err)
	assert.Contains(t, out, "morphologist.segment.t1 = /in/subjects/S08/t1mri/7T/S08.nii")
}

func TestComplete_FromUnrecognizedFile(t *testing.T) {
	_, _, err := execute(t, "complete", fixturePipeline, "--study", fixtureStudy,
		"--from", "/elsewhere/notes.md")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeUnparsed)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"bad attribute", []string{"complete", fixturePipeline, "--study", fixtureStudy, "--attr", "subject"}, ErrCodeGeneric},
		{"bad parameter", []string{"complete", fixturePipeline, "--study", fixtureStudy, "--param", "=x"}, ErrCodeGeneric},
		{"missing study", []string{"complete", fixturePipeline, "--study", "/nonexistent/study.yaml"}, ErrCodeStudy},
		{"missing pipeline", []string{"complete", "/nonexistent/pipeline.yaml", "--study", fixtureStudy}, ErrCodePipeline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestComplete_RecordsRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	opts := &CompleteOptions{
		RootOptions: &RootOptions{Format: "json"},
		Study:       fixtureStudy,
		Attributes:  []string{"subject=S01"},
		Database:    db,
		RunIDs:      store.NewFixedGenerator("run-1", "run-2"),
		Now:         func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}

	for range 2 {
		cmd := &cobra.Command{}
		cmd.SetContext(context.Background())
		cmd.SetOut(io.Discard)
		require.NoError(t, runComplete(opts, fixturePipeline, cmd))
	}

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	first, err := st.ReadRun(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, fixtureStudy, first.StudyPath)
	assert.Equal(t, fixturePipeline, first.PipelinePath)
	assert.Equal(t, "2026-01-02T03:04:05Z", first.CreatedAt)
	assert.Equal(t, ir.IRObject{"subject": ir.IRString("S01")}, first.Attributes)
	require.Len(t, first.Derivations, 4)
	assert.Equal(t, int64(1), first.Derivations[0].Seq)

	// The second run resumes the clock where the first stopped.
	second, err := st.ReadRun(t.Context(), "run-2")
	require.NoError(t, err)
	require.Len(t, second.Derivations, 4)
	assert.Equal(t, int64(8), second.Derivations[0].Seq)
	assert.Equal(t, first.TraceHash, second.TraceHash)
}
