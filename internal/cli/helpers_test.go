package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fixtures shared with the harness: one study over morpho-1.0 and a
// three-node morphologist pipeline.
var (
	fixtureStudy    = filepath.Join("..", "harness", "testdata", "study.yaml")
	fixturePipeline = filepath.Join("..", "harness", "testdata", "pipelines", "morphologist.yaml")
	fixtureSegment  = filepath.Join("..", "harness", "testdata", "pipelines", "segment.yaml")
	fixtureFOM      = filepath.Join("..", "harness", "testdata", "fom")
	fixtureTables   = filepath.Join("..", "compiler", "testdata", "morpho")
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeCUE writes a single-file table directory and returns its path.
func writeCUE(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tables.cue"), []byte(content), 0o644))
	return dir
}
