package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathfill/internal/fom"
)

func writeStudy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestOpenStudy(t *testing.T) {
	abs, err := filepath.Abs("testdata/morpho")
	require.NoError(t, err)
	path := writeStudy(t, `
name: demo
modules: [fom]
input_fom: morpho-1.0
output_fom: morpho-out
fom_path: `+abs+`
directories:
  input: /data/in
  output: /data/out
`)

	cfg, err := OpenStudy(path)
	require.NoError(t, err)
	in, out := cfg.Templates(fom.Input), cfg.Templates(fom.Output)
	require.NotNil(t, in)
	require.NotNil(t, out)
	assert.True(t, in.HasProcess("segment"))
	assert.True(t, out.HasParameter("segment", "mask"))
	assert.False(t, out.HasParameter("segment", "t1"))
}

func TestOpenStudyWithoutFOM(t *testing.T) {
	cfg, err := OpenStudy(writeStudy(t, "name: bare\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Templates(fom.Input))
}

func TestOpenStudyErrors(t *testing.T) {
	abs, err := filepath.Abs("testdata/morpho")
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing fom_path", "name: s\nmodules: [fom]\ninput_fom: morpho-1.0\n", "without fom_path"},
		{"unknown table", "name: s\nmodules: [fom]\ninput_fom: nope\nfom_path: " + abs + "\n", `input table "nope" not found`},
		{"missing dir", "name: s\nmodules: [fom]\ninput_fom: x\nfom_path: /nonexistent\n", ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenStudy(writeStudy(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
