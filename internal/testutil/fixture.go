// Package testutil provides deterministic clocks, id generators and
// template fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pathfill/internal/fom"
	"github.com/roach88/pathfill/internal/study"
)

// MorphoTable returns a small input table for a segmentation pipeline.
//
//	segment.t1          <center>/<subject>/t1mri/<acquisition>/<subject>
//	segment.mask        <center>/<subject>/t1mri/<acquisition>/<analysis>/brain_<subject>
//	write.output_file   <subject>/<session>/out
//	morphologist.t1     same as segment.t1
//	morphologist.report <center>/<subject>/report_<subject>
func MorphoTable() *fom.Table {
	return &fom.Table{
		Name: "morpho-1.0",
		Attributes: map[string]fom.AttributeDef{
			"center":      {Default: "subjects"},
			"subject":     {},
			"session":     {Default: "1"},
			"acquisition": {Default: "default_acquisition"},
			"analysis":    {Default: "default_analysis"},
		},
		Formats: map[string][]string{
			"NIFTI":    {".nii"},
			"NIFTI gz": {".nii.gz"},
			"Text":     {".txt"},
		},
		Processes: map[string]map[string][]fom.Rule{
			"segment": {
				"t1": {
					{Pattern: "<center>/<subject>/t1mri/<acquisition>/<subject>", Formats: []string{"NIFTI", "NIFTI gz"}},
				},
				"mask": {
					{Pattern: "<center>/<subject>/t1mri/<acquisition>/<analysis>/brain_<subject>", Formats: []string{"NIFTI"}},
				},
			},
			"write": {
				"output_file": {
					{Pattern: "<subject>/<session>/out", Formats: []string{"NIFTI"}},
				},
			},
			"morphologist": {
				"t1": {
					{Pattern: "<center>/<subject>/t1mri/<acquisition>/<subject>", Formats: []string{"NIFTI", "NIFTI gz"}},
				},
				"report": {
					{Pattern: "<center>/<subject>/report_<subject>", Formats: []string{"Text"}},
				},
			},
		},
	}
}

// OutputTable returns an output table whose analysis default disagrees
// with MorphoTable.
func OutputTable() *fom.Table {
	return &fom.Table{
		Name: "morpho-out",
		Attributes: map[string]fom.AttributeDef{
			"subject":  {},
			"analysis": {Default: "published"},
			"site":     {Default: "paris"},
		},
		Formats: map[string][]string{
			"NIFTI": {".nii"},
			"Text":  {".txt"},
		},
		Processes: map[string]map[string][]fom.Rule{
			"segment": {
				"mask": {
					{Pattern: "<site>/<subject>/<analysis>/mask", Formats: []string{"NIFTI"}},
				},
			},
			"write": {
				"output_file": {
					{Pattern: "<site>/<subject>/final", Formats: []string{"NIFTI"}},
				},
			},
		},
	}
}

// Study builds a study with the fom module enabled and the given tables
// attached. A nil out reuses in for outputs.
func Study(t testing.TB, in, out *fom.Table, dirs study.Directories) *study.Config {
	t.Helper()
	if out == nil {
		out = in
	}
	cfg := &study.Config{
		Name:        "test-study",
		Modules:     []string{study.ModuleFOM},
		InputFOM:    in.Name,
		OutputFOM:   out.Name,
		Directories: dirs,
	}
	require.NoError(t, cfg.AttachTables(map[string]*fom.Table{in.Name: in, out.Name: out}))
	return cfg
}
