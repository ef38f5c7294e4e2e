package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/pathfill/internal/ir"
)

// createTestStore opens a store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun builds a run with two derivations and one failed node.
func createTestRun(id, createdAt string) ir.Run {
	return ir.Run{
		ID:            id,
		StudyPath:     "study.yaml",
		PipelinePath:  "pipeline.yaml",
		Attributes:    ir.IRObject{"subject": ir.IRString("S01"), "session": ir.IRInt(1)},
		Parameters:    ir.IRObject{},
		TraceHash:     "trace-" + id,
		EngineVersion: ir.EngineVersion,
		CreatedAt:     createdAt,
		Derivations: []ir.Derivation{
			{ID: "d1", Seq: 1, Process: "pipe.a", Parameter: "out", Value: ir.IRString("/data/S01/a.nii")},
			{ID: "d2", Seq: 3, Process: "pipe", Parameter: "report", Value: ir.IRString("/data/S01/report.txt")},
		},
		Outcomes: []ir.Outcome{
			{Seq: 2, Node: "pipe.a", Status: ir.StatusCompleted},
			{Seq: 4, Node: "pipe.b", Status: ir.StatusFailed, Error: "own", FallbackError: "parent"},
		},
	}
}
