package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/pathfill/internal/ir"
)

// WriteRun stores a run with its derivations and outcomes in one
// transaction. Writing a run id that already exists is a no-op, so a
// retried write never duplicates history.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: empty id")
	}
	attrsJSON, err := marshalObject(run.Attributes)
	if err != nil {
		return fmt.Errorf("write run %s: attributes: %w", run.ID, err)
	}
	paramsJSON, err := marshalObject(run.Parameters)
	if err != nil {
		return fmt.Errorf("write run %s: parameters: %w", run.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run %s: begin: %w", run.ID, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, study_path, pipeline_path, name, attributes, parameters, trace_hash, engine_version, record_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.StudyPath,
		run.PipelinePath,
		run.Name,
		attrsJSON,
		paramsJSON,
		run.TraceHash,
		run.EngineVersion,
		ir.RecordVersion,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	if err := writeDerivations(ctx, tx, run.ID, run.Derivations); err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	if err := writeOutcomes(ctx, tx, run.ID, run.Outcomes); err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", run.ID, err)
	}
	return nil
}

func writeDerivations(ctx context.Context, tx *sql.Tx, runID string, ds []ir.Derivation) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO derivations (run_id, seq, id, process, parameter, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare derivations: %w", err)
	}
	defer stmt.Close()

	for _, d := range ds {
		value, err := marshalValue(d.Value)
		if err != nil {
			return fmt.Errorf("derivation %s.%s: %w", d.Process, d.Parameter, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, d.Seq, d.ID, d.Process, d.Parameter, value); err != nil {
			return fmt.Errorf("insert derivation seq %d: %w", d.Seq, err)
		}
	}
	return nil
}

func writeOutcomes(ctx context.Context, tx *sql.Tx, runID string, outcomes []ir.Outcome) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes (run_id, seq, node, status, error, fallback_error)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare outcomes: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.ExecContext(ctx, runID, o.Seq, o.Node, o.Status, o.Error, o.FallbackError); err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.Node, err)
		}
	}
	return nil
}
