package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pathfill/internal/ir"
)

// ErrRunNotFound is returned by ReadRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one line of run history.
type RunSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	PipelinePath string `json:"pipeline_path"`
	TraceHash    string `json:"trace_hash"`
	CreatedAt    string `json:"created_at"`
	Derivations  int    `json:"derivations"`
	Failed       int    `json:"failed"`
}

// ReadRun returns a run with its derivations and outcomes in seq order.
// Derivation and outcome slices are empty, never nil.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	var (
		run                   ir.Run
		attrsJSON, paramsJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, study_path, pipeline_path, name, attributes, parameters, trace_hash, engine_version, created_at
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&run.ID,
		&run.StudyPath,
		&run.PipelinePath,
		&run.Name,
		&attrsJSON,
		&paramsJSON,
		&run.TraceHash,
		&run.EngineVersion,
		&run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return ir.Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	if run.Attributes, err = unmarshalObject(attrsJSON); err != nil {
		return ir.Run{}, fmt.Errorf("read run %s: attributes: %w", id, err)
	}
	if run.Parameters, err = unmarshalObject(paramsJSON); err != nil {
		return ir.Run{}, fmt.Errorf("read run %s: parameters: %w", id, err)
	}
	if run.Derivations, err = s.readDerivations(ctx, id); err != nil {
		return ir.Run{}, err
	}
	if run.Outcomes, err = s.readOutcomes(ctx, id); err != nil {
		return ir.Run{}, err
	}
	return run, nil
}

func (s *Store) readDerivations(ctx context.Context, runID string) ([]ir.Derivation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, process, parameter, value
		FROM derivations
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query derivations: %w", err)
	}
	defer rows.Close()

	derivations := []ir.Derivation{}
	for rows.Next() {
		var (
			d     ir.Derivation
			value string
		)
		if err := rows.Scan(&d.Seq, &d.ID, &d.Process, &d.Parameter, &value); err != nil {
			return nil, fmt.Errorf("scan derivation: %w", err)
		}
		if d.Value, err = unmarshalValue(value); err != nil {
			return nil, fmt.Errorf("derivation seq %d: %w", d.Seq, err)
		}
		derivations = append(derivations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate derivations: %w", err)
	}
	return derivations, nil
}

func (s *Store) readOutcomes(ctx context.Context, runID string) ([]ir.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, node, status, error, fallback_error
		FROM outcomes
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []ir.Outcome{}
	for rows.Next() {
		var o ir.Outcome
		if err := rows.Scan(&o.Seq, &o.Node, &o.Status, &o.Error, &o.FallbackError); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// ListRuns returns every run, oldest first, with derivation and failure counts.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.pipeline_path, r.trace_hash, r.created_at,
		       (SELECT COUNT(*) FROM derivations d WHERE d.run_id = r.id),
		       (SELECT COUNT(*) FROM outcomes o WHERE o.run_id = r.id AND o.status = 'failed')
		FROM runs r
		ORDER BY r.created_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Name, &r.PipelinePath, &r.TraceHash, &r.CreatedAt, &r.Derivations, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
