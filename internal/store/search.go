package store

import (
	"context"
	"fmt"

	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/queryir"
	"github.com/roach88/pathfill/internal/querysql"
)

// searchCatalog is what history search may touch.
var searchCatalog = queryir.Catalog{
	"derivations": {"run_id", "seq", "id", "process", "parameter", "value"},
}

// DerivationFilter selects derivations across every stored run.
// Zero fields match anything.
type DerivationFilter struct {
	RunID string
	// Process matches the named node and every node nested below it.
	Process   string
	Parameter string
	// Value matches the derived value exactly.
	Value ir.IRValue
}

// DerivationMatch is one derivation found by SearchDerivations.
type DerivationMatch struct {
	RunID string `json:"run_id"`
	ir.Derivation
}

// query builds the search for f.
func (f DerivationFilter) query() (queryir.Select, error) {
	var preds []queryir.Predicate
	if f.RunID != "" {
		preds = append(preds, queryir.Equals{Field: "run_id", Value: ir.IRString(f.RunID)})
	}
	if f.Process != "" {
		preds = append(preds, queryir.Under{Field: "process", Prefix: f.Process})
	}
	if f.Parameter != "" {
		preds = append(preds, queryir.Equals{Field: "parameter", Value: ir.IRString(f.Parameter)})
	}
	if f.Value != nil {
		if !ir.IsScalar(f.Value) {
			return queryir.Select{}, fmt.Errorf("value filter must be a scalar, got %T", f.Value)
		}
		// Values are stored as canonical JSON text.
		text, err := marshalValue(f.Value)
		if err != nil {
			return queryir.Select{}, err
		}
		preds = append(preds, queryir.Equals{Field: "value", Value: ir.IRString(text)})
	}
	return queryir.Select{
		From:    "derivations",
		Columns: []string{"run_id", "seq", "id", "process", "parameter", "value"},
		Filter:  queryir.Where(preds...),
		OrderBy: []queryir.Order{{Field: "seq"}, {Field: "run_id"}},
	}, nil
}

// SearchDerivations returns every stored derivation matching f, in seq
// order. The result is empty, never nil.
func (s *Store) SearchDerivations(ctx context.Context, f DerivationFilter) ([]DerivationMatch, error) {
	q, err := f.query()
	if err != nil {
		return nil, fmt.Errorf("search derivations: %w", err)
	}
	sqlText, params, err := querysql.NewCompiler(searchCatalog).Compile(q)
	if err != nil {
		return nil, fmt.Errorf("search derivations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("search derivations: %w", err)
	}
	defer rows.Close()

	matches := []DerivationMatch{}
	for rows.Next() {
		var (
			m     DerivationMatch
			value string
		)
		if err := rows.Scan(&m.RunID, &m.Seq, &m.ID, &m.Process, &m.Parameter, &value); err != nil {
			return nil, fmt.Errorf("scan derivation: %w", err)
		}
		if m.Value, err = unmarshalValue(value); err != nil {
			return nil, fmt.Errorf("derivation %s/%d: %w", m.RunID, m.Seq, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate derivations: %w", err)
	}
	return matches, nil
}
