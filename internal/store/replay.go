package store

import (
	"context"
	"fmt"
)

// GetLastSeq returns the highest seq used by any stored derivation or
// outcome. The CLI resumes its logical clock from here so seqs stay
// unique across runs in one database.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	for _, table := range []string{"derivations", "outcomes"} {
		var seq int64
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COALESCE(MAX(seq), 0) FROM %s`, table)).Scan(&seq)
		if err != nil {
			return 0, fmt.Errorf("get last seq from %s: %w", table, err)
		}
		maxSeq = max(maxSeq, seq)
	}
	return maxSeq, nil
}

// FindRunsByTrace returns ids of runs that produced the given trace hash,
// oldest first.
func (s *Store) FindRunsByTrace(ctx context.Context, traceHash string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE trace_hash = ?
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`, traceHash)
	if err != nil {
		return nil, fmt.Errorf("query runs by trace: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run ids: %w", err)
	}
	return ids, nil
}
