package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/queryir"
)

var catalog = queryir.Catalog{
	"derivations": {"run_id", "seq", "process", "parameter", "value"},
}

func TestCompile_SimpleSelect(t *testing.T) {
	c := NewCompiler(catalog)

	sql, params, err := c.Compile(queryir.Select{
		From:    "derivations",
		Columns: []string{"run_id", "seq", "value"},
		Filter:  queryir.Equals{Field: "parameter", Value: ir.IRString("t1")},
		OrderBy: []queryir.Order{{Field: "run_id"}, {Field: "seq", Desc: true}},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT run_id, seq, value FROM derivations WHERE parameter = ? "+
			"ORDER BY run_id COLLATE BINARY ASC, seq COLLATE BINARY DESC, rowid ASC",
		sql)
	assert.Equal(t, []any{"t1"}, params)
}

func TestCompile_NoFilterStillOrdered(t *testing.T) {
	sql, params, err := NewCompiler(catalog).Compile(&queryir.Select{
		From:    "derivations",
		Columns: []string{"seq"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT seq FROM derivations ORDER BY rowid ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_ValuesAreNeverInterpolated(t *testing.T) {
	sql, params, err := NewCompiler(catalog).Compile(queryir.Select{
		From:    "derivations",
		Columns: []string{"seq"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "value", Value: ir.IRString("x' OR '1'='1")},
			queryir.Equals{Field: "seq", Value: ir.IRInt(3)},
			queryir.Equals{Field: "parameter", Value: ir.IRBool(true)},
		}},
	})
	require.NoError(t, err)
	assert.NotContains(t, sql, "OR '1'")
	assert.Contains(t, sql, "WHERE value = ? AND seq = ? AND parameter = ?")
	assert.Equal(t, []any{"x' OR '1'='1", int64(3), true}, params)
}

func TestCompile_Under(t *testing.T) {
	sql, params, err := NewCompiler(catalog).Compile(queryir.Select{
		From:    "derivations",
		Columns: []string{"seq"},
		Filter:  queryir.Under{Field: "process", Prefix: "morpho_1.seg%"},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `WHERE (process = ? OR process GLOB ?)`)
	assert.NotContains(t, sql, "LIKE")
	assert.Equal(t, []any{"morpho_1.seg%", "morpho_1.seg%.*"}, params)
}

func TestCompile_UnderEscapesGlob(t *testing.T) {
	_, params, err := NewCompiler(catalog).Compile(queryir.Select{
		From:    "derivations",
		Columns: []string{"seq"},
		Filter:  queryir.Under{Field: "process", Prefix: "a*b?[c]"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"a*b?[c]", "a[*]b[?][[]c].*"}, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	sql, _, err := NewCompiler(catalog).Compile(queryir.Select{
		From:    "derivations",
		Columns: []string{"seq"},
		Filter:  queryir.And{},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 1")
}

func TestCompile_RejectsInvalidQueries(t *testing.T) {
	tests := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{"unknown table", queryir.Select{From: "runs", Columns: []string{"id"}}, "unknown table"},
		{"injected column", queryir.Select{From: "derivations", Columns: []string{"seq FROM runs --"}}, "unknown field"},
		{"nil", nil, "unsupported query type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewCompiler(catalog).Compile(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompile_WithoutCatalog(t *testing.T) {
	c := &Compiler{}

	_, _, err := c.Compile(queryir.Select{From: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "names no columns")

	_, _, err = c.Compile((*queryir.Select)(nil))
	require.Error(t, err)

	_, _, err = c.Compile(queryir.Select{
		From:    "t",
		Columns: []string{"a"},
		Filter:  queryir.Equals{Field: "a", Value: ir.IRNull{}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported value type")
}
