package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathfill/internal/ir"
)

var testCatalog = Catalog{
	"derivations": {"run_id", "seq", "process", "parameter", "value"},
}

func TestValidate_ValidQuery(t *testing.T) {
	q := Select{
		From:    "derivations",
		Columns: []string{"run_id", "seq", "value"},
		Filter: Where(
			Under{Field: "process", Prefix: "morphologist.segment"},
			Equals{Field: "parameter", Value: ir.IRString("t1")},
		),
		OrderBy: []Order{{Field: "seq"}},
	}
	assert.Empty(t, Validate(q, testCatalog))
	assert.Empty(t, Validate(&q, testCatalog))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"unknown table", Select{From: "runs", Columns: []string{"id"}}, `unknown table "runs"`},
		{"no columns", Select{From: "derivations"}, "names no columns"},
		{"unknown column", Select{From: "derivations", Columns: []string{"id; DROP TABLE runs"}}, "unknown field"},
		{"unknown order field", Select{From: "derivations", Columns: []string{"seq"}, OrderBy: []Order{{Field: "created_at"}}}, `unknown field "created_at"`},
		{"unknown filter field", Select{From: "derivations", Columns: []string{"seq"}, Filter: Equals{Field: "node", Value: ir.IRString("x")}}, `unknown field "node"`},
		{"null value", Select{From: "derivations", Columns: []string{"seq"}, Filter: Equals{Field: "value", Value: ir.IRNull{}}}, "non-scalar"},
		{"array value", Select{From: "derivations", Columns: []string{"seq"}, Filter: Equals{Field: "value", Value: ir.IRArray{}}}, "non-scalar"},
		{"empty prefix", Select{From: "derivations", Columns: []string{"seq"}, Filter: Under{Field: "process"}}, "empty prefix"},
		{"nested nil", Select{From: "derivations", Columns: []string{"seq"}, Filter: And{Predicates: []Predicate{nil}}}, "nil predicate"},
		{"nil query", nil, "unsupported query type"},
		{"nil pointer", (*Select)(nil), "unsupported query type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.query, testCatalog)
			require.NotEmpty(t, errs)
			assert.Contains(t, errs[0].Error(), tt.want)
		})
	}
}

func TestValidate_CollectsEveryError(t *testing.T) {
	q := Select{
		From:    "derivations",
		Columns: []string{"a", "b"},
		Filter:  And{Predicates: []Predicate{Equals{Field: "c", Value: ir.IRInt(1)}}},
	}
	assert.Len(t, Validate(q, testCatalog), 3)
}

func TestWhere(t *testing.T) {
	eq := Equals{Field: "parameter", Value: ir.IRString("t1")}
	under := Under{Field: "process", Prefix: "p"}

	assert.Nil(t, Where())
	assert.Nil(t, Where(nil, nil))
	assert.Equal(t, eq, Where(nil, eq))
	assert.Equal(t, And{Predicates: []Predicate{eq, under}}, Where(eq, nil, under))
}
