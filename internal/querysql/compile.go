// Package querysql compiles queryir queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/queryir"
)

// Compiler turns validated queries into SQL text and parameters.
//
// Values are never interpolated: every value becomes a ? parameter.
// Field and table names are spliced in as written, so callers must run
// queryir.Validate against their catalog first; Compile does this itself
// when Catalog is set.
type Compiler struct {
	Catalog queryir.Catalog
}

// NewCompiler creates a compiler that validates against catalog.
func NewCompiler(catalog queryir.Catalog) *Compiler {
	return &Compiler{Catalog: catalog}
}

// Compile returns the SQL and parameters for q.
func (c *Compiler) Compile(q queryir.Query) (string, []any, error) {
	if c.Catalog != nil {
		if errs := queryir.Validate(q, c.Catalog); len(errs) > 0 {
			return "", nil, fmt.Errorf("invalid query: %w", errs[0])
		}
	}

	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		if query == nil {
			return "", nil, fmt.Errorf("cannot compile nil query")
		}
		sel = *query
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
	if len(sel.Columns) == 0 {
		return "", nil, fmt.Errorf("select from %s names no columns", sel.From)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(sel.Columns, ", "), sel.From)

	var params []any
	if sel.Filter != nil {
		where, ps, err := compilePredicate(sel.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = ps
	}

	// Results are always ordered; rowid breaks ties between equal keys.
	b.WriteString(" ORDER BY ")
	for _, o := range sel.OrderBy {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, "%s COLLATE BINARY %s, ", o.Field, dir)
	}
	b.WriteString("rowid ASC")

	return b.String(), params, nil
}

func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		param, err := valueParam(pred.Value)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", pred.Field, err)
		}
		return pred.Field + " = ?", []any{param}, nil
	case queryir.Under:
		// GLOB, unlike LIKE, is case-sensitive.
		return fmt.Sprintf(`(%s = ? OR %s GLOB ?)`, pred.Field, pred.Field),
			[]any{pred.Prefix, escapeGlob(pred.Prefix) + ".*"}, nil
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		var params []any
		for _, sub := range pred.Predicates {
			sql, ps, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			params = append(params, ps...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// globEscaper wraps GLOB metacharacters in brackets so they match literally.
var globEscaper = strings.NewReplacer(`*`, `[*]`, `?`, `[?]`, `[`, `[[]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

// valueParam converts a scalar to a driver parameter.
func valueParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
