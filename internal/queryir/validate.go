package queryir

import (
	"fmt"
	"slices"

	"github.com/roach88/pathfill/internal/ir"
)

// Catalog lists the tables a backend exposes and the fields of each.
type Catalog map[string][]string

// Validate checks q against the catalog and returns every problem found.
// Unknown tables and fields, non-scalar values and an empty column list
// are rejected; an empty result means q is safe to compile.
func Validate(q Query, catalog Catalog) []error {
	v := &validator{catalog: catalog}
	v.query(q)
	return v.errs
}

type validator struct {
	catalog Catalog
	fields  []string
	errs    []error
}

func (v *validator) fail(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) query(q Query) {
	sel, ok := q.(Select)
	if !ok {
		if p, isPtr := q.(*Select); isPtr && p != nil {
			sel, ok = *p, true
		}
	}
	if !ok {
		v.fail("unsupported query type %T", q)
		return
	}

	fields, known := v.catalog[sel.From]
	if !known {
		v.fail("unknown table %q", sel.From)
		return
	}
	v.fields = fields

	if len(sel.Columns) == 0 {
		v.fail("select from %s names no columns", sel.From)
	}
	for _, c := range sel.Columns {
		v.field(c)
	}
	for _, o := range sel.OrderBy {
		v.field(o.Field)
	}
	if sel.Filter != nil {
		v.predicate(sel.Filter)
	}
}

func (v *validator) field(name string) {
	if !slices.Contains(v.fields, name) {
		v.fail("unknown field %q", name)
	}
}

func (v *validator) predicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.field(pred.Field)
		if !ir.IsScalar(pred.Value) {
			v.fail("field %q compared to non-scalar %T", pred.Field, pred.Value)
		}
	case Under:
		v.field(pred.Field)
		if pred.Prefix == "" {
			v.fail("field %q: empty prefix", pred.Field)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.predicate(sub)
		}
	case nil:
		v.fail("nil predicate")
	default:
		v.fail("unsupported predicate type %T", p)
	}
}
