package queryir

import "github.com/roach88/pathfill/internal/ir"

// Query is a sealed interface; only Select implements it.
type Query interface {
	queryNode()
}

// Predicate is a sealed filter condition.
type Predicate interface {
	predicateNode()
}

// Select reads Columns from From, keeps rows matching Filter and returns
// them sorted by OrderBy. A nil Filter keeps every row.
type Select struct {
	From    string
	Columns []string
	Filter  Predicate
	OrderBy []Order
}

func (Select) queryNode() {}

// Order is one sort key. Text keys compare bytewise.
type Order struct {
	Field string
	Desc  bool
}

// Equals matches rows whose field equals a scalar value.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// Under matches rows whose field is Prefix or starts with Prefix + ".".
// It selects a node and everything nested below it by qualified name.
type Under struct {
	Field  string
	Prefix string
}

func (Under) predicateNode() {}

// And matches rows satisfying every predicate.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where joins the non-nil predicates into one filter: nil when none
// remain, the predicate itself when one does.
func Where(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
