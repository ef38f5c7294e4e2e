// Package attrs holds the per-process bag of semantic attributes.
//
// A Store only accepts keys that were declared first. Values are scalar
// ir values. Changes are delivered synchronously to named subscribers on
// the caller's stack.
package attrs

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/pathfill/internal/ir"
)

var (
	// ErrUnknownAttribute is returned when setting a key that was never declared.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrNotScalar is returned when a value is not IRString, IRInt or IRBool.
	ErrNotScalar = errors.New("attribute value must be a scalar")
)

// Change describes one attribute update.
type Change struct {
	Name string
	Old  ir.IRValue
	New  ir.IRValue
}

type subscription struct {
	name string
	fn   func(Change)
}

// Store is a closed-world attribute set.
//
// Store is not safe for concurrent use.
type Store struct {
	values map[string]ir.IRValue
	subs   []subscription
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string]ir.IRValue)}
}

// Declare adds name to the store with an initial value.
// A nil value declares the attribute with an empty string.
// Declaring an existing name keeps its current value.
func (s *Store) Declare(name string, value ir.IRValue) error {
	if _, ok := s.values[name]; ok {
		return nil
	}
	if value == nil {
		value = ir.IRString("")
	}
	if !ir.IsScalar(value) {
		return fmt.Errorf("declare %q: %w (got %T)", name, ErrNotScalar, value)
	}
	s.values[name] = value
	return nil
}

// Has reports whether name is declared.
func (s *Store) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Get returns the current value of name.
func (s *Store) Get(name string) (ir.IRValue, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set updates a declared attribute and notifies subscribers when the
// value actually changes.
func (s *Store) Set(name string, value ir.IRValue) error {
	old, ok := s.values[name]
	if !ok {
		return fmt.Errorf("set %q: %w", name, ErrUnknownAttribute)
	}
	if !ir.IsScalar(value) {
		return fmt.Errorf("set %q: %w (got %T)", name, ErrNotScalar, value)
	}
	if ir.Equal(old, value) {
		return nil
	}
	s.values[name] = value
	s.notify(Change{Name: name, Old: old, New: value})
	return nil
}

// Keys returns the declared names in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of declared attributes.
func (s *Store) Len() int {
	return len(s.values)
}

// Snapshot returns a copy of the current values.
func (s *Store) Snapshot() ir.IRObject {
	out := make(ir.IRObject, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// MergeKnown applies the entries of m whose keys are already declared and
// returns the names that changed. Unknown keys and IRNull values are
// dropped; the key set never grows.
func (s *Store) MergeKnown(m ir.IRObject) ([]string, error) {
	var changed []string
	for _, k := range m.SortedKeys() {
		v := m[k]
		if _, isNull := v.(ir.IRNull); isNull || v == nil {
			continue
		}
		old, ok := s.values[k]
		if !ok {
			continue
		}
		if ir.Equal(old, v) {
			continue
		}
		if err := s.Set(k, v); err != nil {
			return changed, err
		}
		changed = append(changed, k)
	}
	return changed, nil
}
