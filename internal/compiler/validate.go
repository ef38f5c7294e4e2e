package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pathfill/internal/fom"
)

// Validation error codes (E100-E199)
const (
	ErrTableEmpty         = "E101" // table declares no process
	ErrUnknownFormat      = "E102" // rule references an undeclared format
	ErrUndefinedAttribute = "E103" // placeholder or fixed attribute not declared
	ErrDuplicateRule      = "E104" // same pattern twice for one parameter
	ErrInvalidPlaceholder = "E105" // malformed placeholder syntax
	ErrEmptyPattern       = "E106" // rule pattern is empty
)

// ValidationError represents a table consistency error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled table. It returns every error found, in a
// deterministic order (processes and parameters sorted, rules in order).
func Validate(t *fom.Table) []ValidationError {
	var errs []ValidationError

	if len(t.Processes) == 0 {
		errs = append(errs, ValidationError{
			Field:   "processes",
			Message: fmt.Sprintf("table %q declares no process", t.Name),
			Code:    ErrTableEmpty,
		})
	}

	for _, process := range t.ProcessNames() {
		params := make([]string, 0, len(t.Processes[process]))
		for p := range t.Processes[process] {
			params = append(params, p)
		}
		slices.Sort(params)

		for _, param := range params {
			seen := make(map[string]bool)
			for i, rule := range t.Processes[process][param] {
				field := fmt.Sprintf("processes.%s.%s[%d]", process, param, i)
				errs = append(errs, validateRule(t, rule, field, seen)...)
			}
		}
	}
	return errs
}

func validateRule(t *fom.Table, rule fom.Rule, field string, seen map[string]bool) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(rule.Pattern) == "" {
		return []ValidationError{{
			Field:   field + ".pattern",
			Message: "pattern must be non-empty",
			Code:    ErrEmptyPattern,
		}}
	}

	if seen[rule.Pattern] {
		errs = append(errs, ValidationError{
			Field:   field + ".pattern",
			Message: fmt.Sprintf("duplicate pattern %q", rule.Pattern),
			Code:    ErrDuplicateRule,
		})
	}
	seen[rule.Pattern] = true

	pattern, err := fom.ParsePattern(rule.Pattern)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".pattern",
			Message: err.Error(),
			Code:    ErrInvalidPlaceholder,
		})
	} else {
		for _, name := range pattern.Placeholders() {
			if !attributeDeclared(t, name) {
				errs = append(errs, ValidationError{
					Field:   field + ".pattern",
					Message: fmt.Sprintf("placeholder <%s> is not a declared attribute", name),
					Code:    ErrUndefinedAttribute,
				})
			}
		}
	}

	fixed := make([]string, 0, len(rule.Attributes))
	for name := range rule.Attributes {
		fixed = append(fixed, name)
	}
	slices.Sort(fixed)
	for _, name := range fixed {
		if !attributeDeclared(t, name) {
			errs = append(errs, ValidationError{
				Field:   field + ".attributes." + name,
				Message: fmt.Sprintf("fixed attribute %q is not declared", name),
				Code:    ErrUndefinedAttribute,
			})
		}
	}

	for j, format := range rule.Formats {
		if _, ok := t.Formats[format]; !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.formats[%d]", field, j),
				Message: fmt.Sprintf("unknown format %q", format),
				Code:    ErrUnknownFormat,
			})
		}
	}
	return errs
}

// Reserved attributes are supplied by the resolver and need no declaration.
func attributeDeclared(t *fom.Table, name string) bool {
	if strings.HasPrefix(name, fom.ReservedPrefix) {
		return true
	}
	_, ok := t.Attributes[name]
	return ok
}
