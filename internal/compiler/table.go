package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pathfill/internal/fom"
)

// CompileTable parses a CUE value into a fom.Table.
// The table name is taken from the value's last path selector.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	table, err := CompileTable(v.LookupPath(cue.ParsePath(`fom."morpho-1.0"`)))
func CompileTable(v cue.Value) (*fom.Table, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	t := &fom.Table{
		Attributes: make(map[string]fom.AttributeDef),
		Formats:    make(map[string][]string),
		Processes:  make(map[string]map[string][]fom.Rule),
	}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		t.Name = unquote(labels[len(labels)-1])
	}

	if err := parseAttributes(v, t); err != nil {
		return nil, err
	}
	if err := parseFormats(v, t); err != nil {
		return nil, err
	}

	procVal := v.LookupPath(cue.ParsePath("processes"))
	if !procVal.Exists() {
		return nil, &CompileError{
			Field:   "processes",
			Message: "processes is required",
			Pos:     v.Pos(),
		}
	}
	procIter, err := procVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for procIter.Next() {
		process := procIter.Selector().Unquoted()
		params := make(map[string][]fom.Rule)
		paramIter, err := procIter.Value().Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for paramIter.Next() {
			param := paramIter.Selector().Unquoted()
			field := fmt.Sprintf("processes.%s.%s", process, param)
			rules, err := parseRules(paramIter.Value(), field)
			if err != nil {
				return nil, err
			}
			params[param] = rules
		}
		t.Processes[process] = params
	}
	return t, nil
}

func parseAttributes(v cue.Value, t *fom.Table) error {
	attrVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrVal.Exists() {
		return nil
	}
	iter, err := attrVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		def := fom.AttributeDef{}
		defVal := iter.Value().LookupPath(cue.ParsePath("default"))
		if defVal.Exists() {
			s, err := defVal.String()
			if err != nil {
				return &CompileError{
					Field:   "attributes." + name + ".default",
					Message: "default must be a string",
					Pos:     defVal.Pos(),
				}
			}
			def.Default = s
		}
		t.Attributes[name] = def
	}
	return nil
}

func parseFormats(v cue.Value, t *fom.Table) error {
	fmtVal := v.LookupPath(cue.ParsePath("formats"))
	if !fmtVal.Exists() {
		return nil
	}
	iter, err := fmtVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		exts, err := stringList(iter.Value(), "formats."+name)
		if err != nil {
			return err
		}
		t.Formats[name] = exts
	}
	return nil
}

// parseRules reads a list whose elements are pattern strings or rule structs.
func parseRules(v cue.Value, field string) ([]fom.Rule, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "rules must be a list",
			Pos:     v.Pos(),
		}
	}
	var rules []fom.Rule
	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		elemField := fmt.Sprintf("%s[%d]", field, i)

		if s, err := elem.String(); err == nil {
			rules = append(rules, fom.Rule{Pattern: s})
			continue
		}

		patVal := elem.LookupPath(cue.ParsePath("pattern"))
		if !patVal.Exists() {
			return nil, &CompileError{
				Field:   elemField + ".pattern",
				Message: "rule must be a string or have a pattern field",
				Pos:     elem.Pos(),
			}
		}
		pattern, err := patVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		rule := fom.Rule{Pattern: pattern}

		if fv := elem.LookupPath(cue.ParsePath("formats")); fv.Exists() {
			rule.Formats, err = stringList(fv, elemField+".formats")
			if err != nil {
				return nil, err
			}
		}
		if av := elem.LookupPath(cue.ParsePath("attributes")); av.Exists() {
			rule.Attributes, err = stringMap(av, elemField+".attributes")
			if err != nil {
				return nil, err
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: v.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func stringMap(v cue.Value, field string) (map[string]string, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a struct of strings", Pos: v.Pos()}
	}
	out := make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + iter.Selector().Unquoted(),
				Message: "must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		out[iter.Selector().Unquoted()] = s
	}
	return out, nil
}

func unquote(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

// CompileError represents a table compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
