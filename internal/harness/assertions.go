package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/process"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		switch event.Kind {
		case EventDerivation:
			fmt.Fprintf(&buf, "  [%d] %s = %s\n", i+1, event.Key(), ir.Text(event.Value))
		case EventOutcome:
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, event.Node, event.Status)
		}
	}

	return buf.String()
}

func paramLabel(a Assertion) string {
	if a.Path == "" {
		return "<root>." + a.Param
	}
	return a.Path + "." + a.Param
}

// lookupParam reads a parameter at a node path of the completed tree.
func lookupParam(root engine.Process, a Assertion) (ir.IRValue, error) {
	p, err := process.Find(root, a.Path)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(p.ParameterNames(), a.Param) {
		return nil, fmt.Errorf("%s has no parameter %q", p.Name(), a.Param)
	}
	v, _ := p.Get(a.Param)
	return v, nil
}

// assertParamEquals checks the final value of one parameter.
func assertParamEquals(root engine.Process, trace []TraceEvent, a Assertion) error {
	want, err := ir.FromGo(a.Value)
	if err != nil {
		return fmt.Errorf("param_equals %s: value: %w", paramLabel(a), err)
	}
	got, err := lookupParam(root, a)
	if err != nil {
		return fmt.Errorf("param_equals %s: %w", paramLabel(a), err)
	}
	if !ir.Equal(want, got) {
		actual := "unset"
		if got != nil {
			actual = ir.Text(got)
		}
		return &AssertionError{
			Type:     AssertParamEquals,
			Expected: fmt.Sprintf("%s = %s", paramLabel(a), ir.Text(want)),
			Actual:   actual,
			Trace:    trace,
		}
	}
	return nil
}

// assertParamUnset checks that a parameter holds no value.
func assertParamUnset(root engine.Process, trace []TraceEvent, a Assertion) error {
	got, err := lookupParam(root, a)
	if err != nil {
		return fmt.Errorf("param_unset %s: %w", paramLabel(a), err)
	}
	if got != nil {
		return &AssertionError{
			Type:     AssertParamUnset,
			Expected: fmt.Sprintf("%s unset", paramLabel(a)),
			Actual:   ir.Text(got),
			Trace:    trace,
		}
	}
	return nil
}

// assertDerivationOrder checks that derivations appear in the given
// relative order. Other derivations may come in between; the first
// derivation of each key counts.
func assertDerivationOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Kind != EventDerivation {
			continue
		}
		if _, seen := positions[event.Key()]; !seen {
			positions[event.Key()] = i + 1
		}
	}

	for _, key := range a.Order {
		if positions[key] == 0 {
			return &AssertionError{
				Type:     AssertDerivationOrder,
				Expected: fmt.Sprintf("all derivations present: %v", a.Order),
				Actual:   fmt.Sprintf("missing derivation: %s", key),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Order); i++ {
		prev, curr := a.Order[i-1], a.Order[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertDerivationOrder,
				Expected: fmt.Sprintf("derivations in order: %v", a.Order),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertOutcomeStatus checks the last outcome recorded for a node.
func assertOutcomeStatus(trace []TraceEvent, a Assertion) error {
	status := ""
	for _, event := range trace {
		if event.Kind == EventOutcome && event.Node == a.Node {
			status = event.Status
		}
	}
	if status == a.Status {
		return nil
	}
	actual := status
	if actual == "" {
		actual = "no outcome recorded"
	}
	return &AssertionError{
		Type:     AssertOutcomeStatus,
		Expected: fmt.Sprintf("%s %s", a.Node, a.Status),
		Actual:   actual,
		Trace:    trace,
	}
}

// EvaluateAssertions evaluates all assertions against the result and
// returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertParamEquals, AssertParamUnset:
			if result.Root == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a completed process", i, assertion.Type)
			} else if assertion.Type == AssertParamEquals {
				err = assertParamEquals(result.Root, result.Trace, assertion)
			} else {
				err = assertParamUnset(result.Root, result.Trace, assertion)
			}
		case AssertDerivationOrder:
			err = assertDerivationOrder(result.Trace, assertion)
		case AssertOutcomeStatus:
			err = assertOutcomeStatus(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
