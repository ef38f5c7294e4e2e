package process

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/study"
)

// ErrUnknownParameter is returned when setting a name the process does not declare.
var ErrUnknownParameter = errors.New("unknown parameter")

// Param declares one parameter.
type Param struct {
	Name   string
	Output bool
}

// Input declares an input parameter.
func Input(name string) Param { return Param{Name: name} }

// Output declares an output parameter.
func Output(name string) Param { return Param{Name: name, Output: true} }

// Process is a leaf process.
//
// Process is not safe for concurrent use.
type Process struct {
	id      string
	name    string
	params  []string
	outputs map[string]bool
	values  map[string]ir.IRValue
	ctx     *study.Config

	observers []func(name string, v ir.IRValue)
}

var _ engine.Process = (*Process)(nil)

// New creates a leaf process. An empty id defaults to name.
func New(id, name string, params ...Param) (*Process, error) {
	if name == "" {
		return nil, errors.New("process name is required")
	}
	if id == "" {
		id = name
	}
	p := &Process{
		id:      id,
		name:    name,
		outputs: make(map[string]bool),
		values:  make(map[string]ir.IRValue),
	}
	for _, param := range params {
		if err := p.declare(param); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Process) declare(param Param) error {
	if param.Name == "" {
		return fmt.Errorf("process %s: empty parameter name", p.name)
	}
	if slices.Contains(p.params, param.Name) {
		return fmt.Errorf("process %s: duplicate parameter %q", p.name, param.Name)
	}
	p.params = append(p.params, param.Name)
	if param.Output {
		p.outputs[param.Name] = true
	}
	return nil
}

// ID returns the process identifier.
func (p *Process) ID() string { return p.id }

// Name returns the process name.
func (p *Process) Name() string { return p.name }

// Get returns a parameter value. Unset parameters report false.
func (p *Process) Get(name string) (ir.IRValue, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Set writes a parameter value. IRNull unsets it. Observers are notified
// only when the stored value changes.
func (p *Process) Set(name string, v ir.IRValue) error {
	if !slices.Contains(p.params, name) {
		return fmt.Errorf("%s.%s: %w", p.name, name, ErrUnknownParameter)
	}
	old, had := p.values[name]
	if _, null := v.(ir.IRNull); null || v == nil {
		if !had {
			return nil
		}
		delete(p.values, name)
		p.notify(name, ir.IRNull{})
		return nil
	}
	if had && ir.Equal(old, v) {
		return nil
	}
	p.values[name] = v
	p.notify(name, v)
	return nil
}

func (p *Process) notify(name string, v ir.IRValue) {
	for _, fn := range slices.Clone(p.observers) {
		fn(name, v)
	}
}

func (p *Process) observe(fn func(name string, v ir.IRValue)) {
	p.observers = append(p.observers, fn)
}

// ParameterNames returns parameters in declaration order.
func (p *Process) ParameterNames() []string { return slices.Clone(p.params) }

// IsOutput reports whether name is an output parameter.
func (p *Process) IsOutput(name string) bool { return p.outputs[name] }

// HasParameter reports whether name is declared.
func (p *Process) HasParameter(name string) bool { return slices.Contains(p.params, name) }

// Context returns the study the process is bound to, or nil.
func (p *Process) Context() *study.Config { return p.ctx }

// SetContext binds the process to a study.
func (p *Process) SetContext(c *study.Config) { p.ctx = c }

// Values returns the set parameters.
func (p *Process) Values() ir.IRObject {
	out := make(ir.IRObject, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// observable is implemented by processes of this package so pipelines can
// follow writes to linked parameters.
type observable interface {
	observe(fn func(name string, v ir.IRValue))
}
