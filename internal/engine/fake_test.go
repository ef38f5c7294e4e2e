package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/study"
)

type fakeProcess struct {
	name    string
	order   []string
	values  map[string]ir.IRValue
	outputs map[string]bool
	ctx     *study.Config
}

func newFake(name string, params ...string) *fakeProcess {
	return &fakeProcess{
		name:    name,
		order:   params,
		values:  map[string]ir.IRValue{},
		outputs: map[string]bool{},
	}
}

func (f *fakeProcess) ID() string   { return "test." + f.name }
func (f *fakeProcess) Name() string { return f.name }

func (f *fakeProcess) Get(name string) (ir.IRValue, bool) {
	v, ok := f.values[name]
	return v, ok
}

func (f *fakeProcess) Set(name string, v ir.IRValue) error {
	if !slices.Contains(f.order, name) {
		return fmt.Errorf("%s has no parameter %q", f.name, name)
	}
	f.values[name] = v
	return nil
}

func (f *fakeProcess) ParameterNames() []string   { return f.order }
func (f *fakeProcess) IsOutput(name string) bool  { return f.outputs[name] }
func (f *fakeProcess) Context() *study.Config     { return f.ctx }
func (f *fakeProcess) SetContext(c *study.Config) { f.ctx = c }

type fakePipeline struct {
	*fakeProcess
	nodes    []Node
	orderErr error
}

func newFakePipeline(name string, nodes ...Node) *fakePipeline {
	return &fakePipeline{fakeProcess: newFake(name), nodes: nodes}
}

func (f *fakePipeline) TopologicalNodes() ([]Node, error) {
	return f.nodes, f.orderErr
}

// funcStrategy is a Base with a pluggable Derive.
type funcStrategy struct {
	*Base
	derive func(p Process, snapshot ir.IRObject) (map[string]ir.IRValue, error)
}

func newFuncStrategy(name string, derive func(Process, ir.IRObject) (map[string]ir.IRValue, error)) *funcStrategy {
	return &funcStrategy{Base: NewBase(name), derive: derive}
}

func (s *funcStrategy) Derive(p Process, snapshot ir.IRObject) (map[string]ir.IRValue, error) {
	return s.derive(p, snapshot)
}

// echoStrategy writes "<process>:<attr value>" into param out.
func echoStrategy(name, attr string) *funcStrategy {
	s := newFuncStrategy(name, func(p Process, snap ir.IRObject) (map[string]ir.IRValue, error) {
		return map[string]ir.IRValue{"out": ir.IRString(p.Name() + ":" + ir.Text(snap[attr]))}, nil
	})
	_ = s.Attributes(nil).Declare(attr, nil)
	return s
}

func failingStrategy(name string, err error) *funcStrategy {
	return newFuncStrategy(name, func(Process, ir.IRObject) (map[string]ir.IRValue, error) {
		return nil, err
	})
}
