package engine

import (
	"github.com/roach88/pathfill/internal/ir"
	"github.com/roach88/pathfill/internal/study"
)

// Process is the node type completion operates on.
//
// Set must reject names that are not declared parameters.
type Process interface {
	ID() string
	Name() string
	Get(name string) (ir.IRValue, bool)
	Set(name string, value ir.IRValue) error
	ParameterNames() []string
	IsOutput(name string) bool
	Context() *study.Config
	SetContext(c *study.Config)
}

// Node is one entry of a composite process.
// A nil Process marks a node that has nothing to complete.
type Node struct {
	Name    string
	Process Process
}

// Composite is a process with children.
//
// TopologicalNodes returns children so that every node comes after all
// nodes it has an incoming link from.
type Composite interface {
	Process
	TopologicalNodes() ([]Node, error)
}
