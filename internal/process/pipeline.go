package process

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/pathfill/internal/engine"
	"github.com/roach88/pathfill/internal/ir"
)

// Endpoint is one side of a link. An empty Node is the pipeline boundary.
type Endpoint struct {
	Node  string
	Param string
}

// ParseEndpoint parses "node.param", or "param" for a boundary parameter.
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	node, param, found := strings.Cut(s, ".")
	if !found {
		node, param = "", s
	}
	if param == "" || (found && node == "") || strings.Contains(param, ".") {
		return Endpoint{}, fmt.Errorf("invalid link endpoint %q", s)
	}
	return Endpoint{Node: node, Param: param}, nil
}

func (e Endpoint) String() string {
	if e.Node == "" {
		return e.Param
	}
	return e.Node + "." + e.Param
}

// Link connects two parameters. Values flow from From to To.
type Link struct {
	From Endpoint
	To   Endpoint
}

func (l Link) String() string {
	return l.From.String() + " -> " + l.To.String()
}

// Pipeline is a composite process. Its own parameters form the boundary
// that links can read from and write to.
type Pipeline struct {
	*Process
	nodes []engine.Node
	index map[string]int
	links []Link
}

var _ engine.Composite = (*Pipeline)(nil)

// NewPipeline creates an empty pipeline.
func NewPipeline(id, name string, params ...Param) (*Pipeline, error) {
	proc, err := New(id, name, params...)
	if err != nil {
		return nil, err
	}
	pl := &Pipeline{Process: proc, index: make(map[string]int)}
	proc.observe(func(param string, v ir.IRValue) {
		pl.propagate("", param, v)
	})
	return pl, nil
}

// AddNode appends a child. A nil proc adds a node that completion skips.
func (pl *Pipeline) AddNode(name string, proc engine.Process) error {
	if name == "" || strings.Contains(name, ".") {
		return fmt.Errorf("pipeline %s: invalid node name %q", pl.name, name)
	}
	if _, dup := pl.index[name]; dup {
		return fmt.Errorf("pipeline %s: duplicate node %q", pl.name, name)
	}
	pl.index[name] = len(pl.nodes)
	pl.nodes = append(pl.nodes, engine.Node{Name: name, Process: proc})
	if o, ok := proc.(observable); ok {
		o.observe(func(param string, v ir.IRValue) {
			pl.propagate(name, param, v)
		})
	}
	return nil
}

// Link connects two endpoints written as "node.param" or "param".
func (pl *Pipeline) Link(from, to string) error {
	src, err := ParseEndpoint(from)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", pl.name, err)
	}
	dst, err := ParseEndpoint(to)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", pl.name, err)
	}
	if src == dst {
		return fmt.Errorf("pipeline %s: link %s connects a parameter to itself", pl.name, src)
	}
	for _, e := range []Endpoint{src, dst} {
		if err := pl.checkEndpoint(e); err != nil {
			return err
		}
	}
	l := Link{From: src, To: dst}
	if slices.Contains(pl.links, l) {
		return nil
	}
	pl.links = append(pl.links, l)
	return nil
}

func (pl *Pipeline) checkEndpoint(e Endpoint) error {
	if e.Node == "" {
		if !pl.HasParameter(e.Param) {
			return fmt.Errorf("pipeline %s: no boundary parameter %q", pl.name, e.Param)
		}
		return nil
	}
	i, ok := pl.index[e.Node]
	if !ok {
		return fmt.Errorf("pipeline %s: no node %q", pl.name, e.Node)
	}
	proc := pl.nodes[i].Process
	if proc == nil {
		return fmt.Errorf("pipeline %s: node %q has no process to link", pl.name, e.Node)
	}
	if !slices.Contains(proc.ParameterNames(), e.Param) {
		return fmt.Errorf("pipeline %s: node %q has no parameter %q", pl.name, e.Node, e.Param)
	}
	return nil
}

func (pl *Pipeline) propagate(node, param string, v ir.IRValue) {
	from := Endpoint{Node: node, Param: param}
	for _, l := range pl.links {
		if l.From != from {
			continue
		}
		target := pl.endpointProcess(l.To.Node)
		if target == nil {
			continue
		}
		if err := target.Set(l.To.Param, v); err != nil {
			slog.Warn("link propagation failed", "pipeline", pl.name, "link", l.String(), "error", err)
		}
	}
}

func (pl *Pipeline) endpointProcess(node string) engine.Process {
	if node == "" {
		return pl.Process
	}
	i, ok := pl.index[node]
	if !ok {
		return nil
	}
	return pl.nodes[i].Process
}

// Nodes returns the children in declaration order.
func (pl *Pipeline) Nodes() []engine.Node { return slices.Clone(pl.nodes) }

// Node returns the process of a child.
func (pl *Pipeline) Node(name string) (engine.Process, bool) {
	i, ok := pl.index[name]
	if !ok {
		return nil, false
	}
	return pl.nodes[i].Process, true
}

// Links returns the links in declaration order.
func (pl *Pipeline) Links() []Link { return slices.Clone(pl.links) }

// TopologicalNodes orders children so every node follows the nodes it
// reads from. Among ready nodes the earliest declared goes first.
func (pl *Pipeline) TopologicalNodes() ([]engine.Node, error) {
	g := pl.graph()
	n := len(pl.nodes)
	indeg := make([]int, n)
	for _, succ := range g {
		for _, t := range succ {
			indeg[t]++
		}
	}

	done := make([]bool, n)
	out := make([]engine.Node, 0, n)
	for len(out) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, pl.cycleError(g, done)
		}
		done[next] = true
		out = append(out, pl.nodes[next])
		for _, t := range g[next] {
			indeg[t]--
		}
	}
	return out, nil
}

// graph returns node-to-node edges by node index. Boundary links do not
// constrain order.
func (pl *Pipeline) graph() [][]int {
	g := make([][]int, len(pl.nodes))
	for _, l := range pl.links {
		if l.From.Node == "" || l.To.Node == "" {
			continue
		}
		f, t := pl.index[l.From.Node], pl.index[l.To.Node]
		if !slices.Contains(g[f], t) {
			g[f] = append(g[f], t)
		}
	}
	return g
}
