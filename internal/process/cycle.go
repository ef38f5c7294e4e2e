package process

import (
	"fmt"
	"strings"
)

// CycleError reports links that make node ordering impossible.
type CycleError struct {
	Pipeline string
	// Path lists the cycle's nodes, ending where it started: [a b a].
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("pipeline %s: link cycle %s", e.Pipeline, strings.Join(e.Path, " -> "))
}

// cycleError names one cycle among the nodes Kahn's pass could not place.
func (pl *Pipeline) cycleError(g [][]int, done []bool) *CycleError {
	for _, scc := range tarjanSCC(g, done) {
		if len(scc) > 1 || hasSelfLoop(g, scc[0]) {
			path := reconstructCyclePath(scc, g)
			names := make([]string, len(path))
			for i, idx := range path {
				names[i] = pl.nodes[idx].Name
			}
			return &CycleError{Pipeline: pl.name, Path: names}
		}
	}
	// Unreachable: leftover nodes always contain a cycle.
	return &CycleError{Pipeline: pl.name}
}

func hasSelfLoop(g [][]int, v int) bool {
	for _, w := range g[v] {
		if w == v {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components among the nodes not yet
// placed. Roots are visited in declaration order so the reported cycle
// is stable.
func tarjanSCC(g [][]int, skip []bool) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if skip[w] {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := range g {
		if skip[v] {
			continue
		}
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// reconstructCyclePath returns the shortest cycle through the lowest
// index member of the component.
func reconstructCyclePath(scc []int, g [][]int) []int {
	members := make(map[int]bool, len(scc))
	start := scc[0]
	for _, v := range scc {
		members[v] = true
		start = min(start, v)
	}

	prev := map[int]int{}
	queue := []int{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g[v] {
			if !members[w] {
				continue
			}
			if w == start {
				var rev []int
				for x := v; x != start; x = prev[x] {
					rev = append(rev, x)
				}
				path := []int{start}
				for i := len(rev) - 1; i >= 0; i-- {
					path = append(path, rev[i])
				}
				return append(path, start)
			}
			if _, seen := prev[w]; !seen {
				prev[w] = v
				queue = append(queue, w)
			}
		}
	}
	return []int{start}
}
