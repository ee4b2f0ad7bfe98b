package taskexec

import (
	"container/heap"
	"fmt"
)

// Resolver computes a dispatch order over a set of task definitions that
// respects declared dependencies (spec.md §4.6). A Resolver holds no
// mutable state; Resolve is a pure function of its input.
type Resolver struct{}

// NewResolver returns a Resolver. Kept as a constructor (rather than a
// bare package function) so it composes the same way as the other C-named
// components in this package.
func NewResolver() *Resolver { return &Resolver{} }

// node is one entry in the resolver's internal dependency graph.
type node struct {
	def        Definition
	index      int // insertion order, for stable tie-break
	inDegree   int
	successors []int // indices of nodes depending on this one
}

// readyItem is one entry in the resolver's priority queue of dispatchable
// nodes: ties are broken by descending priority, then insertion order.
type readyItem struct {
	idx      int
	priority int
	order    int
}

type readyHeap []readyItem

func (h readyHeap) Len() int { return len(h) }
func (h readyHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].order < h[j].order
}
func (h readyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x any)        { *h = append(*h, x.(readyItem)) }
func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Resolve returns defs in an order where every task appears after all of
// its declared dependencies, ties broken by descending Priority then
// insertion order (spec.md §4.6). It returns ErrMissingDependency if a
// dependency name is not present in defs, and ErrCyclicDependency if the
// graph contains a cycle.
func (r *Resolver) Resolve(defs []Definition) ([]Definition, error) {
	indexByName := make(map[string]int, len(defs))
	for i, d := range defs {
		indexByName[d.Name] = i
	}

	nodes := make([]node, len(defs))
	for i, d := range defs {
		nodes[i] = node{def: d, index: i}
	}

	for i, d := range defs {
		for _, dep := range d.DependsOn {
			depIdx, ok := indexByName[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %q depends on %q", ErrMissingDependency, d.Name, dep)
			}
			nodes[i].inDegree++
			nodes[depIdx].successors = append(nodes[depIdx].successors, i)
		}
	}

	h := make(readyHeap, 0, len(nodes))
	for i, n := range nodes {
		if n.inDegree == 0 {
			heap.Push(&h, readyItem{idx: i, priority: n.def.Priority, order: n.index})
		}
	}

	out := make([]Definition, 0, len(defs))
	remaining := make([]int, len(nodes))
	for i, n := range nodes {
		remaining[i] = n.inDegree
	}

	for h.Len() > 0 {
		item := heap.Pop(&h).(readyItem)
		out = append(out, nodes[item.idx].def)

		for _, succ := range nodes[item.idx].successors {
			remaining[succ]--
			if remaining[succ] == 0 {
				heap.Push(&h, readyItem{idx: succ, priority: nodes[succ].def.Priority, order: nodes[succ].index})
			}
		}
	}

	if len(out) != len(defs) {
		for i, rem := range remaining {
			if rem > 0 {
				return nil, fmt.Errorf("%w: involving %q", ErrCyclicDependency, defs[i].Name)
			}
		}
		return nil, ErrCyclicDependency
	}

	return out, nil
}
