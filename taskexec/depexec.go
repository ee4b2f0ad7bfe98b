package taskexec

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DependencyBatch dispatches defs honoring each Definition's DependsOn
// (spec.md §4.6, §4.10). A task dispatches only after every task it
// depends on has completed; if any dependency did not succeed, the
// dependent is never dispatched and instead receives a Business-kind
// Result whose Message names the failed predecessor (spec.md §4.10
// "failure propagation"). DependencyBatch returns ErrMissingDependency or
// ErrCyclicDependency before dispatching anything if defs does not form a
// valid DAG.
func (p *Processor) DependencyBatch(ctx context.Context, defs []Definition, sink ProgressSink) ([]Result, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := validateDefs(defs); err != nil {
		return nil, err
	}
	if _, err := NewResolver().Resolve(defs); err != nil {
		return nil, err
	}

	g := newDepGraph(defs)
	runID := newRunID()
	sem := semaphore.NewWeighted(int64(p.opts.MaxConcurrency))

	state := &batchState{
		runID:   runID,
		total:   len(defs),
		results: make(map[string]Result, len(defs)),
	}

	var wg sync.WaitGroup
	wg.Add(len(defs))

	var dispatch func(i int)
	dispatch = func(i int) {
		defer wg.Done()
		n := &g.nodes[i]
		state.mu.Lock()
		state.inFlight++
		state.mu.Unlock()

		var res Result
		if n.skip {
			res = p.finalize(n.def.Name, p.opts.Clock.Now(), 1, false, nil, KindBusiness, dependencySkipMessage(n.skipCause), false)
		} else {
			if err := sem.Acquire(ctx, 1); err != nil {
				res = p.finalize(n.def.Name, p.opts.Clock.Now(), 1, false, nil, KindTimeout, ctx.Err().Error(), false)
			} else {
				res = p.dispatchOne(ctx, n.def.Name, n.def.Run, n.def.Timeout)
				sem.Release(1)
			}
		}
		state.publish(n.def.Name, res, sink, p.opts.EnableProgressReporting)
		g.onComplete(i, res.Successful, dispatch)
	}

	for _, i := range g.initiallyReady() {
		go dispatch(i)
	}
	wg.Wait()

	out := make([]Result, len(defs))
	for i, d := range defs {
		out[i] = state.results[d.Name]
	}
	return out, nil
}

// depNode is one task in a dependency graph, augmented with the live
// scheduling state DependencyBatch needs beyond what Resolver computes.
type depNode struct {
	def        Definition
	successors []int
	remaining  int // count of not-yet-completed dependencies
	skip       bool
	skipCause  string // name of the predecessor that caused the skip
}

// depGraph is the mutex-guarded dependency graph DependencyBatch walks
// concurrently: each node dispatches as soon as its remaining count hits
// zero, independent of the others (spec.md §4.10 "ready set").
type depGraph struct {
	mu    sync.Mutex
	nodes []depNode
}

func newDepGraph(defs []Definition) *depGraph {
	indexByName := make(map[string]int, len(defs))
	for i, d := range defs {
		indexByName[d.Name] = i
	}
	nodes := make([]depNode, len(defs))
	for i, d := range defs {
		nodes[i] = depNode{def: d}
	}
	for i, d := range defs {
		for _, dep := range d.DependsOn {
			depIdx := indexByName[dep]
			nodes[i].remaining++
			nodes[depIdx].successors = append(nodes[depIdx].successors, i)
		}
	}
	return &depGraph{nodes: nodes}
}

// initiallyReady returns the indices of every node with no dependencies.
func (g *depGraph) initiallyReady() []int {
	var ready []int
	for i, n := range g.nodes {
		if n.remaining == 0 {
			ready = append(ready, i)
		}
	}
	return ready
}

// onComplete records that node i finished (successfully or not) and
// dispatches every successor whose remaining count reaches zero as a
// result, via the supplied dispatch callback run on its own goroutine.
func (g *depGraph) onComplete(i int, succeeded bool, dispatch func(int)) {
	g.mu.Lock()
	var newlyReady []int
	for _, s := range g.nodes[i].successors {
		if !succeeded && !g.nodes[s].skip {
			g.nodes[s].skip = true
			g.nodes[s].skipCause = g.nodes[i].def.Name
		}
		g.nodes[s].remaining--
		if g.nodes[s].remaining == 0 {
			newlyReady = append(newlyReady, s)
		}
	}
	g.mu.Unlock()

	for _, s := range newlyReady {
		go dispatch(s)
	}
}
