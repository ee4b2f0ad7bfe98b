package taskexec

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Batch dispatches every definition in defs with bounded concurrency
// (spec.md §4.8). Dispatch order follows Options.Scheduling: FIFO
// preserves defs' order, Priority sorts by descending Definition.Priority
// (ties keep defs' order). DependsOn is ignored; use DependencyBatch for
// dependency-aware scheduling.
//
// When ContinueOnTaskFailure is false, the first failed Result stops
// further dispatch: every task not yet dispatched publishes a Timeout
// Result without running, and tasks already in flight see their context
// cancelled (spec.md §4.8.5).
func (p *Processor) Batch(ctx context.Context, defs []Definition, sink ProgressSink) (map[string]Result, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := validateDefs(defs); err != nil {
		return nil, err
	}
	ordered := p.order(defs)

	runID := newRunID()
	sem := semaphore.NewWeighted(int64(p.opts.MaxConcurrency))
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	grp, gctx := errgroup.WithContext(cctx)

	total := len(ordered)
	state := &batchState{
		runID:   runID,
		total:   total,
		results: make(map[string]Result, total),
	}

	for i, def := range ordered {
		def := def
		if err := sem.Acquire(gctx, 1); err != nil {
			// Cancellation fired before dispatch of the remainder: publish
			// each as a Timeout result rather than dropping it silently
			// (spec.md §8 "Cancellation fired before dispatch of some
			// tasks").
			for _, undispatched := range ordered[i:] {
				state.mu.Lock()
				state.inFlight++
				state.mu.Unlock()
				res := p.finalize(undispatched.Name, p.opts.Clock.Now(), 1, false, nil, KindTimeout, gctx.Err().Error(), false)
				state.publish(undispatched.Name, res, sink, p.opts.EnableProgressReporting)
			}
			break
		}
		state.mu.Lock()
		state.inFlight++
		state.mu.Unlock()

		grp.Go(func() error {
			defer sem.Release(1)

			res := p.dispatchOne(gctx, def.Name, def.Run, def.Timeout)
			state.publish(def.Name, res, sink, p.opts.EnableProgressReporting)

			if !res.Successful && !p.opts.ContinueOnTaskFailure {
				// Cancel before the deferred Release wakes the dispatch
				// loop, so no further task is dispatched after this one.
				cancel()
				return &taskFailureError{name: def.Name, message: res.Message}
			}
			return nil
		})
	}

	err := grp.Wait()
	if _, ok := err.(*taskFailureError); ok {
		// Failure isolation is reported via Result, not the error return
		// (spec.md §4.8.5): the error only cancelled not-yet-dispatched
		// work, it does not itself propagate to the caller.
		err = nil
	}
	return state.results, err
}

// batchState is the mutex-guarded bookkeeping shared by every worker
// goroutine in one Batch/DependencyBatch call.
type batchState struct {
	runID string
	total int

	mu         sync.Mutex
	results    map[string]Result
	inFlight   int
	completed  int
	successful int
	failed     int
}

// publish records res and, if reportProgress, invokes sink with the
// resulting snapshot. The sink call happens while s.mu is still held so
// snapshots are delivered to at most one goroutine at a time and strictly
// in non-decreasing Completed order (spec.md §4.8.4).
func (s *batchState) publish(name string, res Result, sink ProgressSink, reportProgress bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[name] = res
	s.inFlight--
	s.completed++
	if res.Successful {
		s.successful++
	} else {
		s.failed++
	}

	if sink != nil && reportProgress {
		sink(Progress{
			Total:       s.total,
			Completed:   s.completed,
			Successful:  s.successful,
			Failed:      s.failed,
			InFlight:    s.inFlight,
			CurrentName: name,
			RunID:       s.runID,
		})
	}
}

// order returns defs arranged per Scheduling (FIFO is defs' own order).
func (p *Processor) order(defs []Definition) []Definition {
	if p.opts.Scheduling != StrategyPriority {
		return defs
	}
	ordered := make([]Definition, len(defs))
	copy(ordered, defs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return ordered
}

// validateDefs checks defs before any dispatch begins: every name must
// be unique and every factory non-nil (spec.md §7 "Construction errors").
func validateDefs(defs []Definition) error {
	seen := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		if d.Run == nil {
			return ErrNilFactory
		}
		if _, ok := seen[d.Name]; ok {
			return ErrDuplicateName
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

// taskFailureError carries the name of the task whose failure triggered
// cancellation under !ContinueOnTaskFailure; it is swallowed by Batch and
// never surfaces to callers, who instead read the failed Result.
type taskFailureError struct {
	name    string
	message string
}

func (e *taskFailureError) Error() string {
	return "task " + e.name + " failed: " + e.message
}
