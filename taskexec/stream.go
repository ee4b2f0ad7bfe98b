package taskexec

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Stream dispatches every definition in defs with the same bounded
// concurrency and scheduling as Batch, but delivers each Result over the
// returned channel as soon as it completes, in completion order rather
// than submission order (spec.md §4.9). The channel is closed once every
// result has been delivered or ctx is cancelled.
//
// Consumers that stop reading before the channel closes must cancel ctx
// themselves; Stream does not drain on their behalf.
func (p *Processor) Stream(ctx context.Context, defs []Definition, sink ProgressSink) (<-chan Result, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := validateDefs(defs); err != nil {
		return nil, err
	}
	ordered := p.order(defs)

	runID := newRunID()
	sem := semaphore.NewWeighted(int64(p.opts.MaxConcurrency))
	out := make(chan Result, len(ordered))

	state := &batchState{
		runID:   runID,
		total:   len(ordered),
		results: make(map[string]Result, len(ordered)),
	}

	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(out)
		}()

		for i, def := range ordered {
			def := def
			if err := sem.Acquire(ctx, 1); err != nil {
				// Cancellation fired before dispatch of the remainder:
				// publish each as a Timeout result rather than dropping it
				// silently (spec.md §8 "Cancellation fired before dispatch
				// of some tasks").
				for _, undispatched := range ordered[i:] {
					state.mu.Lock()
					state.inFlight++
					state.mu.Unlock()
					res := p.finalize(undispatched.Name, p.opts.Clock.Now(), 1, false, nil, KindTimeout, ctx.Err().Error(), false)
					state.publish(undispatched.Name, res, sink, p.opts.EnableProgressReporting)
					select {
					case out <- res:
					case <-ctx.Done():
					}
				}
				return
			}
			state.mu.Lock()
			state.inFlight++
			state.mu.Unlock()

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)

				res := p.dispatchOne(ctx, def.Name, def.Run, def.Timeout)
				state.publish(def.Name, res, sink, p.opts.EnableProgressReporting)

				select {
				case out <- res:
				case <-ctx.Done():
				}
			}()
		}
	}()

	return out, nil
}
