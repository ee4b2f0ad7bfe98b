package taskexec

import (
	"context"
	"time"

	"github.com/taskmesh/batchkit/telemetry"
)

// dispatchOne runs one task to completion, applying circuit-breaker
// gating, timeout/cancellation, retry, and telemetry capture (spec.md
// §4.7). It never panics and never returns an error: exactly one Result
// and one telemetry Record are produced per call.
func (p *Processor) dispatchOne(parentCtx context.Context, name string, factory Factory, timeout time.Duration) Result {
	started := p.opts.Clock.Now()

	if p.breaker != nil && p.breaker.ShouldReject() {
		return p.finalize(name, started, 1, false, nil, KindSystem, circuitOpenMessage, false)
	}

	attempt := 1
	for {
		select {
		case <-parentCtx.Done():
			return p.finalize(name, started, attempt, false, nil, KindTimeout, parentCtx.Err().Error(), false)
		default:
		}

		childCtx, cancel := context.WithTimeout(parentCtx, p.timeoutFor(timeout))
		value, err := invoke(childCtx, factory)
		deadlineExceeded := childCtx.Err() == context.DeadlineExceeded
		cancel()

		if err == nil {
			if deadlineExceeded {
				// The body returned a value, but only after its deadline
				// elapsed: recorded as Timeout regardless of outcome
				// (see DESIGN.md, Open Question 3).
				if p.breaker != nil {
					p.breaker.RecordFailure()
				}
				return p.finalize(name, started, attempt, false, nil, KindTimeout, context.DeadlineExceeded.Error(), false)
			}
			if p.breaker != nil {
				p.breaker.RecordSuccess()
			}
			return p.finalize(name, started, attempt, true, value, KindUnknown, "", false)
		}

		kind := Classify(childCtx, err)
		if deadlineExceeded {
			kind = KindTimeout
		}
		retryable := kind.Retryable()

		if p.retry.ShouldRetry(err, kind, attempt) {
			delay := p.retry.Delay(attempt+1, p.opts.Rand)
			select {
			case <-parentCtx.Done():
				if p.breaker != nil {
					p.breaker.RecordFailure()
				}
				return p.finalize(name, started, attempt, false, nil, KindTimeout, parentCtx.Err().Error(), retryable)
			case <-time.After(delay):
			}
			attempt++
			continue
		}

		if p.breaker != nil {
			p.breaker.RecordFailure()
		}
		return p.finalize(name, started, attempt, false, nil, kind, err.Error(), retryable)
	}
}

// invoke calls factory, converting a panic into a System-classified
// error instead of crashing the caller's goroutine (SPEC_FULL.md §5
// "Panic isolation in C7").
func invoke(ctx context.Context, factory Factory) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return factory(ctx)
}

// finalize builds the Result, appends its telemetry Record, and returns
// the Result to the caller. It is the single exit point for
// dispatchOne, guaranteeing exactly one Result/Record pair per
// invocation (spec.md §7 "every submitted unit eventually has exactly
// one result record").
func (p *Processor) finalize(name string, started time.Time, attempt int, successful bool, data any, kind ErrorKind, message string, retryable bool) Result {
	now := p.opts.Clock.Now()
	elapsed := now.Sub(started)

	res := Result{
		Name:          name,
		Successful:    successful,
		Data:          data,
		Attempt:       attempt,
		StartedAt:     started,
		ExecutionTime: elapsed,
	}
	if !successful {
		res.Kind = kind
		res.Message = message
		res.Retryable = retryable
	}

	rec := telemetry.Record{
		Name:       name,
		ElapsedMs:  float64(elapsed.Microseconds()) / 1000.0,
		Successful: successful,
		Timestamp:  now,
	}
	if !successful {
		rec.ErrorKind = kind.String()
		rec.ErrorMessage = message
	}
	p.store.Append(rec)

	return res
}
