// Package taskexec implements a bounded-concurrency batch executor for
// heterogeneous, named units of asynchronous work.
//
// # Ecosystem Position
//
// taskexec sits between a caller's work definitions and the underlying
// factories that actually do the work:
//
//	┌───────────────────────────────────────────────────────────────────┐
//	│                        Batch Execution Flow                       │
//	├───────────────────────────────────────────────────────────────────┤
//	│                                                                   │
//	│   caller          taskexec                    factory            │
//	│   ┌──────┐      ┌────────────┐              ┌─────────┐          │
//	│   │Batch │─────▶│ Processor  │─────────────▶│  Work   │          │
//	│   │ /    │      │            │              │  Unit   │          │
//	│   │Stream│      │ ┌────────┐ │              └─────────┘          │
//	│   └──────┘      │ │ Gate   │ │                                   │
//	│                 │ ├────────┤ │                                   │
//	│                 │ │Breaker │ │                                   │
//	│                 │ ├────────┤ │                                   │
//	│                 │ │ Retry  │ │                                   │
//	│                 │ ├────────┤ │                                   │
//	│                 │ │Timeout │ │                                   │
//	│                 │ └────────┘ │                                   │
//	│                 └────────────┘                                   │
//	│                        │                                         │
//	│                        ▼                                         │
//	│                  telemetry.Store                                 │
//	│                                                                   │
//	└───────────────────────────────────────────────────────────────────┘
//
// # Components
//
//   - [Classify]: maps a raised error to an [ErrorKind]; [ErrorKind.Retryable]
//     gives that kind's default retryability.
//   - [RetryPolicy]: decides whether to retry and computes backoff delay.
//   - [CircuitBreaker]: Closed/Open/HalfOpen state machine gating dispatch.
//   - [Resolver]: topological ordering over declared task dependencies.
//   - [Processor]: owns a breaker, a telemetry store, and runs [Batch],
//     [Stream], and [DependencyBatch].
//
// # Quick Start
//
//	p, err := taskexec.NewProcessor(taskexec.Options{
//	    MaxConcurrency:     8,
//	    DefaultTaskTimeout: 5 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//
//	results, err := p.Batch(ctx, []taskexec.Definition{
//	    {Name: "fetch-user", Run: fetchUser},
//	    {Name: "fetch-order", Run: fetchOrder},
//	}, nil)
//
// # Thread Safety
//
// A [Processor] is safe for concurrent use by multiple goroutines once
// constructed; its telemetry store and circuit breaker are internally
// synchronized. [RetryPolicy] and [Resolver] are pure and hold no
// mutable state.
package taskexec
