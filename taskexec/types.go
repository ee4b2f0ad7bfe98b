package taskexec

import (
	"context"
	"time"
)

// Factory is a cancellation-aware producer of a single value (spec.md §3
// "Work unit factory"). Implementations should be idempotent enough to be
// safely re-run by the retry policy; the core makes no stronger guarantee.
type Factory func(ctx context.Context) (any, error)

// Definition describes one task in a dependency-aware batch (spec.md §3
// "Task definition").
type Definition struct {
	// Name must be non-empty and unique within a batch.
	Name string

	// Run is the work-unit factory.
	Run Factory

	// DependsOn is the set of names that must have succeeded before this
	// task may dispatch. May be empty.
	DependsOn []string

	// Priority orders Resolver.Resolve's output among tasks whose
	// dependencies are satisfied at the same point, and Batch/Stream
	// dispatch under StrategyPriority; higher comes first. DependencyBatch
	// does not consult it: tasks that become ready together compete for the
	// concurrency gate in no defined order.
	Priority int

	// Timeout overrides the batch/processor default for this task alone.
	// Zero means "use the default".
	Timeout time.Duration
}

// Result is the outcome of one dispatched task (spec.md §3 "Task
// result"). Once published it is never mutated.
type Result struct {
	Name string

	// Successful reports whether the task produced a value.
	Successful bool

	// Data is present iff Successful.
	Data any

	// Kind is present iff !Successful.
	Kind ErrorKind

	// Message is present iff !Successful.
	Message string

	// Retryable is the default retryability (ErrorKind.Retryable) of the
	// last error classified from the factory, not the RetryPolicy's
	// decision. It is false when the failure was not classified from a
	// factory error (circuit-open rejection, dependency skip, cancellation
	// before dispatch, or a value returned after the deadline).
	Retryable bool

	// Attempt is the 1-based count of the final attempt.
	Attempt int

	StartedAt     time.Time
	ExecutionTime time.Duration

	// Metadata is an open name→value mapping a factory or middleware may
	// attach; nil unless set.
	Metadata map[string]any
}

// Progress is a point-in-time snapshot of batch completion (spec.md §3).
type Progress struct {
	Total       int
	Completed   int
	Successful  int
	Failed      int
	InFlight    int
	CurrentName string

	// RunID correlates every Progress snapshot emitted during one Batch,
	// Stream, or DependencyBatch call.
	RunID string
}

// ProgressSink receives a Progress snapshot after every task completion.
// The processor invokes it with at most one goroutine at a time and with
// non-decreasing Completed values (spec.md §4.8.4).
type ProgressSink func(Progress)
