package taskexec

import "errors"

// Sentinel errors for construction-time validation failures (spec.md §7
// "Construction errors"). These are always returned synchronously, never
// encoded as a Result.
var (
	// ErrEmptyBatch is returned when Batch/Stream is called with no units.
	ErrEmptyBatch = errors.New("taskexec: batch is empty")

	// ErrNilFactory is returned when a task definition carries a nil factory.
	ErrNilFactory = errors.New("taskexec: nil factory")

	// ErrDuplicateName is returned when two task definitions share a name.
	ErrDuplicateName = errors.New("taskexec: duplicate task name")

	// ErrCyclicDependency is returned by the resolver when the dependency
	// graph contains a cycle.
	ErrCyclicDependency = errors.New("taskexec: cyclic dependency")

	// ErrMissingDependency is returned when a task names a dependency that
	// does not appear in the batch.
	ErrMissingDependency = errors.New("taskexec: missing dependency")

	// ErrInvalidOptions is returned by Options.Validate for out-of-range
	// configuration.
	ErrInvalidOptions = errors.New("taskexec: invalid options")
)

// circuitOpenMessage is the human-readable message attached to a Result
// rejected by the circuit breaker (spec.md §4.7 step 1).
const circuitOpenMessage = "circuit open"

// dependencySkipMessage formats the message for a task skipped because a
// predecessor failed (spec.md §4.10 step 3).
func dependencySkipMessage(failedPredecessor string) string {
	return "dependency failed: " + failedPredecessor
}
