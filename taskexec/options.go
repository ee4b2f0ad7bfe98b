package taskexec

import (
	"runtime"
	"time"

	"github.com/taskmesh/batchkit/telemetry"
)

// SchedulingStrategy selects how a batch's dispatch order is chosen
// (spec.md §4.8.2, §6).
type SchedulingStrategy int

const (
	// StrategyFIFO dispatches in map/slice insertion order (the default).
	StrategyFIFO SchedulingStrategy = iota
	// StrategyPriority dispatches higher-Priority definitions first.
	StrategyPriority
	// StrategyDependencyTopological names the order DependencyBatch always
	// uses, whatever Scheduling says; Batch and Stream dispatch in FIFO
	// order when it is selected.
	StrategyDependencyTopological
)

// Options configures a Processor (spec.md §4.11, §6). Options are
// consumed once at construction; mutating a copy after NewProcessor has
// no effect on the running Processor.
type Options struct {
	// MaxConcurrency bounds simultaneous in-flight tasks. Must be > 0.
	// Defaults to 2x the logical CPU count (spec.md §5).
	MaxConcurrency int

	// DefaultTaskTimeout is applied to any Definition that does not set
	// its own Timeout. Must be > 0.
	DefaultTaskTimeout time.Duration

	// ContinueOnTaskFailure controls failure isolation in Batch (spec.md
	// §4.8.5). It is not defaulted: the zero value false makes Batch stop at
	// its first failed Result, so isolation requires setting it to true.
	// Stream and DependencyBatch do not consult it.
	ContinueOnTaskFailure bool

	// EnableDetailedTelemetry turns on percentile computation in
	// telemetry summaries.
	EnableDetailedTelemetry bool

	// EnableProgressReporting allows a ProgressSink passed to Batch/
	// Stream/DependencyBatch to actually be invoked; when false, sinks
	// are ignored.
	EnableProgressReporting bool

	// Scheduling selects dispatch order for Batch (spec.md §4.8.2).
	Scheduling SchedulingStrategy

	// Retry configures the RetryPolicy applied by every task.
	Retry RetryConfig

	// CircuitBreaker configures the breaker gating every task. Nil means
	// no breaker: tasks are never rejected on that basis.
	CircuitBreaker *CircuitBreakerConfig

	// Health is kept with the options but is not read by the Processor:
	// Processor.HealthCheck evaluates only the config passed to it.
	Health telemetry.HealthCheckConfig

	// Exporters are registered at construction (spec.md §6 "Register a
	// telemetry exporter at construction").
	Exporters []telemetry.Exporter

	// Clock and Rand are injected collaborators for testability (spec.md
	// §6). Both default to system implementations.
	Clock Clock
	Rand  RandSource

	// Logger receives diagnostic messages; defaults to a no-op logger.
	Logger Logger
}

// withDefaults returns a copy of o with zero-valued fields replaced by
// defaults, per spec.md §4.11.
func (o Options) withDefaults() Options {
	if o.MaxConcurrency == 0 {
		o.MaxConcurrency = 2 * runtime.NumCPU()
	}
	if o.DefaultTaskTimeout == 0 {
		o.DefaultTaskTimeout = 30 * time.Second
	}
	if o.Clock == nil {
		o.Clock = systemClock{}
	}
	if o.Rand == nil {
		o.Rand = systemRand{}
	}
	if o.Logger == nil {
		o.Logger = noopLogger{}
	}
	return o
}

// Validate checks MaxConcurrency (> 0), DefaultTaskTimeout (> 0), the
// Scheduling value, the Retry block (via NewRetryPolicy) and, when set,
// the CircuitBreaker block. The remaining fields are not validated.
func (o Options) Validate() error {
	if o.MaxConcurrency <= 0 {
		return ErrInvalidOptions
	}
	if o.DefaultTaskTimeout <= 0 {
		return ErrInvalidOptions
	}
	if o.Scheduling < StrategyFIFO || o.Scheduling > StrategyDependencyTopological {
		return ErrInvalidOptions
	}
	if _, err := NewRetryPolicy(o.Retry); err != nil {
		return err
	}
	if o.CircuitBreaker != nil {
		if err := o.CircuitBreaker.Validate(); err != nil {
			return err
		}
	}
	return nil
}
