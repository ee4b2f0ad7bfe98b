package taskexec

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmesh/batchkit/telemetry"
)

// Processor owns one telemetry store, one circuit breaker (optional),
// and the configuration needed to dispatch batches, streams, and
// dependency-ordered batches of tasks (spec.md §3 "Ownership"). A
// Processor's telemetry store, circuit breaker, and result bookkeeping
// belong to it exclusively; it never shares them with another Processor.
type Processor struct {
	opts    Options
	retry   *RetryPolicy
	breaker *CircuitBreaker // nil when Options.CircuitBreaker is nil
	store   *telemetry.Store
	export  telemetry.Exporter // nil when no exporters are registered
}

// NewProcessor validates opts and returns a ready Processor.
func NewProcessor(opts Options) (*Processor, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	retry, err := NewRetryPolicy(opts.Retry)
	if err != nil {
		return nil, err
	}

	var breaker *CircuitBreaker
	if opts.CircuitBreaker != nil {
		cfg := *opts.CircuitBreaker
		cfg.Clock = opts.Clock
		breaker, err = NewCircuitBreaker(cfg)
		if err != nil {
			return nil, err
		}
	}

	var exporter telemetry.Exporter
	if len(opts.Exporters) > 0 {
		exporter = telemetry.NewCompositeExporter("processor", opts.Exporters...)
	}

	return &Processor{
		opts:    opts,
		retry:   retry,
		breaker: breaker,
		store:   telemetry.NewStore(opts.EnableDetailedTelemetry),
		export:  exporter,
	}, nil
}

// TelemetrySnapshot returns every telemetry record appended so far.
func (p *Processor) TelemetrySnapshot() []telemetry.Record {
	return p.store.Snapshot()
}

// TelemetrySummary computes the current summary over the telemetry
// store.
func (p *Processor) TelemetrySummary() telemetry.Summary {
	return p.store.Summary()
}

// HealthCheck evaluates cfg against the processor's telemetry store and
// circuit breaker (spec.md §4.4).
func (p *Processor) HealthCheck(cfg telemetry.HealthCheckConfig) telemetry.HealthResult {
	if cfg.CircuitOpen == nil && p.breaker != nil {
		cfg.CircuitOpen = func() bool { return p.breaker.Phase() == PhaseOpen }
	}
	return p.store.HealthCheck(p.opts.Clock.Now(), cfg)
}

// ExportTelemetry pushes every record currently in the store to the
// registered exporters (spec.md §4.5, §6 "Trigger telemetry export on
// demand"). It is a no-op when no exporters were registered.
func (p *Processor) ExportTelemetry(ctx context.Context) error {
	if p.export == nil {
		return nil
	}
	return p.export.Export(ctx, p.store.Snapshot())
}

// BreakerStats exposes the current circuit-breaker snapshot; the zero
// value (Phase Closed, no window) is returned when no breaker is
// configured.
func (p *Processor) BreakerStats() Stats {
	if p.breaker == nil {
		return Stats{Phase: PhaseClosed}
	}
	return p.breaker.Stats()
}

// newRunID mints a correlation id for one Batch/Stream/DependencyBatch
// call (see SPEC_FULL.md §5 "Progress snapshots carry a RunID").
func newRunID() string {
	return uuid.NewString()
}

// timeoutFor resolves the effective per-task timeout: the Definition's
// own Timeout if set, else the processor default.
func (p *Processor) timeoutFor(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return p.opts.DefaultTaskTimeout
}
