package telemetry

import (
	"fmt"
	"time"
)

// HealthCheckConfig configures Store.HealthCheck (spec.md §3, §4.4).
type HealthCheckConfig struct {
	// MinSuccessRate is the minimum acceptable success rate, as a
	// percentage (0-100), over HealthWindow.
	MinSuccessRate float64

	// MaxAvgExecutionMs is the maximum acceptable average elapsed time,
	// in milliseconds, over HealthWindow.
	MaxAvgExecutionMs float64

	// HealthWindow restricts evaluation to records no older than this
	// duration before now. Zero means "all records".
	HealthWindow time.Duration

	// CircuitOpen, if set, is consulted so an open breaker fails the
	// check even when the success-rate/latency criteria pass. Accepting
	// a closure (rather than a *taskexec.CircuitBreaker) keeps this
	// package free of a dependency on taskexec.
	CircuitOpen func() bool

	// CustomPredicates are evaluated last, each against the same
	// snapshot-derived Summary; the first failing predicate's label
	// names the health message.
	CustomPredicates []Predicate
}

// Predicate is one named custom health-check rule.
type Predicate struct {
	Label string
	Check func(Summary) bool
}

// HealthResult is the outcome of Store.HealthCheck.
type HealthResult struct {
	Healthy bool
	Message string
	Summary Summary
}

// HealthCheck evaluates cfg against records within HealthWindow (spec.md
// §4.4): healthy iff success_rate ≥ MinSuccessRate AND avg_execution_ms ≤
// MaxAvgExecutionMs AND (no CircuitOpen or it reports false) AND every
// custom predicate passes. A zero MaxAvgExecutionMs disables the latency
// criterion, and the success-rate and latency criteria are skipped when no
// record falls inside the window. The message names the first failing
// criterion.
func (s *Store) HealthCheck(now time.Time, cfg HealthCheckConfig) HealthResult {
	snapshot := s.Snapshot()
	if cfg.HealthWindow > 0 {
		cutoff := now.Add(-cfg.HealthWindow)
		windowed := snapshot[:0:0]
		for _, r := range snapshot {
			if r.Timestamp.After(cutoff) {
				windowed = append(windowed, r)
			}
		}
		snapshot = windowed
	}

	summary := Summarize(snapshot, s.detailed)

	if summary.Total > 0 && summary.SuccessRate < cfg.MinSuccessRate {
		return HealthResult{
			Healthy: false,
			Message: fmt.Sprintf("success rate %.2f%% below minimum %.2f%%", summary.SuccessRate, cfg.MinSuccessRate),
			Summary: summary,
		}
	}
	if summary.Total > 0 && cfg.MaxAvgExecutionMs > 0 && summary.AvgElapsedMs > cfg.MaxAvgExecutionMs {
		return HealthResult{
			Healthy: false,
			Message: fmt.Sprintf("average execution time %.2fms exceeds maximum %.2fms", summary.AvgElapsedMs, cfg.MaxAvgExecutionMs),
			Summary: summary,
		}
	}
	if cfg.CircuitOpen != nil && cfg.CircuitOpen() {
		return HealthResult{Healthy: false, Message: "circuit breaker is open", Summary: summary}
	}
	for _, pred := range cfg.CustomPredicates {
		if !pred.Check(summary) {
			return HealthResult{Healthy: false, Message: fmt.Sprintf("custom predicate %q failed", pred.Label), Summary: summary}
		}
	}

	return HealthResult{Healthy: true, Message: "all checks passed", Summary: summary}
}
