package taskexec

import (
	"sync"
	"time"
)

// BreakerPhase is one of Closed/Open/HalfOpen (spec.md §3, §4.3).
type BreakerPhase int

const (
	// PhaseClosed allows all dispatch.
	PhaseClosed BreakerPhase = iota
	// PhaseOpen rejects all dispatch until OpenDuration elapses.
	PhaseOpen
	// PhaseHalfOpen allows a bounded number of probe dispatches.
	PhaseHalfOpen
)

func (p BreakerPhase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker (spec.md §4.3).
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of failures inside TimeWindow that
	// opens the circuit. Must be > 0.
	FailureThreshold int

	// TimeWindow is the rolling interval over which failures are counted
	// (the "failure window"). Must be > 0.
	TimeWindow time.Duration

	// OpenDuration is how long the circuit stays Open before probing.
	// Must be > 0.
	OpenDuration time.Duration

	// HalfOpenLimit is the dispatch budget for one half-open probe cycle.
	// Must be > 0.
	HalfOpenLimit int

	// SuccessThreshold is the cumulative number of half-open successes
	// required to close the circuit. Must be > 0 and ≤ HalfOpenLimit.
	SuccessThreshold int

	// OnStateChange, if set, is called synchronously on every transition.
	OnStateChange func(from, to BreakerPhase)

	// Clock abstracts time.Now for testability. Defaults to the system
	// clock.
	Clock Clock
}

// Validate checks the configuration per spec.md §4.3.
func (c CircuitBreakerConfig) Validate() error {
	if c.FailureThreshold <= 0 || c.TimeWindow <= 0 || c.OpenDuration <= 0 || c.HalfOpenLimit <= 0 || c.SuccessThreshold <= 0 {
		return ErrInvalidOptions
	}
	if c.SuccessThreshold > c.HalfOpenLimit {
		return ErrInvalidOptions
	}
	return nil
}

// CircuitBreaker is a Closed/Open/HalfOpen state machine gating task
// dispatch (spec.md §4.3). One mutex guards both the phase transitions
// and the failure window.
type CircuitBreaker struct {
	cfg   CircuitBreakerConfig
	clock Clock

	mu                 sync.Mutex
	phase              BreakerPhase
	failureWindow      []time.Time
	openedAt           time.Time
	halfOpenDispatched int
	halfOpenSuccesses  int
}

// NewCircuitBreaker validates cfg and returns a CircuitBreaker in the
// Closed phase.
func NewCircuitBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &CircuitBreaker{cfg: cfg, clock: clock, phase: PhaseClosed}, nil
}

// ShouldReject reports whether the next dispatch must be rejected,
// transitioning Open→HalfOpen as a side effect once OpenDuration has
// elapsed (spec.md §4.3 "should_reject()").
func (cb *CircuitBreaker) ShouldReject() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.maybeExpireOpenLocked()

	switch cb.phase {
	case PhaseClosed:
		return false
	case PhaseOpen:
		return true
	case PhaseHalfOpen:
		if cb.halfOpenDispatched >= cb.cfg.HalfOpenLimit {
			// Probe budget spent without reaching SuccessThreshold: re-open
			// rather than rejecting in HalfOpen indefinitely (spec.md §4.3
			// "HalfOpen --(half_open_attempts_used >= half_open_limit AND
			// successes < success_threshold)--> Open").
			if cb.halfOpenSuccesses < cb.cfg.SuccessThreshold {
				cb.transitionLocked(PhaseOpen)
				cb.openedAt = cb.clock.Now()
			}
			return true
		}
		cb.halfOpenDispatched++
		return false
	default:
		return true
	}
}

// RecordSuccess registers a successful dispatch outcome.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.phase {
	case PhaseClosed:
		cb.pruneWindowLocked()
	case PhaseHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.cfg.SuccessThreshold {
			cb.transitionLocked(PhaseClosed)
			cb.failureWindow = nil
		}
	}
}

// RecordFailure registers a failed dispatch outcome.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.clock.Now()

	switch cb.phase {
	case PhaseClosed:
		cb.pruneWindowLocked()
		cb.failureWindow = append(cb.failureWindow, now)
		if len(cb.failureWindow) >= cb.cfg.FailureThreshold {
			cb.transitionLocked(PhaseOpen)
			cb.openedAt = now
		}
	case PhaseHalfOpen:
		cb.transitionLocked(PhaseOpen)
		cb.openedAt = now
	}
}

// Phase returns the current phase, resolving an elapsed Open→HalfOpen
// transition first.
func (cb *CircuitBreaker) Phase() BreakerPhase {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeExpireOpenLocked()
	return cb.phase
}

// Stats is a point-in-time snapshot of breaker state (spec.md §4.3
// "stats()").
type Stats struct {
	Phase          BreakerPhase
	FailureCount   int
	TimeUntilRetry time.Duration
}

// Stats returns a snapshot of the breaker's current state.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeExpireOpenLocked()
	cb.pruneWindowLocked()

	s := Stats{Phase: cb.phase, FailureCount: len(cb.failureWindow)}
	if cb.phase == PhaseOpen {
		remaining := cb.cfg.OpenDuration - cb.clock.Now().Sub(cb.openedAt)
		if remaining > 0 {
			s.TimeUntilRetry = remaining
		}
	}
	return s
}

func (cb *CircuitBreaker) maybeExpireOpenLocked() {
	if cb.phase != PhaseOpen {
		return
	}
	if cb.clock.Now().Sub(cb.openedAt) >= cb.cfg.OpenDuration {
		cb.transitionLocked(PhaseHalfOpen)
		cb.halfOpenDispatched = 0
		cb.halfOpenSuccesses = 0
	}
}

func (cb *CircuitBreaker) pruneWindowLocked() {
	if len(cb.failureWindow) == 0 {
		return
	}
	cutoff := cb.clock.Now().Add(-cb.cfg.TimeWindow)
	i := 0
	for ; i < len(cb.failureWindow); i++ {
		if cb.failureWindow[i].After(cutoff) {
			break
		}
	}
	cb.failureWindow = cb.failureWindow[i:]
}

func (cb *CircuitBreaker) transitionLocked(to BreakerPhase) {
	from := cb.phase
	cb.phase = to
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}
