package taskexec

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackoffStrategy selects how RetryPolicy.Delay grows between attempts
// (spec.md §4.2).
type BackoffStrategy int

const (
	// StrategyFixed always waits BaseDelay.
	StrategyFixed BackoffStrategy = iota
	// StrategyLinear waits BaseDelay * attempt.
	StrategyLinear
	// StrategyExponential waits BaseDelay * Multiplier^(attempt-1).
	StrategyExponential
	// StrategyExponentialJitter is StrategyExponential plus a uniform
	// random term in [0, JitterFactor * magnitude).
	StrategyExponentialJitter
)

// RetryConfig configures a RetryPolicy (spec.md §4.2).
type RetryConfig struct {
	// MaxAttempts is the number of retries allowed after the initial try
	// (so total attempts ≤ MaxAttempts+1). Must be ≥ 0.
	MaxAttempts int

	// BaseDelay is the unit every strategy scales (see BackoffStrategy).
	// Must be ≥ 0.
	BaseDelay time.Duration

	// MaxDelay caps every computed delay. Must be ≥ BaseDelay.
	MaxDelay time.Duration

	// Strategy selects the growth curve.
	Strategy BackoffStrategy

	// Multiplier is used by the exponential strategies. Must be ≥ 0; zero
	// is not rejected but replaced by 2.0.
	Multiplier float64

	// JitterFactor scales the random term for StrategyExponentialJitter.
	// Must be in [0, 1].
	JitterFactor float64

	// ShouldRetry additionally gates retry on the raw error. Defaults to
	// always true.
	ShouldRetry func(err error, attempt int) bool

	// ShouldRetryKind additionally gates retry on the classified kind.
	// Defaults to ErrorKind.Retryable.
	ShouldRetryKind func(kind ErrorKind, attempt int) bool
}

// RetryPolicy decides, for a given attempt and error, whether to retry and
// how long to wait first. RetryPolicy is immutable and pure after
// construction: Delay is a function of attempt number alone, never of
// call order, so it is safe to share a single RetryPolicy across
// concurrently executing tasks (spec.md §5 "Retry policy ... pure").
type RetryPolicy struct {
	cfg RetryConfig
}

// NewRetryPolicy validates cfg and returns a RetryPolicy.
func NewRetryPolicy(cfg RetryConfig) (*RetryPolicy, error) {
	if cfg.MaxAttempts < 0 {
		return nil, ErrInvalidOptions
	}
	if cfg.BaseDelay < 0 {
		return nil, ErrInvalidOptions
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		return nil, ErrInvalidOptions
	}
	if cfg.Multiplier < 0 {
		return nil, ErrInvalidOptions
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFactor < 0 || cfg.JitterFactor > 1 {
		return nil, ErrInvalidOptions
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = func(err error, attempt int) bool { return true }
	}
	if cfg.ShouldRetryKind == nil {
		cfg.ShouldRetryKind = func(kind ErrorKind, attempt int) bool { return kind.Retryable() }
	}
	return &RetryPolicy{cfg: cfg}, nil
}

// Config returns a copy of the policy's configuration.
func (p *RetryPolicy) Config() RetryConfig { return p.cfg }

// ShouldRetry reports whether attempt should be retried given err and its
// classification, per spec.md §4.2: "A retry happens iff BOTH predicates
// return true AND attempt ≤ max_attempts."
func (p *RetryPolicy) ShouldRetry(err error, kind ErrorKind, attempt int) bool {
	if attempt > p.cfg.MaxAttempts {
		return false
	}
	return p.cfg.ShouldRetry(err, attempt) && p.cfg.ShouldRetryKind(kind, attempt)
}

// Delay returns the wait before attempt n (n ≥ 2); attempt 1 always has
// zero delay (spec.md §4.2). Delay is a pure function of n: calling it
// repeatedly with the same n returns the same magnitude (modulo the
// independent jitter draw for StrategyExponentialJitter).
func (p *RetryPolicy) Delay(n int, rnd RandSource) time.Duration {
	if n <= 1 {
		return 0
	}
	if rnd == nil {
		rnd = systemRand{}
	}

	var d time.Duration
	switch p.cfg.Strategy {
	case StrategyFixed:
		d = p.cfg.BaseDelay

	case StrategyLinear:
		d = p.cfg.BaseDelay * time.Duration(n)

	case StrategyExponential:
		d = exponentialMagnitude(p.cfg.BaseDelay, p.cfg.Multiplier, p.cfg.MaxDelay, n)

	case StrategyExponentialJitter:
		magnitude := exponentialMagnitude(p.cfg.BaseDelay, p.cfg.Multiplier, p.cfg.MaxDelay, n)
		jitter := time.Duration(rnd.Float64() * p.cfg.JitterFactor * float64(magnitude))
		d = magnitude + jitter
	}

	if d > p.cfg.MaxDelay {
		d = p.cfg.MaxDelay
	}
	if d < 0 {
		d = 0
	}
	return d
}

// exponentialMagnitude computes base*multiplier^(n-1), delegating the
// deterministic growth curve to backoff.ExponentialBackOff with
// randomization disabled so the result matches spec.md's formula exactly;
// jitter (when wanted) is layered on afterwards by the caller using the
// injected RandSource rather than the library's own per-step
// randomization, which compounds across calls instead of drawing once
// against the final magnitude as spec.md §4.2 requires.
func exponentialMagnitude(base time.Duration, multiplier float64, maxDelay time.Duration, n int) time.Duration {
	eb := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(base),
		backoff.WithMultiplier(multiplier),
		backoff.WithMaxInterval(maxDelay),
		backoff.WithRandomizationFactor(0),
	)

	var d time.Duration
	for i := 0; i < n; i++ {
		next := eb.NextBackOff()
		if next == backoff.Stop {
			return maxDelay
		}
		d = next
	}
	return d
}

// Preset retry policies, grounded on the Default/Aggressive/Conservative
// preset functions common across the retrieval pack's retry packages,
// adapted to this spec's five named presets.

// PresetNone retries never.
func PresetNone() RetryConfig {
	return RetryConfig{MaxAttempts: 0, Strategy: StrategyFixed}
}

// PresetSimple retries up to twice with a short fixed delay.
func PresetSimple() RetryConfig {
	return RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    time.Second,
		Strategy:    StrategyFixed,
	}
}

// PresetNetwork retries aggressively with jittered exponential backoff,
// suited to flaky network calls.
func PresetNetwork() RetryConfig {
	return RetryConfig{
		MaxAttempts:  4,
		BaseDelay:    50 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.5,
		Strategy:     StrategyExponentialJitter,
	}
}

// PresetCritical retries persistently for operations that must not give
// up early.
func PresetCritical() RetryConfig {
	return RetryConfig{
		MaxAttempts:  8,
		BaseDelay:    200 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.25,
		Strategy:     StrategyExponentialJitter,
	}
}

// PresetDatabase retries with linear backoff, suited to transient
// connection-pool exhaustion.
func PresetDatabase() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   25 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Strategy:    StrategyLinear,
	}
}
