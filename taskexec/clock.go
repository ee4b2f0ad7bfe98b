package taskexec

import (
	"math/rand/v2"
	"time"
)

// Clock abstracts wall-clock access so telemetry timestamps, breaker
// windows, and retry delays can be driven by a fake clock in tests
// (spec.md §6: "A clock source ... injected for testability").
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock, backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// RandSource abstracts the single float64 draw used for jitter (spec.md
// §6: "A random source ... injected").
type RandSource interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64
}

// systemRand is the default RandSource, backed by math/rand/v2.
type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }
