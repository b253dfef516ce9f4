// Package algorithms provides retry backoff strategies for chunk processing.
//
// Three flavors are offered: plain exponential growth, exponential with
// random jitter, and AWS-style decorrelated jitter. All implement the
// Strategy interface and are selected through NewStrategy.
package algorithms

import (
	"math/rand"
	"sync"
	"time"
)

// maxShift caps the attempt number used in exponential delay calculation
// so the bit shift cannot overflow int64.
const maxShift = 62

// Strategy calculates the delay before each retry attempt.
type Strategy interface {
	// NextDelay returns the wait before the next retry. attempt is
	// 0-indexed: 0 means the delay after the first failure. lastErr is
	// available for error-aware strategies and may be nil.
	NextDelay(attempt int, lastErr error) time.Duration

	// Reset clears internal state for stateful strategies. Stateless
	// strategies treat it as a no-op.
	Reset()
}

// Kind selects a backoff strategy.
type Kind int

const (
	// Exponential doubles the delay on every attempt: initial * 2^attempt.
	Exponential Kind = iota
	// Jittered applies exponential growth with a random factor to avoid
	// synchronized retries across chunks.
	Jittered
	// Decorrelated picks each delay at random between the initial delay
	// and three times the previous delay, capped at the maximum.
	Decorrelated
)

// NewStrategy builds a Strategy of the given kind. jitterFactor is only
// used by the Jittered kind and is clamped to [0, 1].
func NewStrategy(kind Kind, initial, maxDelay time.Duration, jitterFactor float64) Strategy {
	switch kind {
	case Jittered:
		return &jittered{
			initial: initial,
			max:     maxDelay,
			factor:  clampFloat(jitterFactor, 0, 1),
			rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- crypto rand not needed for backoff jitter
		}
	case Decorrelated:
		return &decorrelated{
			initial: initial,
			max:     maxDelay,
			prev:    initial,
			rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- crypto rand not needed for backoff jitter
		}
	default:
		return exponential{initial: initial, max: maxDelay}
	}
}

type exponential struct {
	initial time.Duration
	max     time.Duration
}

func (e exponential) NextDelay(attempt int, _ error) time.Duration {
	return expDelay(attempt, e.initial, e.max)
}

func (e exponential) Reset() {}

type jittered struct {
	initial time.Duration
	max     time.Duration
	factor  float64
	rng     *rand.Rand
	mu      sync.Mutex
}

func (j *jittered) NextDelay(attempt int, _ error) time.Duration {
	if attempt < 0 {
		return 0
	}
	base := expDelay(attempt, j.initial, j.max)

	j.mu.Lock()
	mult := 1.0 + (j.rng.Float64()*2-1)*j.factor
	j.mu.Unlock()

	d := time.Duration(float64(base) * mult)
	if d < 0 {
		return 0
	}
	if d > j.max {
		return j.max
	}
	return d
}

func (j *jittered) Reset() {}

// decorrelated implements the decorrelated jitter scheme described in the
// AWS architecture blog ("Exponential Backoff And Jitter", Brooker 2015):
// sleep = min(max, random(initial, prev*3)). Each delay depends on the
// previous one rather than the attempt number, which spreads concurrent
// retries apart.
type decorrelated struct {
	initial time.Duration
	max     time.Duration
	prev    time.Duration
	rng     *rand.Rand
	mu      sync.Mutex
}

func (d *decorrelated) NextDelay(attempt int, _ error) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if attempt <= 0 {
		d.prev = d.initial
		return d.initial
	}

	upper := time.Duration(float64(d.prev) * 3)
	if upper > d.max {
		upper = d.max
	}
	span := upper - d.initial
	if span <= 0 {
		d.prev = d.initial
		return d.initial
	}

	delay := d.initial + time.Duration(d.rng.Int63n(int64(span)))
	d.prev = delay
	return delay
}

func (d *decorrelated) Reset() {
	d.mu.Lock()
	d.prev = d.initial
	d.mu.Unlock()
}

func expDelay(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		return 0
	}
	if attempt >= maxShift {
		return maxDelay
	}
	delay := time.Duration(int64(1)<<uint(attempt)) * initial
	if delay > maxDelay || delay < 0 {
		return maxDelay
	}
	return delay
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
