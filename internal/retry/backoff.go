package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// ExponentialBackoff grows the delay geometrically up to a cap, with optional jitter.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	maxAttempts  int // -1 = unlimited, 0 = no retries

	// jitter of 0.1 means +/- 10%
	jitter     float64
	jitterFunc func() float64
}

// BackoffOption configures an ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.multiplier = m }
}

// WithJitter sets the jitter factor in [0, 1].
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitter = j }
}

// WithJitterFunc replaces the random source; tests use it for determinism.
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitterFunc = f }
}

// NewExponentialBackoff returns a strategy with shpload's connection defaults.
//
//	backoff := retry.NewExponentialBackoff(3,
//	    retry.WithInitialDelay(200*time.Millisecond),
//	    retry.WithJitter(0),
//	)
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: shpload.DefaultRetryInitialDelay,
		maxDelay:     shpload.DefaultRetryMaxDelay,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		jitterFunc:   rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.jitterFunc == nil {
		b.jitterFunc = rand.Float64
	}
	return b
}

// NextDelay returns initialDelay * multiplier^attempt, capped and jittered.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}
	if b.jitter > 0 {
		offset := (b.jitterFunc() - 0.5) * 2.0
		delay *= 1.0 + b.jitter*offset
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// MaxAttempts implements shpload.BackoffStrategy.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}
