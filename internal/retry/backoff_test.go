package retry

import (
	"testing"
	"time"
)

func TestExponentialBackoff_NextDelay(t *testing.T) {
	b := NewExponentialBackoff(5, WithInitialDelay(100*time.Millisecond), WithMaxDelay(time.Second), WithJitter(0))

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		if got := b.NextDelay(tt.attempt); got != tt.want {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	high := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 1.0 }))
	low := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 0.0 }))

	if got := high.NextDelay(0); got != 1100*time.Millisecond {
		t.Errorf("high jitter = %v, want 1.1s", got)
	}
	if got := low.NextDelay(0); got != 900*time.Millisecond {
		t.Errorf("low jitter = %v, want 900ms", got)
	}
}

func TestExponentialBackoff_Multiplier(t *testing.T) {
	b := NewExponentialBackoff(3, WithInitialDelay(10*time.Millisecond), WithMultiplier(3), WithJitter(0))
	if got := b.NextDelay(2); got != 90*time.Millisecond {
		t.Errorf("NextDelay(2) = %v, want 90ms", got)
	}
	if b.MaxAttempts() != 3 {
		t.Errorf("MaxAttempts() = %d", b.MaxAttempts())
	}
}
