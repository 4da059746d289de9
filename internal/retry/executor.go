package retry

import (
	"context"
	"time"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// Executor repeats an operation while its error is classified transient.
//
// Loads themselves are never retried: a half-written table cannot be
// resumed safely. The executor wraps connection establishment only.
type Executor struct {
	classifier shpload.ErrorClassifier
	strategy   shpload.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier shpload.ErrorClassifier, strategy shpload.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of the executor that calls fn before each wait.
// The receiver is not modified.
func (e *Executor) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = fn
	return &clone
}

// Execute runs op until it succeeds, fails fatally, the attempts are
// exhausted, or ctx is done. It returns the last error seen.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = op(ctx)
	}

	return err
}
