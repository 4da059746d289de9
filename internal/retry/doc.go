// Package retry retries connection establishment with exponential backoff.
//
//	executor := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(shpload.DefaultRetryMaxAttempts),
//	)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
//
// Load statements are not retried; callers get the first store failure.
package retry
