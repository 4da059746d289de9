package shpload

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector establishes database connections.
// Implementations handle the various authentication methods
// (standard credentials, certificates, cloud IAM).
type Connector interface {
	// Connect establishes a connection pool to the database.
	// The returned pool should be closed by the caller when done.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// Approver asks for confirmation before existing tables are dropped.
//
// Implementations:
//   - ForcedApprover: shows a countdown and approves
//   - InteractiveApprover: prompts the user to type "yes"
type Approver interface {
	// RequestApproval returns true if the listed tables may be dropped and recreated.
	RequestApproval(ctx context.Context, tables []TableName) (bool, error)
}

// BulkLoader loads shapefiles into tables on one session.
type BulkLoader interface {
	// LoadAll preflights every source, then loads them in order on conn.
	// Results of completed loads are returned even when a later load fails.
	LoadAll(ctx context.Context, conn *pgxpool.Conn, reqs []LoadRequest) ([]LoadResult, error)
}

// HistoryRecorder persists provenance for completed loads.
type HistoryRecorder interface {
	Record(ctx context.Context, result LoadResult, checksum string) error
}

// ErrorClassifier determines whether an error is transient (retryable) or fatal.
type ErrorClassifier interface {
	// IsTransient returns true if the error is temporary and the operation should be retried.
	IsTransient(err error) bool
}

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait before the next attempt.
	// attempt is zero-indexed (0 = first retry, 1 = second retry, etc.)
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the maximum number of retry attempts (0 = no retries, -1 = unlimited)
	MaxAttempts() int
}
