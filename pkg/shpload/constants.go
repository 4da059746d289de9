package shpload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // All loads completed
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or load request
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied table replacement
	ExitFormatError     = 20 // Source file unreadable or unsupported
	ExitSchemaError     = 21 // Attribute type cannot be represented
	ExitPermissionError = 22 // Drop/create denied or table exists
	ExitStoreError      = 23 // Connectivity or transient store failure
)

const (
	// DefaultSchema is the target schema when none is given.
	DefaultSchema = "public"

	// DefaultGeometryColumn is the name of the geometry column in loaded tables.
	DefaultGeometryColumn = "geom"

	// KeyColumn is the surrogate primary key added to every loaded table.
	KeyColumn = "gid"

	// UnknownSRID marks coordinates whose spatial reference could not be determined.
	UnknownSRID = 0

	// DefaultBatchSize is the number of inserts queued per pgx batch.
	DefaultBatchSize = 500

	// DefaultPreflightConcurrency bounds concurrent source parsing before a bulk load.
	DefaultPreflightConcurrency = 4

	// MaxIdentifierLength is PostgreSQL's NAMEDATALEN-1.
	MaxIdentifierLength = 63

	// DefaultTimeout guards a whole CLI run against hangs.
	DefaultTimeout = 10 * time.Minute

	// DefaultForceApprovalCountdown is the countdown before forced replacement proceeds.
	DefaultForceApprovalCountdown = 3 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first connection retry.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection retries.
	DefaultRetryMaxDelay = 30 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of connection retries.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the database used when none is resolved.
	DefaultManagementDB = "postgres"

	// ShapefileExtension is the extension scanned for in bulk mode.
	ShapefileExtension = ".shp"
)
