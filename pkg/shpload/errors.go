package shpload

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for load failures and CLI workflows.
// Callers distinguish failure classes with errors.Is().
//
// Example usage:
//
//	_, err := loader.Load(ctx, req)
//	if errors.Is(err, shpload.ErrPermission) {
//	    // drop/create denied, or table exists and replace was not requested
//	}
var (
	// ErrFormat indicates the source file is unreadable or not a supported vector format.
	ErrFormat = errors.New("format error")

	// ErrSchema indicates an attribute field cannot be represented in the target table.
	ErrSchema = errors.New("schema error")

	// ErrPermission indicates the store refused a drop or create.
	ErrPermission = errors.New("permission error")

	// ErrStore indicates a connectivity or transient store failure.
	ErrStore = errors.New("store error")

	// ErrTableExists is returned when the target table exists and neither
	// replace nor append was requested. It is permission-class.
	ErrTableExists = fmt.Errorf("table already exists: %w", ErrPermission)

	// ErrInvalidRequest indicates a load request failed validation.
	ErrInvalidRequest = errors.New("invalid load request")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrApprovalDenied indicates the user denied approval for replacing tables.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ErrorKind classifies a LoadError.
type ErrorKind int

const (
	KindFormat ErrorKind = iota + 1
	KindSchema
	KindPermission
	KindStore
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindFormat:
		return "FormatError"
	case KindSchema:
		return "SchemaError"
	case KindPermission:
		return "PermissionError"
	case KindStore:
		return "StoreError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindFormat:
		return ErrFormat
	case KindSchema:
		return ErrSchema
	case KindPermission:
		return ErrPermission
	case KindStore:
		return ErrStore
	default:
		return nil
	}
}

// LoadError describes a failed load step.
// It matches its kind's sentinel via errors.Is and unwraps to the cause.
type LoadError struct {
	Kind   ErrorKind
	Op     string // step that failed: "parse", "infer", "drop", "create", "insert", ...
	Table  string // qualified table name, if known
	Source string // source file path, if known
	Err    error
}

// Error implements error.
func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" during ")
		b.WriteString(e.Op)
	}
	if e.Table != "" {
		fmt.Fprintf(&b, " (table %s)", e.Table)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " (source %s)", e.Source)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *LoadError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewLoadError builds a LoadError. Returns nil when err is nil.
func NewLoadError(kind ErrorKind, op string, err error) *LoadError {
	if err == nil {
		return nil
	}
	return &LoadError{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first LoadError in err's chain,
// falling back to sentinel matching. Returns 0 when err is not load-classified.
func KindOf(err error) ErrorKind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	switch {
	case errors.Is(err, ErrFormat):
		return KindFormat
	case errors.Is(err, ErrSchema):
		return KindSchema
	case errors.Is(err, ErrPermission):
		return KindPermission
	case errors.Is(err, ErrStore):
		return KindStore
	}
	return 0
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	switch KindOf(err) {
	case KindFormat:
		return ExitFormatError
	case KindSchema:
		return ExitSchemaError
	case KindPermission:
		return ExitPermissionError
	case KindStore:
		return ExitStoreError
	}

	errStr := err.Error()
	if isUsageError(errStr) {
		return ExitUsageError
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// isUsageError recognizes cobra's argument and flag parsing failures.
func isUsageError(msg string) bool {
	for _, prefix := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"requires at least",
		"required flag",
		"invalid argument",
		"missing required argument",
		"flag needs an argument",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
