package shpload_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/shpload/pkg/shpload"
)

func TestExitCodeForError_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown flag", errors.New("unknown flag --foo"), shpload.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x'"), shpload.ExitUsageError},
		{"accepts args", errors.New("accepts 1 arg(s), received 0"), shpload.ExitUsageError},
		{"required flag", errors.New("required flag \"table\" not set"), shpload.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--srid\""), shpload.ExitUsageError},
		{"general error", errors.New("something went wrong"), shpload.ExitGeneralError},
		{"nil error", nil, shpload.ExitSuccess},
		{"connection failed", shpload.ErrConnectionFailed, shpload.ExitConnectionError},
		{"connection refused text", errors.New("dial tcp: connection refused"), shpload.ExitConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shpload.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeForError_LoadErrors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"format", shpload.NewLoadError(shpload.KindFormat, "parse", cause), shpload.ExitFormatError},
		{"schema", shpload.NewLoadError(shpload.KindSchema, "infer", cause), shpload.ExitSchemaError},
		{"permission", shpload.NewLoadError(shpload.KindPermission, "drop", cause), shpload.ExitPermissionError},
		{"store", shpload.NewLoadError(shpload.KindStore, "insert", cause), shpload.ExitStoreError},
		{"table exists sentinel", shpload.ErrTableExists, shpload.ExitPermissionError},
		{"wrapped load error", fmt.Errorf("load 2: %w", shpload.NewLoadError(shpload.KindFormat, "parse", cause)), shpload.ExitFormatError},
		{"invalid request", fmt.Errorf("bad: %w", shpload.ErrInvalidRequest), shpload.ExitConfigError},
		{"approval denied", shpload.ErrApprovalDenied, shpload.ExitApprovalDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shpload.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestLoadError_IsMatchesKindSentinel(t *testing.T) {
	cause := errors.New("disk on fire")
	err := &shpload.LoadError{Kind: shpload.KindStore, Op: "insert", Table: "public.roads", Err: cause}

	if !errors.Is(err, shpload.ErrStore) {
		t.Error("expected errors.Is(err, ErrStore)")
	}
	if errors.Is(err, shpload.ErrFormat) {
		t.Error("store error should not match ErrFormat")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestLoadError_TableExistsIsPermission(t *testing.T) {
	err := shpload.NewLoadError(shpload.KindPermission, "prepare", shpload.ErrTableExists)

	if !errors.Is(err, shpload.ErrTableExists) {
		t.Error("expected ErrTableExists in chain")
	}
	if !errors.Is(err, shpload.ErrPermission) {
		t.Error("expected ErrPermission in chain")
	}
	if got := shpload.KindOf(err); got != shpload.KindPermission {
		t.Errorf("KindOf = %v, want PermissionError", got)
	}
}

func TestLoadError_Message(t *testing.T) {
	err := &shpload.LoadError{
		Kind:   shpload.KindFormat,
		Op:     "parse",
		Source: "roads.shp",
		Err:    errors.New("bad header"),
	}

	want := "FormatError during parse (source roads.shp): bad header"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewLoadError_NilCause(t *testing.T) {
	if err := shpload.NewLoadError(shpload.KindStore, "insert", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if got := shpload.KindOf(errors.New("plain")); got != 0 {
		t.Errorf("KindOf(plain) = %v, want 0", got)
	}
	if got := shpload.KindOf(nil); got != 0 {
		t.Errorf("KindOf(nil) = %v, want 0", got)
	}
}

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind shpload.ErrorKind
		want string
	}{
		{shpload.KindFormat, "FormatError"},
		{shpload.KindSchema, "SchemaError"},
		{shpload.KindPermission, "PermissionError"},
		{shpload.KindStore, "StoreError"},
		{shpload.ErrorKind(42), "ErrorKind(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
