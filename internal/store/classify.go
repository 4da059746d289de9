package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// PostgreSQL SQLSTATE values with a dedicated error kind.
const (
	codeInsufficientPrivilege = "42501"
	codeDuplicateTable        = "42P07"
	classDataException        = "22"
)

const opInsert = "insert"

// Classify wraps err in a *shpload.LoadError for op on table.
// A LoadError already in the chain is returned unchanged. Returns nil for nil.
//
// Inserts run after the table was created or dropped, so a data exception
// there is a StoreError: FormatError always means no table was changed.
func Classify(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var le *shpload.LoadError
	if errors.As(err, &le) {
		return err
	}
	kind := KindFor(err)
	if op == opInsert && kind == shpload.KindFormat {
		kind = shpload.KindStore
	}
	return &shpload.LoadError{Kind: kind, Op: op, Table: table, Err: err}
}

// KindFor picks the error kind for a store failure.
func KindFor(err error) shpload.ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return shpload.KindStore
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeInsufficientPrivilege, pgErr.Code == codeDuplicateTable:
			return shpload.KindPermission
		case strings.HasPrefix(pgErr.Code, classDataException):
			return shpload.KindFormat
		}
	}
	return shpload.KindStore
}
