package schema

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vvka-141/shpload/pkg/shpload"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	nonAlnumRun       = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeName lowercases s, collapses runs of other characters to "_",
// and prefixes a leading digit with "_". The result may still be empty.
func NormalizeName(s string) string {
	n := nonAlnumRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
	n = strings.Trim(n, "_")
	if n != "" && n[0] >= '0' && n[0] <= '9' {
		n = "_" + n
	}
	if len(n) > shpload.MaxIdentifierLength {
		n = n[:shpload.MaxIdentifierLength]
	}
	return n
}

// InferTableName derives a table name from a file's base name.
func InferTableName(path string) (string, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := NormalizeName(base)
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("cannot derive table name from %q: %w", filepath.Base(path), err)
	}
	return name, nil
}

// ValidateIdentifier reports whether s can be used unquoted-style as a table,
// schema or column name.
func ValidateIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("identifier is empty: %w", shpload.ErrInvalidRequest)
	}
	if len(s) > shpload.MaxIdentifierLength {
		return fmt.Errorf("identifier %q exceeds %d bytes: %w", s, shpload.MaxIdentifierLength, shpload.ErrInvalidRequest)
	}
	if !identifierPattern.MatchString(s) {
		return fmt.Errorf("identifier %q must match %s: %w", s, identifierPattern, shpload.ErrInvalidRequest)
	}
	return nil
}

// ValidateTableName checks both parts of a qualified name.
func ValidateTableName(t shpload.TableName) error {
	if err := ValidateIdentifier(t.WithDefaultSchema("").Schema); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := ValidateIdentifier(t.Name); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	return nil
}
