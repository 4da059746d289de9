package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const dbaseDateLayout = "20060102"

// Convert turns a trimmed dBASE value into an insert parameter for col.
// Blank values become nil (SQL NULL).
func Convert(col Column, raw string) (any, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}

	switch col.Type {
	case TypeText:
		if strings.ContainsRune(v, 0) {
			return nil, fmt.Errorf("%s: text contains a NUL byte", col.Name)
		}
		return v, nil

	case TypeBigint:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
		// Some writers pad integers with a fractional part of zeros.
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
			return nil, fmt.Errorf("%s: %q is not an integer", col.Name, v)
		}
		return int64(f), nil

	case TypeNumeric:
		var n pgtype.Numeric
		if err := n.Scan(v); err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", col.Name, v)
		}
		return n, nil

	case TypeDouble:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", col.Name, v)
		}
		return f, nil

	case TypeDate:
		if strings.Trim(v, "0") == "" {
			return nil, nil
		}
		d, err := time.Parse(dbaseDateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a YYYYMMDD date", col.Name, v)
		}
		return d, nil

	case TypeBoolean:
		switch v {
		case "T", "t", "Y", "y":
			return true, nil
		case "F", "f", "N", "n":
			return false, nil
		case "?":
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %q is not a logical value", col.Name, v)
	}

	return nil, fmt.Errorf("%s: no conversion for type %s", col.Name, col.Type)
}

// ConvertRow converts a feature's attributes into parameters in column order.
func (t *Table) ConvertRow(attrs []string) ([]any, error) {
	row := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		if c.Field >= len(attrs) {
			return nil, fmt.Errorf("%s: record has %d attributes", c.Name, len(attrs))
		}
		v, err := Convert(c, attrs[c.Field])
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}
