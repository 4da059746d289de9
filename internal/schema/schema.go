package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vvka-141/shpload/internal/shapefile"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// SQL types produced for dBASE fields.
const (
	TypeText    = "text"
	TypeBigint  = "bigint"
	TypeNumeric = "numeric"
	TypeDouble  = "double precision"
	TypeDate    = "date"
	TypeBoolean = "boolean"
)

// maxBigintDigits is the widest integer N field stored as bigint.
const maxBigintDigits = 18

// udtNames maps SQL types to information_schema.columns.udt_name.
var udtNames = map[string]string{
	TypeText:    "text",
	TypeBigint:  "int8",
	TypeNumeric: "numeric",
	TypeDouble:  "float8",
	TypeDate:    "date",
	TypeBoolean: "bool",
}

// Column is one attribute column.
type Column struct {
	Name      string
	Type      string
	Field     int    // index into the source's fields
	FieldType byte   // dBASE type it came from
	Source    string // original field name
}

// UDTName returns the information_schema udt_name for the column type.
func (c Column) UDTName() string { return udtNames[c.Type] }

// Table is the full description of a loaded table.
type Table struct {
	Name           shpload.TableName
	KeyColumn      string
	Columns        []Column
	GeometryColumn string
	GeometryType   string // POINT, MULTIPOLYGON, ...
	SRID           int    // SRID of stored geometries
}

// ColumnNames returns attribute column names followed by the geometry column.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return append(names, t.GeometryColumn)
}

// Infer builds the table description for a source.
// Every failure is a SchemaError.
func Infer(name shpload.TableName, fields []shapefile.Field, geometryType string, srid int, geometryColumn string) (*Table, error) {
	if geometryColumn == "" {
		geometryColumn = shpload.DefaultGeometryColumn
	}
	t := &Table{
		Name:           name.WithDefaultSchema(""),
		KeyColumn:      shpload.KeyColumn,
		GeometryColumn: geometryColumn,
		GeometryType:   geometryType,
		SRID:           srid,
		Columns:        make([]Column, 0, len(fields)),
	}

	if err := ValidateIdentifier(geometryColumn); err != nil {
		return nil, schemaError(t, fmt.Errorf("geometry column: %w", err))
	}

	taken := map[string]string{
		t.KeyColumn:      "key column",
		t.GeometryColumn: "geometry column",
	}
	for i, f := range fields {
		sqlType, err := sqlTypeFor(f)
		if err != nil {
			return nil, schemaError(t, err)
		}
		col := NormalizeName(f.Name)
		if col == "" {
			return nil, schemaError(t, fmt.Errorf("field %d name %q has no usable characters", i+1, f.Name))
		}
		if owner, dup := taken[col]; dup {
			return nil, schemaError(t, fmt.Errorf("field %q normalizes to %q, which collides with %s", f.Name, col, owner))
		}
		taken[col] = fmt.Sprintf("field %q", f.Name)
		t.Columns = append(t.Columns, Column{Name: col, Type: sqlType, Field: i, FieldType: f.Type, Source: f.Name})
	}
	return t, nil
}

func sqlTypeFor(f shapefile.Field) (string, error) {
	switch f.Type {
	case 'C':
		return TypeText, nil
	case 'N':
		if f.Decimals == 0 && f.Size <= maxBigintDigits {
			return TypeBigint, nil
		}
		return TypeNumeric, nil
	case 'F':
		return TypeDouble, nil
	case 'D':
		return TypeDate, nil
	case 'L':
		return TypeBoolean, nil
	default:
		return "", fmt.Errorf("field %q has unsupported dBASE type %q", f.Name, string(f.Type))
	}
}

// ExistingColumn is a column as reported by the catalog.
type ExistingColumn struct {
	Name    string
	UDTName string
}

// CheckCompatible verifies that an existing table can receive appended rows.
// The key column is ignored; every other column must match by name and type.
func (t *Table) CheckCompatible(existing []ExistingColumn) error {
	have := make(map[string]string, len(existing))
	for _, c := range existing {
		if c.Name == t.KeyColumn {
			continue
		}
		have[c.Name] = c.UDTName
	}

	var problems []string
	for _, c := range t.Columns {
		got, ok := have[c.Name]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing column %s", c.Name))
		case got != c.UDTName():
			problems = append(problems, fmt.Sprintf("column %s is %s, source needs %s", c.Name, got, c.UDTName()))
		}
		delete(have, c.Name)
	}
	if got, ok := have[t.GeometryColumn]; !ok {
		problems = append(problems, fmt.Sprintf("missing geometry column %s", t.GeometryColumn))
	} else if got != "geometry" {
		problems = append(problems, fmt.Sprintf("column %s is %s, not geometry", t.GeometryColumn, got))
	}
	delete(have, t.GeometryColumn)
	extra := make([]string, 0, len(have))
	for name := range have {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		problems = append(problems, fmt.Sprintf("extra column %s", name))
	}

	if len(problems) > 0 {
		return schemaError(t, fmt.Errorf("existing table does not match source: %s", strings.Join(problems, "; ")))
	}
	return nil
}

func schemaError(t *Table, err error) error {
	return &shpload.LoadError{Kind: shpload.KindSchema, Op: "infer", Table: t.Name.String(), Err: err}
}
