package loader

import (
	"fmt"

	"github.com/vvka-141/shpload/internal/schema"
	"github.com/vvka-141/shpload/internal/shapefile"
	"github.com/vvka-141/shpload/internal/store"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// Plan is a parsed source ready to be written.
type Plan struct {
	Request    shpload.LoadRequest
	Info       shapefile.Info
	Table      *schema.Table
	SourceSRID int
	Rows       []store.Row
}

// Prepare parses req.Source and builds the table schema and insert rows.
// It never touches the database. Errors are FormatError or SchemaError, or
// ErrInvalidRequest when reprojection is asked of a source with no known SRID.
func (l *Loader) Prepare(req shpload.LoadRequest) (*Plan, error) {
	plan, src, err := l.describe(req)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if req.TargetSRID != 0 && plan.SourceSRID == shpload.UnknownSRID {
		return nil, fmt.Errorf("%s: source SRID unknown (no .prj, no --srid), cannot transform to %d: %w",
			req.Source, req.TargetSRID, shpload.ErrInvalidRequest)
	}

	features, err := src.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([]store.Row, len(features))
	for i, f := range features {
		values, err := plan.Table.ConvertRow(f.Attributes)
		if err != nil {
			return nil, recordError(req, f.Index, err)
		}
		g, err := store.EncodeGeometry(f.Geometry)
		if err != nil {
			return nil, recordError(req, f.Index, fmt.Errorf("encode geometry: %w", err))
		}
		rows[i] = store.Row{Values: values, Geometry: g}
	}
	plan.Rows = rows
	return plan, nil
}

// Describe parses only the headers of req.Source and infers the table schema.
func (l *Loader) Describe(req shpload.LoadRequest) (*Plan, error) {
	plan, src, err := l.describe(req)
	if err != nil {
		return nil, err
	}
	src.Close()
	return plan, nil
}

func (l *Loader) describe(req shpload.LoadRequest) (*Plan, *shapefile.Source, error) {
	src, err := shapefile.Open(req.Source)
	if err != nil {
		return nil, nil, err
	}

	sourceSRID := l.sourceSRID(req, src.SRID())
	tableSRID := sourceSRID
	if req.TargetSRID != 0 {
		tableSRID = req.TargetSRID
	}

	tbl, err := schema.Infer(req.Table, src.Fields(), src.GeometryType(), tableSRID, l.opts.GeometryColumn)
	if err != nil {
		src.Close()
		return nil, nil, annotate(err, req)
	}

	return &Plan{Request: req, Info: src.Info(), Table: tbl, SourceSRID: sourceSRID}, src, nil
}

// sourceSRID picks the request's SRID, then the .prj's, then Options.SRID,
// which may itself be UnknownSRID.
func (l *Loader) sourceSRID(req shpload.LoadRequest, detected int) int {
	switch {
	case req.SRID != 0:
		return req.SRID
	case detected != 0:
		return detected
	default:
		return l.opts.SRID
	}
}

func recordError(req shpload.LoadRequest, index int, err error) error {
	return &shpload.LoadError{
		Kind:   shpload.KindFormat,
		Op:     "parse",
		Table:  req.Table.String(),
		Source: req.Source,
		Err:    fmt.Errorf("record %d: %w", index+1, err),
	}
}
