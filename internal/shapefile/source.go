package shapefile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-spatial/geom"
	shp "github.com/jonas-p/go-shp"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// shapefileFileCode is the big-endian magic number at offset 0 of every .shp.
const shapefileFileCode = 9994

const headerLength = 100

// Field describes one dBASE attribute column.
type Field struct {
	Name     string
	Type     byte // dBASE type: C, N, F, D, L, M, ...
	Size     int
	Decimals int
}

// Feature is one shapefile record.
type Feature struct {
	// Index is the zero-based record number in file order.
	Index int

	// Geometry is nil for null shapes.
	Geometry geom.Geometry

	// Attributes holds decoded, trimmed values in field order.
	Attributes []string
}

// BBox is the file's bounding box from the .shp header.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Info summarizes a source for inspection.
type Info struct {
	Path         string
	GeometryType string
	ShapeType    string
	Fields       []Field
	Features     int
	BBox         BBox
	Encoding     string
	SRID         int // detected from .prj; 0 when unknown
}

// Source is an open shapefile. It is not safe for concurrent use.
type Source struct {
	path     string
	reader   *shp.Reader
	fields   []Field
	geomType string
	codec    *codePage
	srid     int
}

// Open validates and opens a .shp file with its .dbf sidecar.
func Open(path string) (*Source, error) {
	if !strings.EqualFold(filepath.Ext(path), shpload.ShapefileExtension) {
		return nil, formatError(path, fmt.Errorf("expected a %s file", shpload.ShapefileExtension))
	}
	if err := checkHeader(path); err != nil {
		return nil, formatError(path, err)
	}

	// go-shp derives the .dbf name by swapping the last three characters.
	dbfPath := path[:len(path)-3] + "dbf"
	if _, err := os.Stat(dbfPath); err != nil {
		return nil, formatError(path, fmt.Errorf("attribute table %s missing", filepath.Base(dbfPath)))
	}
	if err := checkDBF(dbfPath); err != nil {
		return nil, formatError(path, err)
	}

	codec, err := loadCodePage(path)
	if err != nil {
		return nil, formatError(path, err)
	}

	reader, err := openReader(path)
	if err != nil {
		return nil, formatError(path, err)
	}

	geomType, err := postgisType(reader.GeometryType)
	if err != nil {
		reader.Close()
		return nil, formatError(path, err)
	}

	s := &Source{
		path:     path,
		reader:   reader,
		geomType: geomType,
		codec:    codec,
		srid:     detectSRID(path),
	}
	s.fields = s.readFields()
	return s, nil
}

// openReader turns go-shp panics on corrupt headers into errors.
func openReader(path string) (reader *shp.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt shapefile: %v", r)
		}
	}()
	return shp.Open(path)
}

// Path returns the .shp path.
func (s *Source) Path() string { return s.path }

// GeometryType returns the PostGIS geometry type name, e.g. MULTIPOLYGON.
func (s *Source) GeometryType() string { return s.geomType }

// Fields returns the attribute columns in file order.
func (s *Source) Fields() []Field { return s.fields }

// SRID returns the SRID detected from the .prj sidecar, or 0.
func (s *Source) SRID() int { return s.srid }

// Info returns a summary without reading geometries.
func (s *Source) Info() Info {
	box := s.reader.BBox()
	return Info{
		Path:         s.path,
		GeometryType: s.geomType,
		ShapeType:    shapeTypeName(s.reader.GeometryType),
		Fields:       s.fields,
		Features:     s.reader.AttributeCount(),
		BBox:         BBox{MinX: box.MinX, MinY: box.MinY, MaxX: box.MaxX, MaxY: box.MaxY},
		Encoding:     s.codec.name,
		SRID:         s.srid,
	}
}

// Close releases the underlying files.
func (s *Source) Close() error {
	return s.reader.Close()
}

// ReadAll reads every record in file order.
// A record whose geometry cannot be converted fails the whole read.
func (s *Source) ReadAll() (features []Feature, err error) {
	defer func() {
		if r := recover(); r != nil {
			features = nil
			err = formatError(s.path, fmt.Errorf("corrupt shapefile: %v", r))
		}
	}()

	expected := s.reader.AttributeCount()
	features = make([]Feature, 0, expected)

	for s.reader.Next() {
		idx, shape := s.reader.Shape()
		if idx >= expected {
			return nil, formatError(s.path, fmt.Errorf("record %d has no attribute row (dbf holds %d)", idx+1, expected))
		}

		g, err := toGeometry(shape)
		if err != nil {
			return nil, formatError(s.path, fmt.Errorf("record %d: %w", idx+1, err))
		}

		attrs := make([]string, len(s.fields))
		for i := range s.fields {
			v, err := s.codec.decode(s.reader.ReadAttribute(idx, i))
			if err != nil {
				return nil, formatError(s.path, fmt.Errorf("record %d field %s: %w", idx+1, s.fields[i].Name, err))
			}
			attrs[i] = v
		}

		features = append(features, Feature{Index: idx, Geometry: g, Attributes: attrs})
	}
	if err := s.reader.Err(); err != nil {
		return nil, formatError(s.path, err)
	}
	if len(features) != expected {
		return nil, formatError(s.path, fmt.Errorf("shape count %d does not match attribute count %d", len(features), expected))
	}
	return features, nil
}

func (s *Source) readFields() []Field {
	raw := s.reader.Fields()
	fields := make([]Field, len(raw))
	for i, f := range raw {
		name := f.Name[:]
		if n := bytes.IndexByte(name, 0); n >= 0 {
			name = name[:n]
		}
		decoded, err := s.codec.decode(string(name))
		if err != nil {
			decoded = string(name)
		}
		fields[i] = Field{
			Name:     strings.TrimSpace(decoded),
			Type:     f.Fieldtype,
			Size:     int(f.Size),
			Decimals: int(f.Precision),
		}
	}
	return fields
}

// Dataset is a fully read shapefile.
type Dataset struct {
	Info     Info
	Features []Feature
}

// ReadFile opens, reads and closes path.
func ReadFile(path string) (*Dataset, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	features, err := src.ReadAll()
	if err != nil {
		return nil, err
	}
	return &Dataset{Info: src.Info(), Features: features}, nil
}

func formatError(path string, err error) error {
	return &shpload.LoadError{Kind: shpload.KindFormat, Op: "parse", Source: path, Err: err}
}

// sidecar finds base+ext next to path, trying lower and upper case.
func sidecar(path, ext string) (string, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, candidate := range []string{base + strings.ToLower(ext), base + strings.ToUpper(ext)} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s not found", filepath.Base(base)+ext)
}

func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, headerLength)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("not a shapefile: header too short")
	}
	if code := binary.BigEndian.Uint32(header[0:4]); code != shapefileFileCode {
		return fmt.Errorf("not a shapefile: bad file code %d", code)
	}
	return nil
}

// checkDBF validates the dBASE header length fields go-shp relies on.
func checkDBF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, 32)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("attribute table is not a dBASE file: header too short")
	}
	headerLen := binary.LittleEndian.Uint16(header[8:10])
	recordLen := binary.LittleEndian.Uint16(header[10:12])
	if headerLen < 33 || recordLen < 1 {
		return fmt.Errorf("attribute table is not a dBASE file: bad header")
	}
	return nil
}
