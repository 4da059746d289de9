// Package fixtures writes small shapefiles for tests.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"

	shp "github.com/jonas-p/go-shp"
)

// ShapefileBuilder accumulates features and writes them as .shp/.shx/.dbf.
//
//	path, err := fixtures.NewShapefileBuilder(shp.POLYGON).
//	    AddField(shp.StringField("NAME", 20)).
//	    AddFeature(fixtures.Square(0, 0, 1), "north").
//	    Write(dir, "zones")
type ShapefileBuilder struct {
	shapeType shp.ShapeType
	fields    []shp.Field
	shapes    []shp.Shape
	rows      [][]interface{}
	cpg       string
	prj       string
}

func NewShapefileBuilder(shapeType shp.ShapeType) *ShapefileBuilder {
	return &ShapefileBuilder{shapeType: shapeType}
}

// AddField appends a DBF field. Use the shp.*Field constructors or LogicalField.
func (b *ShapefileBuilder) AddField(f shp.Field) *ShapefileBuilder {
	b.fields = append(b.fields, f)
	return b
}

// AddFeature appends a shape and its attribute values in field order.
// Values are int, float64 or string; nil leaves the cell blank.
func (b *ShapefileBuilder) AddFeature(shape shp.Shape, values ...interface{}) *ShapefileBuilder {
	b.shapes = append(b.shapes, shape)
	b.rows = append(b.rows, values)
	return b
}

// WithCodePage writes a .cpg sidecar.
func (b *ShapefileBuilder) WithCodePage(cpg string) *ShapefileBuilder {
	b.cpg = cpg
	return b
}

// WithPRJ writes a .prj sidecar.
func (b *ShapefileBuilder) WithPRJ(wkt string) *ShapefileBuilder {
	b.prj = wkt
	return b
}

// Write creates dir/name.shp and its sidecars and returns the .shp path.
func (b *ShapefileBuilder) Write(dir, name string) (string, error) {
	base := filepath.Join(dir, name)
	w, err := shp.Create(base+".shp", b.shapeType)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", base, err)
	}

	if err := w.SetFields(b.fields); err != nil {
		w.Close()
		return "", fmt.Errorf("set fields: %w", err)
	}
	for i, shape := range b.shapes {
		w.Write(shape)
		for j, v := range b.rows[i] {
			if v == nil {
				continue
			}
			if err := w.WriteAttribute(i, j, v); err != nil {
				w.Close()
				return "", fmt.Errorf("feature %d field %d: %w", i, j, err)
			}
		}
	}
	w.Close()

	// go-shp names the attribute table base+"dbf" without the dot.
	if _, err := os.Stat(base + "dbf"); err == nil {
		if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
			return "", fmt.Errorf("rename attribute table: %w", err)
		}
	}

	if b.cpg != "" {
		if err := os.WriteFile(base+".cpg", []byte(b.cpg), 0644); err != nil {
			return "", err
		}
	}
	if b.prj != "" {
		if err := os.WriteFile(base+".prj", []byte(b.prj), 0644); err != nil {
			return "", err
		}
	}
	return base + ".shp", nil
}

// LogicalField returns a dBASE L field.
func LogicalField(name string) shp.Field {
	f := shp.Field{Fieldtype: 'L', Size: 1}
	copy(f.Name[:], name)
	return f
}

// MemoField returns a dBASE M field, which the loader rejects.
func MemoField(name string) shp.Field {
	f := shp.Field{Fieldtype: 'M', Size: 10}
	copy(f.Name[:], name)
	return f
}

// Ring returns a closed ring through pts.
func Ring(pts ...[2]float64) []shp.Point {
	ring := make([]shp.Point, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, shp.Point{X: p[0], Y: p[1]})
	}
	return append(ring, ring[0])
}

// Square returns a clockwise (outer) square polygon with its lower-left corner at x, y.
func Square(x, y, size float64) *shp.Polygon {
	return PolygonFromRings(clockwiseSquare(x, y, size))
}

// SquareWithHole returns a square with a counter-clockwise hole inset by margin.
func SquareWithHole(x, y, size, margin float64) *shp.Polygon {
	outer := clockwiseSquare(x, y, size)
	ix, iy, is := x+margin, y+margin, size-2*margin
	hole := Ring([2]float64{ix, iy}, [2]float64{ix + is, iy}, [2]float64{ix + is, iy + is}, [2]float64{ix, iy + is})
	return PolygonFromRings(outer, hole)
}

// TwoSquares returns one polygon record holding two disjoint outer rings.
func TwoSquares() *shp.Polygon {
	return PolygonFromRings(clockwiseSquare(0, 0, 1), clockwiseSquare(5, 5, 1))
}

func clockwiseSquare(x, y, size float64) []shp.Point {
	return Ring([2]float64{x, y}, [2]float64{x, y + size}, [2]float64{x + size, y + size}, [2]float64{x + size, y})
}

// PolygonFromRings builds a polygon record from rings in file order.
func PolygonFromRings(rings ...[]shp.Point) *shp.Polygon {
	p := shp.Polygon(*shp.NewPolyLine(rings))
	return &p
}

// Line returns a single-part polyline.
func Line(pts ...[2]float64) *shp.PolyLine {
	part := make([]shp.Point, len(pts))
	for i, p := range pts {
		part[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return shp.NewPolyLine([][]shp.Point{part})
}

// WriteZones writes the three-polygon "zones" layer used across tests:
// fields NAME (C), CODE (N), AREA (F), OPENED (D), ACTIVE (L).
func WriteZones(dir string) (string, error) {
	return NewShapefileBuilder(shp.POLYGON).
		AddField(shp.StringField("NAME", 20)).
		AddField(shp.NumberField("CODE", 6)).
		AddField(shp.FloatField("AREA", 12, 3)).
		AddField(shp.DateField("OPENED")).
		AddField(LogicalField("ACTIVE")).
		AddFeature(Square(0, 0, 1), "north", 1, 1.0, "20200131", "T").
		AddFeature(SquareWithHole(10, 10, 4, 1), "south", 2, 12.0, "20210615", "F").
		AddFeature(TwoSquares(), "islands", 3, 2.0, nil, "?").
		WithPRJ(WGS84PRJ).
		Write(dir, "zones")
}

// WritePoints writes a two-point layer named "cities".
func WritePoints(dir string) (string, error) {
	return NewShapefileBuilder(shp.POINT).
		AddField(shp.StringField("NAME", 30)).
		AddField(shp.NumberField("POP", 10)).
		AddFeature(&shp.Point{X: -122.27, Y: 37.80}, "Oakland", 440646).
		AddFeature(&shp.Point{X: -122.42, Y: 37.77}, "San Francisco", 873965).
		Write(dir, "cities")
}

// WriteMalformed writes a .shp and .dbf that are not valid shapefiles.
func WriteMalformed(dir, name string) (string, error) {
	base := filepath.Join(dir, name)
	if err := os.WriteFile(base+".shp", []byte("this is not a shapefile"), 0644); err != nil {
		return "", err
	}
	if err := os.WriteFile(base+".dbf", []byte("nor is this a dbf"), 0644); err != nil {
		return "", err
	}
	return base + ".shp", nil
}

// WGS84PRJ is the ESRI WKT written by most tools for EPSG:4326.
const WGS84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// UTM10NPRJ is the ESRI WKT for WGS 84 / UTM zone 10N (EPSG:32610).
const UTM10NPRJ = `PROJCS["WGS_1984_UTM_Zone_10N",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",500000.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",-123.0],PARAMETER["Scale_Factor",0.9996],PARAMETER["Latitude_Of_Origin",0.0],UNIT["Meter",1.0]]`
