package shapefile

import (
	"fmt"

	"github.com/go-spatial/geom"
	shp "github.com/jonas-p/go-shp"
)

// PostGIS geometry type names produced by this package.
const (
	TypePoint           = "POINT"
	TypeMultiPoint      = "MULTIPOINT"
	TypeMultiLineString = "MULTILINESTRING"
	TypeMultiPolygon    = "MULTIPOLYGON"
	TypeGeometry        = "GEOMETRY"
)

func postgisType(t shp.ShapeType) (string, error) {
	switch t {
	case shp.POINT, shp.POINTZ, shp.POINTM:
		return TypePoint, nil
	case shp.MULTIPOINT, shp.MULTIPOINTZ, shp.MULTIPOINTM:
		return TypeMultiPoint, nil
	case shp.POLYLINE, shp.POLYLINEZ, shp.POLYLINEM:
		return TypeMultiLineString, nil
	case shp.POLYGON, shp.POLYGONZ, shp.POLYGONM:
		return TypeMultiPolygon, nil
	case shp.NULL:
		return TypeGeometry, nil
	default:
		return "", fmt.Errorf("unsupported shape type %s", shapeTypeName(t))
	}
}

func shapeTypeName(t shp.ShapeType) string {
	names := map[shp.ShapeType]string{
		shp.NULL: "Null", shp.POINT: "Point", shp.POLYLINE: "PolyLine", shp.POLYGON: "Polygon",
		shp.MULTIPOINT: "MultiPoint", shp.POINTZ: "PointZ", shp.POLYLINEZ: "PolyLineZ",
		shp.POLYGONZ: "PolygonZ", shp.MULTIPOINTZ: "MultiPointZ", shp.POINTM: "PointM",
		shp.POLYLINEM: "PolyLineM", shp.POLYGONM: "PolygonM", shp.MULTIPOINTM: "MultiPointM",
		shp.MULTIPATCH: "MultiPatch",
	}
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("ShapeType(%d)", int32(t))
}

// toGeometry converts a go-shp record to a go-spatial geometry.
func toGeometry(shape shp.Shape) (geom.Geometry, error) {
	switch s := shape.(type) {
	case *shp.Null, nil:
		return nil, nil
	case *shp.Point:
		return geom.Point{s.X, s.Y}, nil
	case *shp.PointZ:
		return geom.Point{s.X, s.Y}, nil
	case *shp.PointM:
		return geom.Point{s.X, s.Y}, nil
	case *shp.MultiPoint:
		return toMultiPoint(s.Points), nil
	case *shp.MultiPointZ:
		return toMultiPoint(s.Points), nil
	case *shp.MultiPointM:
		return toMultiPoint(s.Points), nil
	case *shp.PolyLine:
		return toMultiLineString(s.Parts, s.Points)
	case *shp.PolyLineZ:
		return toMultiLineString(s.Parts, s.Points)
	case *shp.PolyLineM:
		return toMultiLineString(s.Parts, s.Points)
	case *shp.Polygon:
		return toMultiPolygon(s.Parts, s.Points)
	case *shp.PolygonZ:
		return toMultiPolygon(s.Parts, s.Points)
	case *shp.PolygonM:
		return toMultiPolygon(s.Parts, s.Points)
	default:
		return nil, fmt.Errorf("unsupported shape %T", shape)
	}
}

func toMultiPoint(points []shp.Point) geom.MultiPoint {
	mp := make(geom.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = [2]float64{p.X, p.Y}
	}
	return mp
}

// splitParts slices points by the part start offsets.
func splitParts(parts []int32, points []shp.Point) ([][][2]float64, error) {
	out := make([][][2]float64, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || start > end {
			return nil, fmt.Errorf("part %d spans points [%d:%d] of %d", i, start, end, len(points))
		}
		if start == end {
			continue
		}
		seg := make([][2]float64, 0, end-start)
		for _, p := range points[start:end] {
			seg = append(seg, [2]float64{p.X, p.Y})
		}
		out = append(out, seg)
	}
	return out, nil
}

func toMultiLineString(parts []int32, points []shp.Point) (geom.Geometry, error) {
	segs, err := splitParts(parts, points)
	if err != nil {
		return nil, err
	}
	mls := make(geom.MultiLineString, 0, len(segs))
	for i, seg := range segs {
		if len(seg) < 2 {
			return nil, fmt.Errorf("line part %d has %d point(s)", i, len(seg))
		}
		mls = append(mls, seg)
	}
	return mls, nil
}

// toMultiPolygon groups rings into polygons. Clockwise rings are shells;
// counter-clockwise rings are holes of the first shell that contains them.
// A hole outside every shell is attached to the last shell seen before it.
// Closing points are dropped; the WKB encoder closes rings.
func toMultiPolygon(parts []int32, points []shp.Point) (geom.Geometry, error) {
	rings, err := splitParts(parts, points)
	if err != nil {
		return nil, err
	}

	var (
		polys     geom.MultiPolygon
		lastShell = -1
		orphans   [][][2]float64
	)
	type hole struct {
		ring  [][2]float64
		after int
	}
	var holes []hole

	for i, ring := range rings {
		ring = openRing(ring)
		if len(ring) < 3 {
			return nil, fmt.Errorf("ring %d has %d distinct point(s)", i, len(ring))
		}
		if signedArea(ring) <= 0 {
			polys = append(polys, [][][2]float64{ring})
			lastShell = len(polys) - 1
			continue
		}
		holes = append(holes, hole{ring: ring, after: lastShell})
	}

	for _, h := range holes {
		target := -1
		for i := range polys {
			if pointInRing(h.ring[0], polys[i][0]) {
				target = i
				break
			}
		}
		if target < 0 {
			target = h.after
		}
		if target < 0 {
			orphans = append(orphans, h.ring)
			continue
		}
		polys[target] = append(polys[target], h.ring)
	}

	// Files written with the opposite winding have no clockwise ring at all;
	// treat each such ring as its own shell.
	for _, ring := range orphans {
		polys = append(polys, [][][2]float64{ring})
	}
	return polys, nil
}

// openRing drops a repeated closing point.
func openRing(ring [][2]float64) [][2]float64 {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}

// signedArea is positive for counter-clockwise rings.
func signedArea(ring [][2]float64) float64 {
	var sum float64
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}

// pointInRing is an even-odd ray cast.
func pointInRing(p [2]float64, ring [][2]float64) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a[1] > p[1]) != (b[1] > p[1]) &&
			p[0] < (b[0]-a[0])*(p[1]-a[1])/(b[1]-a[1])+a[0] {
			inside = !inside
		}
	}
	return inside
}
