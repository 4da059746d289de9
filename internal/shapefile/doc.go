// Package shapefile reads ESRI shapefiles into geometries and raw attribute strings.
//
// A Source is parsed completely by ReadAll before the loader touches the
// database, so a malformed file never produces a partial table. Every error
// returned by this package is a *shpload.LoadError of kind KindFormat.
//
// Geometries are converted to github.com/go-spatial/geom values:
//
//	POINT        -> geom.Point
//	MULTIPOINT   -> geom.MultiPoint
//	POLYLINE     -> geom.MultiLineString
//	POLYGON      -> geom.MultiPolygon
//
// Z and M variants are flattened to 2D. Null shapes yield a nil geometry.
package shapefile
