// Package scanner discovers shapefiles in a directory tree.
//
// Matching is by the .shp extension in any letter case. Hidden directories
// are skipped and results are ordered by relative path so a bulk load runs
// in a stable order. Each dataset gets a table name inferred from its base
// name; two datasets that infer the same name are rejected.
package scanner
