// Package loader implements the bulk loader: it turns a shapefile into a
// freshly created PostGIS table.
//
// Each load parses the whole source before it touches the database, so a
// malformed file never drops or modifies a table. After that the steps run
// in order on the caller's session and are not retried:
//
//	check existence -> drop (replace) -> create -> insert in batches -> index -> analyze
//
// Each insert batch commits as a unit. A failure part way through inserting
// keeps the earlier batches and discards the failing one; the returned row
// count matches what stayed. Callers that need all-or-nothing behaviour use
// LoadTx.
package loader
