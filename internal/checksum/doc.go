// Package checksum fingerprints shapefile datasets.
//
// A shapefile is several files sharing a base name. The dataset checksum is a
// SHA-256 over the .shp, .shx, .dbf, .cpg and .prj members that exist, in that
// order, each prefixed with its extension and length so that moving bytes
// between members changes the result.
//
//	calculator := checksum.New()
//	sum, err := calculator.CalculateDataset("/data/zones.shp")
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
