// Package schema describes the table a shapefile is loaded into.
//
// A Table is built once per source from its dBASE field descriptors and
// geometry type. It carries everything the store needs to create the table
// and convert attribute strings into typed insert parameters:
//
//	tbl, err := schema.Infer(target, src.Fields(), src.GeometryType(), srid, opts)
//	for _, f := range features {
//	    row, err := tbl.ConvertRow(f.Attributes)
//	    ...
//	}
package schema
