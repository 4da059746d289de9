// Package store issues the PostGIS DDL and DML a load needs.
//
// A Store wraps a single session: a *pgxpool.Conn, a *pgx.Conn or a pgx.Tx.
// Nothing here retries; every failure is returned as a *shpload.LoadError
// classified by Classify.
package store
