// Package history keeps a provenance row for every completed load in the
// shpload_history table, through gorm on top of the run's pgx pool.
package history
