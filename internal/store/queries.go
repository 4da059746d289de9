package store

// SQL used by the store. Statements that embed identifiers are built with
// pgx.Identifier.Sanitize in store.go.

const (
	queryCreateExtension = `CREATE EXTENSION IF NOT EXISTS postgis`

	queryPostGISVersion = `
		SELECT extversion
		FROM pg_extension
		WHERE extname = 'postgis'
	`

	// Parameter $1: sanitized qualified name. Views, sequences and indexes
	// of the same name do not count.
	queryTableExists = `
		SELECT EXISTS (
			SELECT 1 FROM pg_class
			WHERE oid = to_regclass($1) AND relkind IN ('r', 'p')
		)
	`

	// Parameters $1: schema, $2: table
	queryColumns = `
		SELECT column_name, udt_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`
)
