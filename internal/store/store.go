package store

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkb"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/shpload/internal/schema"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// DB is the subset of pgx shared by *pgxpool.Conn, *pgx.Conn and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store runs load statements on one session.
type Store struct {
	db DB
}

// New wraps db.
func New(db DB) *Store {
	if db == nil {
		panic("db cannot be nil")
	}
	return &Store{db: db}
}

// Row is one record ready for insertion.
type Row struct {
	Values   []any  // attribute parameters in column order
	Geometry []byte // WKB; nil stores NULL
}

// Quote returns the sanitized schema-qualified name.
func Quote(t shpload.TableName) string {
	t = t.WithDefaultSchema("")
	return pgx.Identifier{t.Schema, t.Name}.Sanitize()
}

// EnsurePostGIS creates the postgis extension if it is missing.
func (s *Store) EnsurePostGIS(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, queryCreateExtension); err != nil {
		return Classify("create extension", "", err)
	}
	return nil
}

// PostGISVersion returns the installed extension version, or "" when absent.
func (s *Store) PostGISVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.QueryRow(ctx, queryPostGISVersion).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", Classify("check extension", "", err)
	}
	return version, nil
}

// TableExists reports whether an ordinary or partitioned table with the name exists.
func (s *Store) TableExists(ctx context.Context, t shpload.TableName) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, queryTableExists, Quote(t)).Scan(&exists); err != nil {
		return false, Classify("lookup", t.String(), err)
	}
	return exists, nil
}

// DropTable drops the table if it exists.
func (s *Store) DropTable(ctx context.Context, t shpload.TableName) error {
	if _, err := s.db.Exec(ctx, "DROP TABLE IF EXISTS "+Quote(t)); err != nil {
		return Classify("drop", t.String(), err)
	}
	return nil
}

// CreateTable creates tbl with its key, attribute and geometry columns.
func (s *Store) CreateTable(ctx context.Context, tbl *schema.Table) error {
	if _, err := s.db.Exec(ctx, CreateTableSQL(tbl)); err != nil {
		return Classify("create", tbl.Name.String(), err)
	}
	return nil
}

// CreateTableSQL renders the CREATE TABLE statement for tbl.
func CreateTableSQL(tbl *schema.Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(Quote(tbl.Name))
	b.WriteString(" (\n\t")
	b.WriteString(pgx.Identifier{tbl.KeyColumn}.Sanitize())
	b.WriteString(" serial PRIMARY KEY")
	for _, c := range tbl.Columns {
		fmt.Fprintf(&b, ",\n\t%s %s", pgx.Identifier{c.Name}.Sanitize(), c.Type)
	}
	fmt.Fprintf(&b, ",\n\t%s geometry(%s, %d)\n)", pgx.Identifier{tbl.GeometryColumn}.Sanitize(), geometryTypmod(tbl.GeometryType), tbl.SRID)
	return b.String()
}

func geometryTypmod(t string) string {
	if t == "" {
		return "Geometry"
	}
	return t
}

// Columns lists the table's columns in ordinal order.
func (s *Store) Columns(ctx context.Context, t shpload.TableName) ([]schema.ExistingColumn, error) {
	t = t.WithDefaultSchema("")
	rows, err := s.db.Query(ctx, queryColumns, t.Schema, t.Name)
	if err != nil {
		return nil, Classify("describe", t.String(), err)
	}
	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.ExistingColumn, error) {
		var c schema.ExistingColumn
		err := row.Scan(&c.Name, &c.UDTName)
		return c, err
	})
	if err != nil {
		return nil, Classify("describe", t.String(), err)
	}
	return cols, nil
}

// InsertSQL renders the parameterized INSERT for tbl. Geometries arrive as WKB
// in sourceSRID and are transformed when the table's SRID differs.
func InsertSQL(tbl *schema.Table, sourceSRID int) string {
	cols := tbl.ColumnNames()
	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}

	g := fmt.Sprintf("ST_GeomFromWKB($%d, %d)", len(cols), sourceSRID)
	if sourceSRID != tbl.SRID {
		g = fmt.Sprintf("ST_Transform(%s, %d)", g, tbl.SRID)
	}
	params[len(cols)-1] = g

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		Quote(tbl.Name), strings.Join(quoted, ", "), strings.Join(params, ", "))
}

// InsertBatch queues rows in order on one pgx batch and returns the number inserted.
// The batch runs as one implicit transaction, so a failed row discards the
// whole batch and the count is zero. Earlier batches are unaffected.
func (s *Store) InsertBatch(ctx context.Context, insertSQL string, table string, rows []Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		args := make([]any, 0, len(r.Values)+1)
		args = append(args, r.Values...)
		args = append(args, r.Geometry)
		b.Queue(insertSQL, args...)
	}

	br := s.db.SendBatch(ctx, b)
	var inserted int64
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, Classify(opInsert, table, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, Classify(opInsert, table, err)
	}
	return inserted, nil
}

// CreateSpatialIndex adds a GiST index on the geometry column.
func (s *Store) CreateSpatialIndex(ctx context.Context, tbl *schema.Table) error {
	name := IndexName(tbl.Name.Name, tbl.GeometryColumn)
	sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (%s)",
		pgx.Identifier{name}.Sanitize(), Quote(tbl.Name), pgx.Identifier{tbl.GeometryColumn}.Sanitize())
	if _, err := s.db.Exec(ctx, sql); err != nil {
		return Classify("index", tbl.Name.String(), err)
	}
	return nil
}

// IndexName returns <table>_<column>_gist. Names over the identifier limit
// are cut and tagged with a hash of the full name so that tables sharing a
// long prefix get distinct indexes.
func IndexName(table, column string) string {
	suffix := "_" + column + "_gist"
	full := table + suffix
	if len(full) <= shpload.MaxIdentifierLength {
		return full
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(full))
	tag := fmt.Sprintf("_%08x", h.Sum32())

	if keep := shpload.MaxIdentifierLength - len(suffix) - len(tag); keep >= 1 {
		return table[:keep] + tag + suffix
	}
	return full[:shpload.MaxIdentifierLength-len(tag)] + tag
}

// Analyze refreshes planner statistics for the table.
func (s *Store) Analyze(ctx context.Context, t shpload.TableName) error {
	if _, err := s.db.Exec(ctx, "ANALYZE "+Quote(t)); err != nil {
		return Classify("analyze", t.String(), err)
	}
	return nil
}

// CountRows returns the table's row count.
func (s *Store) CountRows(ctx context.Context, t shpload.TableName) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM "+Quote(t)).Scan(&n); err != nil {
		return 0, Classify("count", t.String(), err)
	}
	return n, nil
}

// EncodeGeometry returns the WKB for g, or nil for a null geometry.
func EncodeGeometry(g geom.Geometry) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	return wkb.EncodeBytes(g)
}
