package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/shpload/internal/schema"
	"github.com/vvka-141/shpload/pkg/shpload"
)

func zonesTable() *schema.Table {
	return &schema.Table{
		Name:      shpload.TableName{Schema: "gis", Name: "zones"},
		KeyColumn: "gid",
		Columns: []schema.Column{
			{Name: "name", Type: schema.TypeText},
			{Name: "code", Type: schema.TypeBigint},
		},
		GeometryColumn: "geom",
		GeometryType:   "MULTIPOLYGON",
		SRID:           4326,
	}
}

func TestCreateTableSQL(t *testing.T) {
	got := CreateTableSQL(zonesTable())
	want := `CREATE TABLE "gis"."zones" (
	"gid" serial PRIMARY KEY,
	"name" text,
	"code" bigint,
	"geom" geometry(MULTIPOLYGON, 4326)
)`
	if got != want {
		t.Errorf("CreateTableSQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestInsertSQL(t *testing.T) {
	tbl := zonesTable()

	got := InsertSQL(tbl, 4326)
	want := `INSERT INTO "gis"."zones" ("name", "code", "geom") VALUES ($1, $2, ST_GeomFromWKB($3, 4326))`
	if got != want {
		t.Errorf("InsertSQL() same srid =\n%s\nwant\n%s", got, want)
	}

	got = InsertSQL(tbl, 4269)
	if !strings.Contains(got, "ST_Transform(ST_GeomFromWKB($3, 4269), 4326)") {
		t.Errorf("InsertSQL() should transform from 4269 to 4326, got %s", got)
	}
}

func TestQuote(t *testing.T) {
	if got := Quote(shpload.TableName{Name: `we"ird`}); got != `"public"."we""ird"` {
		t.Errorf("Quote() = %s", got)
	}
}

func TestIndexName(t *testing.T) {
	if got := IndexName("zones", "geom"); got != "zones_geom_gist" {
		t.Errorf("IndexName() = %s", got)
	}
	long := strings.Repeat("t", 70)
	got := IndexName(long, "geom")
	if len(got) != shpload.MaxIdentifierLength || !strings.HasSuffix(got, "_geom_gist") {
		t.Errorf("IndexName() = %s (%d bytes)", got, len(got))
	}

	a := IndexName(long+"_north", "geom")
	b := IndexName(long+"_south", "geom")
	if a == b {
		t.Errorf("tables sharing a long prefix got the same index name %s", a)
	}
	if len(a) > shpload.MaxIdentifierLength || len(b) > shpload.MaxIdentifierLength {
		t.Errorf("index names exceed the limit: %s, %s", a, b)
	}

	wide := IndexName("zones", strings.Repeat("g", 70))
	if len(wide) != shpload.MaxIdentifierLength {
		t.Errorf("IndexName() with long column = %d bytes", len(wide))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"insufficient privilege", &pgconn.PgError{Code: "42501"}, shpload.ErrPermission},
		{"duplicate table", &pgconn.PgError{Code: "42P07"}, shpload.ErrPermission},
		{"invalid text representation", &pgconn.PgError{Code: "22P02"}, shpload.ErrFormat},
		{"numeric out of range", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "22003"}), shpload.ErrFormat},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, shpload.ErrStore},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, shpload.ErrStore},
		{"canceled", context.Canceled, shpload.ErrStore},
		{"plain", errors.New("connection reset by peer"), shpload.ErrStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("create", "public.zones", tt.err)
			if !errors.Is(err, tt.want) {
				t.Errorf("Classify() = %v, want kind %v", err, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("Classify() should keep the cause in the chain")
			}
		})
	}

	if Classify("x", "", nil) != nil {
		t.Error("Classify(nil) should be nil")
	}

	if err := Classify(opInsert, "public.zones", &pgconn.PgError{Code: "22021"}); !errors.Is(err, shpload.ErrStore) {
		t.Errorf("data exception during insert = %v, want StoreError", err)
	}

	already := &shpload.LoadError{Kind: shpload.KindSchema, Err: errors.New("x")}
	if got := Classify("insert", "", already); got != error(already) {
		t.Error("Classify should not rewrap a LoadError")
	}
}

func TestEncodeGeometry(t *testing.T) {
	b, err := EncodeGeometry(nil)
	if err != nil || b != nil {
		t.Fatalf("EncodeGeometry(nil) = %v, %v", b, err)
	}

	b, err = EncodeGeometry(geom.Point{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 21 {
		t.Fatalf("point WKB length = %d, want 21", len(b))
	}
	var typ uint32
	if b[0] == 1 {
		typ = binary.LittleEndian.Uint32(b[1:5])
	} else {
		typ = binary.BigEndian.Uint32(b[1:5])
	}
	if typ != 1 {
		t.Errorf("WKB type = %d, want 1 (Point)", typ)
	}
}
