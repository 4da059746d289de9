package loader_test

import (
	"context"
	"errors"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/shpload/internal/config"
	"github.com/vvka-141/shpload/internal/loader"
	"github.com/vvka-141/shpload/internal/logging"
	"github.com/vvka-141/shpload/internal/schema"
	"github.com/vvka-141/shpload/internal/testing/fixtures"
	"github.com/vvka-141/shpload/pkg/shpload"
)

func newLoader() *loader.Loader {
	return loader.New(shpload.DefaultOptions(), logging.NewNullLogger())
}

func TestNew_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { loader.New(shpload.Options{}, nil) })
}

func TestNew_FillsDefaults(t *testing.T) {
	l := loader.New(shpload.Options{}, logging.NewNullLogger())
	opts := l.Options()
	assert.Equal(t, shpload.DefaultGeometryColumn, opts.GeometryColumn)
	assert.Equal(t, shpload.DefaultBatchSize, opts.BatchSize)
	assert.Equal(t, shpload.UnknownSRID, opts.SRID, "no implicit WGS84")
}

func TestPrepare_Zones(t *testing.T) {
	path, err := fixtures.WriteZones(t.TempDir())
	require.NoError(t, err)

	plan, err := newLoader().Prepare(shpload.LoadRequest{Source: path, Table: shpload.ParseTableName("zones")})
	require.NoError(t, err)

	assert.Equal(t, "MULTIPOLYGON", plan.Table.GeometryType)
	assert.Equal(t, 4326, plan.SourceSRID, "detected from .prj")
	require.Len(t, plan.Rows, 3)

	first := plan.Rows[0]
	require.Len(t, first.Values, 5)
	assert.Equal(t, "north", first.Values[0])
	assert.Equal(t, int64(1), first.Values[1])
	assert.Equal(t, true, first.Values[4])
	assert.NotEmpty(t, first.Geometry)

	third := plan.Rows[2]
	assert.Nil(t, third.Values[3], "blank date")
	assert.Nil(t, third.Values[4], "? logical")
}

func TestPrepare_SRIDPrecedence(t *testing.T) {
	dir := t.TempDir()
	zones, err := fixtures.WriteZones(dir)
	require.NoError(t, err)
	cities, err := fixtures.WritePoints(dir)
	require.NoError(t, err)

	l := loader.New(shpload.Options{SRID: 3857}, logging.NewNullLogger())

	plan, err := l.Describe(shpload.LoadRequest{Source: zones, Table: shpload.ParseTableName("z"), SRID: 4269})
	require.NoError(t, err)
	assert.Equal(t, 4269, plan.SourceSRID, "request wins over .prj")

	plan, err = l.Describe(shpload.LoadRequest{Source: cities, Table: shpload.ParseTableName("c")})
	require.NoError(t, err)
	assert.Equal(t, 3857, plan.SourceSRID, "options default without .prj")
	assert.Equal(t, 3857, plan.Table.SRID)

	plan, err = l.Describe(shpload.LoadRequest{Source: zones, Table: shpload.ParseTableName("z"), TargetSRID: 3857})
	require.NoError(t, err)
	assert.Equal(t, 4326, plan.SourceSRID)
	assert.Equal(t, 3857, plan.Table.SRID)
}

func TestPrepare_UnknownSRID(t *testing.T) {
	cities, err := fixtures.WritePoints(t.TempDir())
	require.NoError(t, err)

	l := loader.New(shpload.Options{}, logging.NewNullLogger())

	plan, err := l.Prepare(shpload.LoadRequest{Source: cities, Table: shpload.ParseTableName("c")})
	require.NoError(t, err)
	assert.Equal(t, shpload.UnknownSRID, plan.SourceSRID, "no .prj and no default")
	assert.Equal(t, shpload.UnknownSRID, plan.Table.SRID)

	_, err = l.Prepare(shpload.LoadRequest{Source: cities, Table: shpload.ParseTableName("c"), TargetSRID: 3857})
	require.Error(t, err)
	assert.ErrorIs(t, err, shpload.ErrInvalidRequest)
	assert.Equal(t, shpload.ExitConfigError, shpload.ExitCodeForError(err))

	plan, err = l.Prepare(shpload.LoadRequest{Source: cities, Table: shpload.ParseTableName("c"), SRID: 4326, TargetSRID: 3857})
	require.NoError(t, err)
	assert.Equal(t, 4326, plan.SourceSRID)
}

func TestPrepare_ProjectDefaultDoesNotOverridePRJ(t *testing.T) {
	utm, err := fixtures.NewShapefileBuilder(shp.POINT).
		AddField(shp.StringField("NAME", 10)).
		AddFeature(&shp.Point{X: 564000, Y: 4182000}, "oakland").
		WithPRJ(fixtures.UTM10NPRJ).
		Write(t.TempDir(), "utm")
	require.NoError(t, err)

	cfg := &config.ProjectConfig{SRID: 4326, Layers: []config.Layer{{File: utm}}}
	reqs, err := cfg.Requests("", schema.InferTableName)
	require.NoError(t, err)

	l := loader.New(cfg.ApplyOptions(shpload.DefaultOptions()), logging.NewNullLogger())
	plan, err := l.Describe(reqs[0])
	require.NoError(t, err)
	assert.Equal(t, 32610, plan.SourceSRID)
}

func TestPrepare_BadAttributeValueIsFormatError(t *testing.T) {
	path, err := fixtures.NewShapefileBuilder(shp.POINT).
		AddField(shp.DateField("WHEN")).
		AddFeature(&shp.Point{X: 0, Y: 0}, "20200101").
		AddFeature(&shp.Point{X: 1, Y: 1}, "notadat").
		Write(t.TempDir(), "dates")
	require.NoError(t, err)

	_, err = newLoader().Prepare(shpload.LoadRequest{Source: path, Table: shpload.ParseTableName("dates")})
	require.Error(t, err)
	assert.ErrorIs(t, err, shpload.ErrFormat)
	assert.Contains(t, err.Error(), "record 2")
}

func TestPrepare_EmbeddedNULIsFormatError(t *testing.T) {
	path, err := fixtures.NewShapefileBuilder(shp.POINT).
		AddField(shp.StringField("NAME", 12)).
		AddFeature(&shp.Point{X: 0, Y: 0}, "nul\x00byte").
		Write(t.TempDir(), "nul")
	require.NoError(t, err)

	_, err = newLoader().Prepare(shpload.LoadRequest{Source: path, Table: shpload.ParseTableName("nul")})
	require.Error(t, err)
	assert.ErrorIs(t, err, shpload.ErrFormat)
	assert.Contains(t, err.Error(), "record 1")
}

func TestPrepare_MemoFieldIsSchemaError(t *testing.T) {
	path, err := fixtures.NewShapefileBuilder(shp.POINT).
		AddField(fixtures.MemoField("NOTES")).
		AddFeature(&shp.Point{X: 0, Y: 0}).
		Write(t.TempDir(), "memo")
	require.NoError(t, err)

	_, err = newLoader().Prepare(shpload.LoadRequest{Source: path, Table: shpload.ParseTableName("memo")})
	require.Error(t, err)
	assert.ErrorIs(t, err, shpload.ErrSchema)

	var le *shpload.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.Source)
}

func TestPreflight(t *testing.T) {
	dir := t.TempDir()
	zones, err := fixtures.WriteZones(dir)
	require.NoError(t, err)
	cities, err := fixtures.WritePoints(dir)
	require.NoError(t, err)
	broken, err := fixtures.WriteMalformed(dir, "broken")
	require.NoError(t, err)

	l := newLoader()
	ok := []shpload.LoadRequest{
		{Source: zones, Table: shpload.ParseTableName("zones")},
		{Source: cities, Table: shpload.ParseTableName("cities")},
	}
	require.NoError(t, l.Preflight(context.Background(), ok))

	bad := append(ok, shpload.LoadRequest{Source: broken, Table: shpload.ParseTableName("broken")})
	err = l.Preflight(context.Background(), bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, shpload.ErrFormat)

	invalid := []shpload.LoadRequest{{Source: zones, Table: shpload.ParseTableName("1zones")}}
	err = l.Preflight(context.Background(), invalid)
	require.Error(t, err)
	assert.ErrorIs(t, err, shpload.ErrInvalidRequest)
}

func TestLoad_InvalidRequestNeverParses(t *testing.T) {
	_, err := newLoader().Load(context.Background(), nil, shpload.LoadRequest{Source: "x.shp", Table: shpload.TableName{Name: "bad name"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, shpload.ErrInvalidRequest)
}

func TestLoad_MalformedFileNeverTouchesStore(t *testing.T) {
	path, err := fixtures.WriteMalformed(t.TempDir(), "broken")
	require.NoError(t, err)

	// A nil DB would panic on first use; reaching it means the parse did not gate the load.
	_, err = newLoader().Load(context.Background(), nil, shpload.LoadRequest{Source: path, Table: shpload.ParseTableName("broken"), Replace: true})
	require.Error(t, err)
	assert.Equal(t, shpload.KindFormat, shpload.KindOf(err))
}

func TestDescribe_ReportsColumns(t *testing.T) {
	path, err := fixtures.WriteZones(t.TempDir())
	require.NoError(t, err)

	plan, err := newLoader().Describe(shpload.LoadRequest{Source: path, Table: shpload.ParseTableName("zones")})
	require.NoError(t, err)
	assert.Nil(t, plan.Rows)
	assert.Equal(t, 3, plan.Info.Features)
	assert.Equal(t, schema.TypeDate, plan.Table.Columns[3].Type)
}
