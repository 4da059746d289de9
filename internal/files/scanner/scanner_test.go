package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/shpload/internal/files/filesystem"
	"github.com/vvka-141/shpload/pkg/shpload"
)

func newTestScanner() (*Scanner, *filesystem.MemoryFileSystem) {
	fs := filesystem.NewMemoryFileSystem("/data")
	return NewScannerWithFS(fs), fs
}

func TestNewScannerWithFS_NilFilesystem(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for nil filesystem")
		}
	}()
	NewScannerWithFS(nil)
}

func TestScanDirectory_Recursive(t *testing.T) {
	s, fs := newTestScanner()
	fs.AddFile("zones.shp", 10)
	fs.AddFile("zones.dbf", 10)
	fs.AddFile("Cities.SHP", 10)
	fs.AddFile("county/alameda/Parcels 2020.shp", 10)
	fs.AddFile(".cache/ignored.shp", 10)
	fs.AddFile("readme.txt", 10)

	datasets, err := s.ScanDirectory("/data", true)
	require.NoError(t, err)

	var rel, tables []string
	for _, d := range datasets {
		rel = append(rel, d.RelativePath)
		tables = append(tables, d.Table)
	}
	assert.Equal(t, []string{"Cities.SHP", "county/alameda/Parcels 2020.shp", "zones.shp"}, rel)
	assert.Equal(t, []string{"cities", "parcels_2020", "zones"}, tables)
	assert.Equal(t, "/data/zones.shp", datasets[2].Path)
}

func TestScanDirectory_NonRecursive(t *testing.T) {
	s, fs := newTestScanner()
	fs.AddFile("zones.shp", 10)
	fs.AddFile("sub/tracts.shp", 10)

	datasets, err := s.ScanDirectory("/data", false)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "zones", datasets[0].Table)
}

func TestScanDirectory_DuplicateTable(t *testing.T) {
	s, fs := newTestScanner()
	fs.AddFile("a/land_use.shp", 10)
	fs.AddFile("b/Land Use.shp", 10)

	_, err := s.ScanDirectory("/data", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shpload.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "land_use")
}

func TestScanDirectory_UninferableName(t *testing.T) {
	s, fs := newTestScanner()
	fs.AddFile("---.shp", 10)

	_, err := s.ScanDirectory("/data", true)
	assert.Error(t, err)
}

func TestScanDirectory_MissingRoot(t *testing.T) {
	s, _ := newTestScanner()
	_, err := s.ScanDirectory("/nowhere", true)
	assert.Error(t, err)
}

func TestScanDirectory_OSFilesystem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracts.shp"), []byte("x"), 0644))

	datasets, err := NewScanner().ScanDirectory(dir, false)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "tracts", datasets[0].Table)
	assert.EqualValues(t, 1, datasets[0].SizeBytes)
}

func TestRequests(t *testing.T) {
	datasets := []Dataset{
		{Path: "/data/zones.shp", Table: "zones"},
		{Path: "/data/cities.shp", Table: "cities"},
	}

	reqs := Requests(datasets, "", true, true)
	require.Len(t, reqs, 2)
	assert.Equal(t, shpload.TableName{Schema: "public", Name: "zones"}, reqs[0].Table)
	assert.True(t, reqs[0].Replace)
	assert.False(t, reqs[0].Append, "replace wins over append")

	reqs = Requests(datasets, "gis", false, true)
	assert.Equal(t, "gis", reqs[1].Table.Schema)
	assert.True(t, reqs[1].Append)
}

func TestIsShapefile(t *testing.T) {
	assert.True(t, IsShapefile("a.shp"))
	assert.True(t, IsShapefile("A.SHP"))
	assert.False(t, IsShapefile("a.shx"))
	assert.False(t, IsShapefile("shp"))
}
