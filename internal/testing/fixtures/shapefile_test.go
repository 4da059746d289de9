package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_CreatesAllMembers(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteZones(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "zones.shp"), path)

	for _, name := range []string{"zones.shp", "zones.shx", "zones.dbf", "zones.prj"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "missing %s", name)
	}
	_, err = os.Stat(filepath.Join(dir, "zonesdbf"))
	assert.True(t, os.IsNotExist(err), "attribute table left without extension dot")
}

func TestWrite_AttributesReadable(t *testing.T) {
	dir := t.TempDir()
	path, err := WritePoints(dir)
	require.NoError(t, err)

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for r.Next() {
		n, _ := r.Shape()
		names = append(names, r.ReadAttribute(n, 0))
	}
	assert.Equal(t, []string{"Oakland", "San Francisco"}, names)
}
