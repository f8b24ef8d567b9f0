package iogpkg

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
	"github.com/idrop/idb/pkg/schema"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var square = orb.Polygon{orb.Ring{
	{9.0, 1.0}, {9.1, 1.0}, {9.1, 1.1}, {9.0, 1.1}, {9.0, 1.0},
}}

func TestDecodeGeometry(t *testing.T) {
	pt := orb.Point{16.05, 2.2}

	blob, err := encodeGeometry(pt, 4326)
	require.NoError(t, err)
	g, srid, err := decodeGeometry(blob)
	require.NoError(t, err)
	assert.Equal(t, 4326, srid)
	assert.Equal(t, pt, g)

	// big endian header with an xy envelope
	body, err := wkb.Marshal(square, binary.BigEndian)
	require.NoError(t, err)
	blob = []byte{'G', 'P', 0, 0x02}
	blob = binary.BigEndian.AppendUint32(blob, 32632)
	blob = append(blob, make([]byte, 32)...)
	blob = append(blob, body...)
	g, srid, err = decodeGeometry(blob)
	require.NoError(t, err)
	assert.Equal(t, 32632, srid)
	poly, ok := g.(orb.Polygon)
	require.True(t, ok)
	assert.True(t, poly.Equal(square))

	empty := []byte{'G', 'P', 0, flagLittleEndian | flagEmpty, 0xe6, 0x10, 0, 0}
	g, srid, err = decodeGeometry(empty)
	require.NoError(t, err)
	assert.Nil(t, g)
	assert.Equal(t, 4326, srid)
}

func TestDecodeGeometryErrors(t *testing.T) {
	tests := []struct {
		msg  string
		blob []byte
	}{
		{"short", []byte{'G', 'P'}},
		{"magic", []byte{'X', 'P', 0, 1, 0, 0, 0, 0, 1}},
		{"extended", []byte{'G', 'P', 0, flagExtended | 1, 0, 0, 0, 0}},
		{"envelope", []byte{'G', 'P', 0, 0x0e, 0, 0, 0, 0}},
		{"truncated envelope", []byte{'G', 'P', 0, 0x03, 0, 0, 0, 0, 1, 2}},
		{"bad wkb", []byte{'G', 'P', 0, 1, 0, 0, 0, 0, 1, 99}},
	}

	for _, v := range tests {
		_, _, err := decodeGeometry(v.blob)
		assert.Error(t, err, v.msg)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	path := testPackage(t)

	r, err := Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	layers := r.Layers()
	require.Len(t, layers, 2)
	assert.Equal(t, "inventory", layers[0].Name)
	assert.Equal(t, "POINT", layers[0].GeometryType)
	assert.Equal(t, "geom", layers[0].GeometryColumn)
	assert.Equal(t, 4326, layers[0].SRID)
	assert.Equal(t, int64(2), layers[0].Count)
	assert.Equal(t, "tiles", layers[1].Name)
	assert.Equal(t, 32632, layers[1].SRID)

	l, err := r.Layer("TILES")
	require.NoError(t, err)
	assert.Equal(t, "tiles", l.Name)

	_, err = r.Layer("studyarea")
	assertCode(t, err, errcode.GpkgLayerNotFoundError)
}

func TestFeatures(t *testing.T) {
	ctx := context.Background()
	r, err := Open(ctx, testPackage(t))
	require.NoError(t, err)
	defer r.Close()

	fs, err := r.Features(ctx, "inventory")
	require.NoError(t, err)
	require.Len(t, fs, 2)

	f := fs[0]
	assert.Equal(t, int64(1), f.ID)
	assert.Equal(t, orb.Point{9.05, 1.05}, f.Geometry)
	assert.Equal(t, "SAP", f.Properties["species"])
	assert.Equal(t, int64(41), f.Properties["exp_num"])
	assert.NotContains(t, f.Properties, "fid")
	assert.NotContains(t, f.Properties, "geom")
	assert.NotContains(t, f.Properties, schema.SRIDProperty)

	assert.Nil(t, fs[1].Geometry)
	assert.Nil(t, fs[1].Properties["exp_num"])

	rec, err := schema.InventoryFromFeature(f)
	require.NoError(t, err)
	assert.Equal(t, "SAP", rec.SpeciesCode)
	assert.Equal(t, 41, *rec.Inventory.ExpNum)

	tiles, err := r.Features(ctx, "tiles")
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.Equal(t, 32632, tiles[0].Properties[schema.SRIDProperty])

	tile, err := schema.TileFromFeature(tiles[0])
	require.NoError(t, err)
	assert.Equal(t, "T1", tile.Name)
	assert.Equal(t, 32632, tile.Geom.SRID)

	_, err = r.Features(ctx, "missing")
	assertCode(t, err, errcode.GpkgLayerNotFoundError)
}

func TestFeaturesBadGeometry(t *testing.T) {
	ctx := context.Background()
	path := testPackage(t)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE inventory SET geom = x'00010203' WHERE fid = 1`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	r, err := Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Features(ctx, "inventory")
	assertCode(t, err, errcode.GpkgGeometryError)
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := Open(ctx, filepath.Join(dir, "none.gpkg"))
	assertCode(t, err, errcode.GpkgOpenError)

	text := filepath.Join(dir, "text.gpkg")
	require.NoError(t, os.WriteFile(text, []byte("not a database at all"), 0o644))
	_, err = Open(ctx, text)
	assertCode(t, err, errcode.GpkgNotGeoPackageError)

	plain := filepath.Join(dir, "plain.sqlite")
	db, err := sql.Open("sqlite", plain)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	_, err = Open(ctx, plain)
	assertCode(t, err, errcode.GpkgNotGeoPackageError)
}

// testPackage writes a minimal GeoPackage with an inventory point layer
// in WGS 84 and a tile layer in UTM 32N.
func testPackage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gpkg")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE gpkg_contents (
      table_name TEXT PRIMARY KEY, data_type TEXT NOT NULL,
      identifier TEXT, description TEXT DEFAULT '')`,
		`CREATE TABLE gpkg_geometry_columns (
      table_name TEXT NOT NULL, column_name TEXT NOT NULL,
      geometry_type_name TEXT NOT NULL, srs_id INTEGER NOT NULL,
      z TINYINT NOT NULL, m TINYINT NOT NULL)`,
		`CREATE TABLE inventory (
      fid INTEGER PRIMARY KEY AUTOINCREMENT, geom BLOB,
      species TEXT, exp_num MEDIUMINT)`,
		`CREATE TABLE tiles (
      fid INTEGER PRIMARY KEY AUTOINCREMENT, geom BLOB, name TEXT)`,
		`CREATE TABLE attributes (id INTEGER PRIMARY KEY, note TEXT)`,
		`INSERT INTO gpkg_contents (table_name, data_type) VALUES
      ('inventory', 'features'), ('tiles', 'features'),
      ('attributes', 'attributes')`,
		`INSERT INTO gpkg_geometry_columns VALUES
      ('inventory', 'geom', 'POINT', 4326, 0, 0),
      ('tiles', 'geom', 'POLYGON', 32632, 0, 0)`,
	}
	for _, v := range stmts {
		_, err = db.Exec(v)
		require.NoError(t, err, v)
	}

	pt, err := encodeGeometry(orb.Point{9.05, 1.05}, 4326)
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT INTO inventory (geom, species, exp_num) VALUES (?, ?, ?), (NULL, 'AYO', NULL)`,
		pt, "SAP", 41,
	)
	require.NoError(t, err)

	utm := orb.Polygon{orb.Ring{
		{500000, 110000}, {501000, 110000}, {501000, 111000},
		{500000, 111000}, {500000, 110000},
	}}
	poly, err := encodeGeometry(utm, 32632)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tiles (geom, name) VALUES (?, 'T1')`, poly)
	require.NoError(t, err)
	return path
}

func encodeGeometry(g orb.Geometry, srid int) ([]byte, error) {
	body, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	res := []byte{'G', 'P', 0, flagLittleEndian}
	res = binary.LittleEndian.AppendUint32(res, uint32(int32(srid)))
	return append(res, body...), nil
}

func assertCode(t *testing.T, err error, code gn.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var gnErr *gn.Error
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, code, gnErr.Code)
}
