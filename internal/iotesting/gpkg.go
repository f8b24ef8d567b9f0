package iotesting

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
	_ "modernc.org/sqlite"
)

// GpkgLayer is a feature layer written by GeoPackage.
type GpkgLayer struct {
	Name     string
	GeomType string
	SRID     int
	Features []*geojson.Feature
}

// GeoPackage writes a minimal GeoPackage with the given layers into the
// temporary directory of the test and returns its path. Attribute
// columns are the union of feature property keys.
func GeoPackage(t *testing.T, layers ...GpkgLayer) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gpkg")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to create GeoPackage: %v", err)
	}
	defer db.Close()

	exec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatalf("Failed to write GeoPackage: %v\n%s", err, q)
		}
	}

	exec(`CREATE TABLE gpkg_contents (
    table_name TEXT PRIMARY KEY, data_type TEXT NOT NULL,
    identifier TEXT, description TEXT DEFAULT '')`)
	exec(`CREATE TABLE gpkg_geometry_columns (
    table_name TEXT NOT NULL, column_name TEXT NOT NULL,
    geometry_type_name TEXT NOT NULL, srs_id INTEGER NOT NULL,
    z TINYINT NOT NULL, m TINYINT NOT NULL)`)

	for _, l := range layers {
		keys := map[string]struct{}{}
		for _, f := range l.Features {
			for k := range f.Properties {
				keys[k] = struct{}{}
			}
		}
		cols := slices.Sorted(maps.Keys(keys))

		defs := []string{"fid INTEGER PRIMARY KEY AUTOINCREMENT", "geom BLOB"}
		for _, c := range cols {
			defs = append(defs, fmt.Sprintf("%q", c))
		}
		exec(fmt.Sprintf("CREATE TABLE %q (%s)", l.Name, strings.Join(defs, ", ")))
		exec(`INSERT INTO gpkg_contents (table_name, data_type) VALUES (?, 'features')`,
			l.Name)
		exec(`INSERT INTO gpkg_geometry_columns VALUES (?, 'geom', ?, ?, 0, 0)`,
			l.Name, l.GeomType, l.SRID)

		names := []string{"geom"}
		marks := []string{"?"}
		for _, c := range cols {
			names = append(names, fmt.Sprintf("%q", c))
			marks = append(marks, "?")
		}
		q := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
			l.Name, strings.Join(names, ", "), strings.Join(marks, ", "))

		for _, f := range l.Features {
			args := []any{gpkgBlob(t, f, l.SRID)}
			for _, c := range cols {
				args = append(args, f.Properties[c])
			}
			exec(q, args...)
		}
	}
	return path
}

func gpkgBlob(t *testing.T, f *geojson.Feature, srid int) []byte {
	t.Helper()
	if f.Geometry == nil {
		return nil
	}
	body, err := wkb.Marshal(f.Geometry, binary.LittleEndian)
	if err != nil {
		t.Fatalf("Failed to encode geometry: %v", err)
	}
	res := []byte{'G', 'P', 0, 1}
	res = binary.LittleEndian.AppendUint32(res, uint32(int32(srid)))
	return append(res, body...)
}
