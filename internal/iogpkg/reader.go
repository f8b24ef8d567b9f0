// Package iogpkg reads feature layers of OGC GeoPackage files as GeoJSON
// features.
package iogpkg

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/idrop/idb/pkg/geom"
	"github.com/idrop/idb/pkg/schema"
	"github.com/paulmach/orb/geojson"
	_ "modernc.org/sqlite"
)

// Layer describes a feature table of a GeoPackage.
type Layer struct {
	Name           string
	GeometryColumn string
	GeometryType   string
	SRID           int
	Count          int64
}

// Reader gives read-only access to a GeoPackage.
type Reader struct {
	path   string
	db     *sql.DB
	layers []Layer
}

// Open opens a GeoPackage read-only and loads its feature layers.
func Open(ctx context.Context, path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, OpenError(path, err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, OpenError(path, err)
	}

	r := &Reader{path: path, db: db}
	if err = r.check(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if r.layers, err = r.readLayers(ctx); err != nil {
		_ = db.Close()
		return nil, ReadError("gpkg_contents", err)
	}
	slog.Debug("Opened GeoPackage", "path", path, "layers", len(r.layers))
	return r, nil
}

// Close releases the database handle.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Layers returns all feature layers.
func (r *Reader) Layers() []Layer {
	return r.layers
}

// Layer returns a feature layer by its table name.
func (r *Reader) Layer(name string) (Layer, error) {
	for _, v := range r.layers {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return Layer{}, LayerNotFoundError(r.path, name)
}

// Features reads all features of a layer ordered by primary key. The
// primary key becomes the feature ID, other attribute columns become
// properties. Geometries in a system other than WGS 84 carry the EPSG
// code in the schema.SRIDProperty property.
func (r *Reader) Features(ctx context.Context, name string) ([]*geojson.Feature, error) {
	l, err := r.Layer(name)
	if err != nil {
		return nil, err
	}

	pk, err := r.primaryKey(ctx, l.Name)
	if err != nil {
		return nil, ReadError(l.Name, err)
	}

	q := fmt.Sprintf("SELECT * FROM %s", quote(l.Name))
	if pk != "" {
		q += " ORDER BY " + quote(pk)
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, ReadError(l.Name, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, ReadError(l.Name, err)
	}

	res := make([]*geojson.Feature, 0, l.Count)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err = rows.Scan(ptrs...); err != nil {
			return nil, ReadError(l.Name, err)
		}
		f, err := r.feature(l, pk, cols, vals)
		if err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	if err = rows.Err(); err != nil {
		return nil, ReadError(l.Name, err)
	}
	return res, nil
}

func (r *Reader) feature(l Layer, pk string, cols []string, vals []any) (*geojson.Feature, error) {
	f := geojson.NewFeature(nil)
	var blob []byte
	for i, col := range cols {
		switch {
		case strings.EqualFold(col, l.GeometryColumn):
			blob, _ = vals[i].([]byte)
		case strings.EqualFold(col, pk):
			f.ID = vals[i]
		default:
			if b, ok := vals[i].([]byte); ok {
				f.Properties[col] = string(b)
			} else {
				f.Properties[col] = vals[i]
			}
		}
	}

	if blob == nil {
		return f, nil
	}
	g, srid, err := decodeGeometry(blob)
	if err != nil {
		return nil, GeometryError(l.Name, f.ID, err)
	}
	f.Geometry = g
	if srid <= 0 {
		srid = l.SRID
	}
	if srid > 0 && srid != geom.SRID {
		f.Properties[schema.SRIDProperty] = srid
	}
	return f, nil
}

func (r *Reader) check(ctx context.Context) error {
	var n int
	q := `SELECT count(*) FROM sqlite_master
  WHERE type = 'table' AND name IN ('gpkg_contents', 'gpkg_geometry_columns')`
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return NotGeoPackageError(r.path, err)
	}
	if n != 2 {
		return NotGeoPackageError(r.path,
			fmt.Errorf("gpkg_contents or gpkg_geometry_columns is missing"))
	}
	return nil
}

func (r *Reader) readLayers(ctx context.Context) ([]Layer, error) {
	q := `
    SELECT c.table_name, g.column_name, g.geometry_type_name, g.srs_id
    FROM gpkg_contents c
    JOIN gpkg_geometry_columns g ON c.table_name = g.table_name
    WHERE c.data_type = 'features'
    ORDER BY c.table_name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var res []Layer
	for rows.Next() {
		var l Layer
		err = rows.Scan(&l.Name, &l.GeometryColumn, &l.GeometryType, &l.SRID)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for i := range res {
		q := "SELECT count(*) FROM " + quote(res[i].Name)
		err = r.db.QueryRowContext(ctx, q).Scan(&res[i].Count)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// primaryKey returns the integer primary key column of a table, or an
// empty string if the table has none.
func (r *Reader) primaryKey(ctx context.Context, table string) (string, error) {
	rows, err := r.db.QueryContext(ctx, "PRAGMA table_info("+quote(table)+")")
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	var res string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    any
			pk      int
		)
		if err = rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return "", err
		}
		if pk == 1 {
			res = name
		}
	}
	return res, rows.Err()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
