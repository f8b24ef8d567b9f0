// Package spatial renders SQL fragments for the spatial databases idb
// works with. Nothing here talks to a database: a Dialect only knows
// how PostGIS or SpatiaLite spell the operations that queries,
// migrations and geometry columns need.
package spatial

// SRID is the spatial reference of every geometry column (WGS 84).
const SRID = 4326

// Geometry type names used by geometry columns.
const (
	TypePoint   = "POINT"
	TypePolygon = "POLYGON"
)

// Dialect renders engine-specific spatial SQL.
//
// Methods that return SQL with placeholders document the order of their
// arguments. Column and expression arguments are inserted verbatim and
// must come from trusted code, never from user input.
type Dialect interface {
	// Name returns "postgis" or "spatialite".
	Name() string

	// ColumnType returns the column definition for a geometry type.
	ColumnType(geomType string) string

	// GeomFromEWKB returns an expression constructing a geometry from
	// EWKB data with a single placeholder, and the value to bind to it.
	// Geometries with a SRID other than SRID are transformed to SRID.
	GeomFromEWKB(ewkb []byte, srid int) (string, any)

	// AsBinary returns an expression reading column as (E)WKB.
	AsBinary(column string) string

	// MakePoint returns a point expression in SRID with two
	// placeholders: longitude and latitude.
	MakePoint() string

	// Intersects returns a predicate true when geometries a and b
	// intersect.
	Intersects(a, b string) string

	// WithinRadius returns a predicate true when geom is within a
	// geodesic distance of center. It adds one placeholder, the
	// distance in metres, after any placeholders of center.
	WithinRadius(geom, center string) string

	// Union returns an aggregate merging geometries of column.
	Union(column string) string

	// Random returns an expression for random ordering.
	Random() string

	// InitStatements enable spatial support in an empty database.
	InitStatements() []string

	// SpatialColumnStatements register a geometry column created by
	// the ORM and index it.
	SpatialColumnStatements(table, column, geomType string) []string

	// DropTable returns a statement removing table with its spatial
	// metadata.
	DropTable(table string) string

	// ResetSequence returns a statement syncing the id sequence of
	// table with its data, or an empty string when the engine does
	// not need one.
	ResetSequence(table string) string
}

// For returns the dialect of a GORM dialector name. Anything that is
// not SQLite is treated as PostgreSQL.
func For(dialectorName string) Dialect {
	if dialectorName == "sqlite" {
		return SpatiaLite{}
	}
	return PostGIS{}
}

// ByDriver returns the dialect of a configured database driver.
func ByDriver(driver string) Dialect {
	if driver == "spatialite" {
		return SpatiaLite{}
	}
	return PostGIS{}
}
