package spatial

import (
	"fmt"
	"strings"
)

// PostGIS renders SQL for PostgreSQL with the PostGIS extension.
type PostGIS struct{}

func (PostGIS) Name() string { return "postgis" }

func (PostGIS) ColumnType(geomType string) string {
	return fmt.Sprintf("geometry(%s,%d)", pgTypeName(geomType), SRID)
}

func (PostGIS) GeomFromEWKB(ewkb []byte, srid int) (string, any) {
	if needsTransform(srid) {
		return fmt.Sprintf("ST_Transform(ST_GeomFromEWKB(?), %d)", SRID), ewkb
	}
	return "ST_GeomFromEWKB(?)", ewkb
}

func (PostGIS) AsBinary(column string) string {
	return fmt.Sprintf("ST_AsEWKB(%s)", column)
}

func (PostGIS) MakePoint() string {
	return fmt.Sprintf("ST_SetSRID(ST_MakePoint(?, ?), %d)", SRID)
}

func (PostGIS) Intersects(a, b string) string {
	return fmt.Sprintf("ST_Intersects(%s, %s)", a, b)
}

// WithinRadius buffers center on the spheroid: the geography cast makes
// ST_Buffer take metres, the result is cast back to compare it with
// geometry columns.
func (PostGIS) WithinRadius(geom, center string) string {
	return fmt.Sprintf(
		"ST_Intersects(%s, ST_Buffer((%s)::geography, ?)::geometry)",
		geom, center,
	)
}

func (PostGIS) Union(column string) string {
	return fmt.Sprintf("ST_Union(%s)", column)
}

func (PostGIS) Random() string { return "random()" }

func (PostGIS) InitStatements() []string {
	return []string{"CREATE EXTENSION IF NOT EXISTS postgis"}
}

func (PostGIS) SpatialColumnStatements(table, column, _ string) []string {
	return []string{
		fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s USING GIST (%s)",
			table, column, table, column,
		),
	}
}

func (PostGIS) DropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)
}

func (PostGIS) ResetSequence(table string) string {
	return fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', 'id'), "+
			"COALESCE(MAX(id), 0) + 1, false) FROM %s",
		table, table,
	)
}

func pgTypeName(geomType string) string {
	switch strings.ToUpper(geomType) {
	case TypePoint:
		return "Point"
	case TypePolygon:
		return "Polygon"
	default:
		return "Geometry"
	}
}

func needsTransform(srid int) bool {
	return srid > 0 && srid != SRID
}
