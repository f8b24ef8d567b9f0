package spatial

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// SpatiaLite renders SQL for SQLite with the mod_spatialite extension.
type SpatiaLite struct{}

func (SpatiaLite) Name() string { return "spatialite" }

// ColumnType keeps geometries in plain BLOB columns. They become
// spatial columns when SpatialColumnStatements registers them.
func (SpatiaLite) ColumnType(string) string { return "BLOB" }

// GeomFromEWKB binds hex text, the only EWKB form SpatiaLite parses.
func (SpatiaLite) GeomFromEWKB(ewkb []byte, srid int) (string, any) {
	data := hex.EncodeToString(ewkb)
	if needsTransform(srid) {
		return fmt.Sprintf("Transform(GeomFromEWKB(?), %d)", SRID), data
	}
	return "GeomFromEWKB(?)", data
}

func (SpatiaLite) AsBinary(column string) string {
	return fmt.Sprintf("AsBinary(%s)", column)
}

func (SpatiaLite) MakePoint() string {
	return fmt.Sprintf("MakePoint(?, ?, %d)", SRID)
}

func (SpatiaLite) Intersects(a, b string) string {
	return fmt.Sprintf("ST_Intersects(%s, %s)", a, b)
}

// WithinRadius measures the distance on the ellipsoid, in metres for
// geometries in SRID 4326.
func (SpatiaLite) WithinRadius(geom, center string) string {
	return fmt.Sprintf("PtDistWithin(%s, (%s), ?, 1)", geom, center)
}

func (SpatiaLite) Union(column string) string {
	return fmt.Sprintf("ST_Union(%s)", column)
}

func (SpatiaLite) Random() string { return "random()" }

func (SpatiaLite) InitStatements() []string {
	return []string{
		"SELECT InitSpatialMetaData(1) WHERE CheckSpatialMetaData() = 0",
	}
}

func (SpatiaLite) SpatialColumnStatements(table, column, geomType string) []string {
	return []string{
		fmt.Sprintf(
			"SELECT RecoverGeometryColumn('%s', '%s', %d, '%s', 'XY')",
			table, column, SRID, strings.ToUpper(geomType),
		),
		fmt.Sprintf(
			"SELECT CreateSpatialIndex('%s', '%s') WHERE NOT EXISTS "+
				"(SELECT 1 FROM geometry_columns WHERE f_table_name = '%s' "+
				"AND f_geometry_column = '%s' AND spatial_index_enabled = 1)",
			table, column, table, column,
		),
	}
}

func (SpatiaLite) DropTable(table string) string {
	return fmt.Sprintf("SELECT DropTable(NULL, '%s', 1)", table)
}

func (SpatiaLite) ResetSequence(string) string { return "" }
