package schema

import (
	"github.com/idrop/idb/pkg/spatial"
	"gorm.io/gorm"
)

// SpatialColumn describes a geometry column that needs registration and
// a spatial index after the table is created.
type SpatialColumn struct {
	Table  string
	Column string
	Type   string
}

// AllModels returns all schema models for GORM AutoMigrate, referenced
// tables first.
func AllModels() []any {
	return []any{
		&Species{},
		&Tile{},
		&Studyarea{},
		&Inventory{},
		&Interpreted{},
	}
}

// TableNames returns table names in the order of AllModels.
func TableNames() []string {
	return []string{
		Species{}.TableName(),
		Tile{}.TableName(),
		Studyarea{}.TableName(),
		Inventory{}.TableName(),
		Interpreted{}.TableName(),
	}
}

// SpatialColumns returns all geometry columns of the schema.
func SpatialColumns() []SpatialColumn {
	return []SpatialColumn{
		{Tile{}.TableName(), "geom", spatial.TypePolygon},
		{Studyarea{}.TableName(), "geom", spatial.TypePolygon},
		{Inventory{}.TableName(), "geom", spatial.TypePoint},
		{Interpreted{}.TableName(), "geom", spatial.TypePolygon},
	}
}

// Migrate runs GORM AutoMigrate to create or update schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
