package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/idrop/idb/pkg/geom"
	"github.com/idrop/idb/pkg/schema"
	"github.com/idrop/idb/pkg/spatial"
	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

// Scope modifies a GORM query.
type Scope = func(*gorm.DB) *gorm.DB

var schemaCache = &sync.Map{}

// SampleScope filters inventories by f and orders them randomly. The
// query must be based on the inventories table.
func SampleScope(d spatial.Dialect, f SampleFilter) Scope {
	tbl := schema.Inventory{}.TableName()
	areas := schema.Studyarea{}.TableName()
	return func(db *gorm.DB) *gorm.DB {
		ids := f.AreaIDs()
		switch len(ids) {
		case 0:
		case 1:
			area := fmt.Sprintf("(SELECT geom FROM %s WHERE id = ?)", areas)
			db = db.Where(d.Intersects(tbl+".geom", area), ids[0])
		default:
			area := fmt.Sprintf(
				"(SELECT %s FROM %s WHERE id IN ?)", d.Union("geom"), areas,
			)
			db = db.Where(d.Intersects(tbl+".geom", area), ids)
		}
		db = attributeFilters(db, tbl, f.SpeciesID, f.TileID, f.Interpreted)
		return db.Order(d.Random()).Limit(f.Limit())
	}
}

// NeighborScope keeps inventories within q.RadiusMeters of the query
// centre, ordered by id. An inventory used as the centre is excluded.
func NeighborScope(d spatial.Dialect, q NeighborQuery) Scope {
	tbl := schema.Inventory{}.TableName()
	return func(db *gorm.DB) *gorm.DB {
		col := tbl + ".geom"
		if q.InventoryID > 0 {
			center := fmt.Sprintf("SELECT c.geom FROM %s c WHERE c.id = ?", tbl)
			db = db.Where(d.WithinRadius(col, center), q.InventoryID, q.RadiusMeters).
				Where(tbl+".id <> ?", q.InventoryID)
		} else {
			var lon, lat float64
			if q.Center != nil {
				lon, lat = q.Center.Lon(), q.Center.Lat()
			}
			db = db.Where(d.WithinRadius(col, d.MakePoint()), lon, lat, q.RadiusMeters)
		}
		db = attributeFilters(db, tbl, q.SpeciesID, 0, q.Interpreted)
		db = db.Order(tbl + ".id")
		if q.Limit > 0 {
			db = db.Limit(q.Limit)
		}
		return db
	}
}

func attributeFilters(
	db *gorm.DB,
	tbl string,
	speciesID, tileID uint,
	interpreted *bool,
) *gorm.DB {
	if speciesID > 0 {
		db = db.Where(tbl+".species_id = ?", speciesID)
	}
	if tileID > 0 {
		db = db.Where(tbl+".tile_id = ?", tileID)
	}
	if interpreted != nil {
		db = db.Where(tbl+".interpreted = ?", *interpreted)
	}
	return db
}

// ReadGeometry selects all columns of model, reading geometry columns in
// the binary form the geom types scan.
func ReadGeometry(d spatial.Dialect, model any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		s, err := gormschema.Parse(model, schemaCache, db.NamingStrategy)
		if err != nil {
			_ = db.AddError(err)
			return db
		}
		cols := make([]string, 0, len(s.DBNames))
		for _, f := range s.Fields {
			if f.DBName == "" {
				continue
			}
			col := s.Table + "." + f.DBName
			if f.DataType == geom.DataType {
				col = fmt.Sprintf("%s AS %s", d.AsBinary(col), f.DBName)
			}
			cols = append(cols, col)
		}
		return db.Select(strings.Join(cols, ", "))
	}
}
