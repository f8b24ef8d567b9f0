package geom

import (
	"context"
	"database/sql/driver"

	"github.com/idrop/idb/pkg/spatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// DataType is the GORM data type shared by geometry columns.
const DataType = "geometry"

// Scan implements sql.Scanner.
func (p *Point) Scan(src any) error {
	*p = Point{}
	if src == nil {
		return nil
	}
	g, srid, err := decode(src)
	if err != nil {
		return err
	}
	res, err := PointFrom(g, srid)
	if err != nil {
		return err
	}
	*p = res
	return nil
}

// Value implements driver.Valuer. It is used where GORM binds a plain
// value, writes go through GormValue.
func (p Point) Value() (driver.Value, error) {
	if !p.Valid {
		return nil, nil
	}
	return ewkb.Marshal(p.Point, sridOrDefault(p.SRID))
}

func (Point) GormDataType() string { return DataType }

func (Point) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return spatial.For(db.Dialector.Name()).ColumnType(spatial.TypePoint)
}

func (p Point) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	if !p.Valid {
		return clause.Expr{SQL: "NULL"}
	}
	return geomExpr(db, p.Point, p.SRID)
}

// Scan implements sql.Scanner.
func (p *Polygon) Scan(src any) error {
	*p = Polygon{}
	if src == nil {
		return nil
	}
	g, srid, err := decode(src)
	if err != nil {
		return err
	}
	res, err := PolygonFrom(g, srid)
	if err != nil {
		return err
	}
	*p = res
	return nil
}

// Value implements driver.Valuer.
func (p Polygon) Value() (driver.Value, error) {
	if !p.Valid {
		return nil, nil
	}
	return ewkb.Marshal(p.Polygon, sridOrDefault(p.SRID))
}

func (Polygon) GormDataType() string { return DataType }

func (Polygon) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return spatial.For(db.Dialector.Name()).ColumnType(spatial.TypePolygon)
}

func (p Polygon) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	if !p.Valid {
		return clause.Expr{SQL: "NULL"}
	}
	return geomExpr(db, p.Polygon, p.SRID)
}

func geomExpr(db *gorm.DB, g orb.Geometry, srid int) clause.Expr {
	srid = sridOrDefault(srid)
	data, err := ewkb.Marshal(g, srid)
	if err != nil {
		_ = db.AddError(err)
		return clause.Expr{SQL: "NULL"}
	}
	sql, v := spatial.For(db.Dialector.Name()).GeomFromEWKB(data, srid)
	return clause.Expr{SQL: sql, Vars: []any{v}}
}
