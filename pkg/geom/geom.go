// Package geom provides geometry column types for GORM models.
//
// Point and Polygon wrap paulmach/orb geometries. They are written as EWKB
// through the constructor of the spatial dialect in use and read back from
// EWKB, WKB or hex-encoded EWKB, which covers what PostGIS and SpatiaLite
// return.
package geom

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/idrop/idb/pkg/spatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/encoding/wkb"
)

// SRID is the spatial reference used when none is given.
const SRID = spatial.SRID

// ErrType is returned when a stored geometry has an unexpected type.
var ErrType = errors.New("unexpected geometry type")

// Point is a nullable point column.
type Point struct {
	orb.Point
	SRID  int
	Valid bool
}

// NewPoint creates a WGS 84 point.
func NewPoint(lon, lat float64) Point {
	return Point{Point: orb.Point{lon, lat}, SRID: SRID, Valid: true}
}

// Polygon is a nullable polygon column.
type Polygon struct {
	orb.Polygon
	SRID  int
	Valid bool
}

// NewPolygon creates a WGS 84 polygon.
func NewPolygon(p orb.Polygon) Polygon {
	return Polygon{Polygon: p, SRID: SRID, Valid: len(p) > 0}
}

// PointFrom converts an orb geometry to a Point.
func PointFrom(g orb.Geometry, srid int) (Point, error) {
	switch v := g.(type) {
	case orb.Point:
		return Point{Point: v, SRID: sridOrDefault(srid), Valid: true}, nil
	case orb.MultiPoint:
		if len(v) == 1 {
			return Point{Point: v[0], SRID: sridOrDefault(srid), Valid: true}, nil
		}
	}
	return Point{}, typeError("Point", g)
}

// PolygonFrom converts an orb geometry to a Polygon. A MultiPolygon with
// a single part is accepted.
func PolygonFrom(g orb.Geometry, srid int) (Polygon, error) {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) > 0 {
			return Polygon{Polygon: v, SRID: sridOrDefault(srid), Valid: true}, nil
		}
	case orb.MultiPolygon:
		if len(v) == 1 && len(v[0]) > 0 {
			return Polygon{Polygon: v[0], SRID: sridOrDefault(srid), Valid: true}, nil
		}
	}
	return Polygon{}, typeError("Polygon", g)
}

// Geometry returns the wrapped orb geometry or nil for NULL.
func (p Point) Geometry() orb.Geometry {
	if !p.Valid {
		return nil
	}
	return p.Point
}

// Geometry returns the wrapped orb geometry or nil for NULL.
func (p Polygon) Geometry() orb.Geometry {
	if !p.Valid {
		return nil
	}
	return p.Polygon
}

func typeError(want string, g orb.Geometry) error {
	got := "null"
	if g != nil {
		got = g.GeoJSONType()
	}
	return fmt.Errorf("%w: want %s, got %s", ErrType, want, got)
}

func sridOrDefault(srid int) int {
	if srid <= 0 {
		return SRID
	}
	return srid
}

// decode reads a geometry stored as EWKB, WKB or their hex text.
func decode(src any) (orb.Geometry, int, error) {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil, 0, fmt.Errorf("cannot scan %T into geometry", src)
	}

	if isHex(data) {
		raw := make([]byte, hex.DecodedLen(len(data)))
		n, err := hex.Decode(raw, data)
		if err != nil {
			return nil, 0, fmt.Errorf("cannot decode hex geometry: %w", err)
		}
		data = raw[:n]
	}

	g, srid, err := ewkb.Unmarshal(data)
	if err != nil {
		var wkbErr error
		if g, wkbErr = wkb.Unmarshal(data); wkbErr != nil {
			return nil, 0, fmt.Errorf("cannot decode geometry: %w", err)
		}
	}
	return g, sridOrDefault(srid), nil
}

// isHex reports whether data looks like hex text. Binary (E)WKB starts
// with a byte order mark of 0 or 1, hex text with the character '0'.
func isHex(data []byte) bool {
	if len(data) == 0 || len(data)%2 != 0 || data[0] != '0' {
		return false
	}
	for _, c := range data {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
