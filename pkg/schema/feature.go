package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
	"github.com/idrop/idb/pkg/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stoewer/go-strcase"
)

// SRIDProperty is the optional feature property with the EPSG code of
// the feature coordinates. Coordinates without it are in WGS 84, other
// systems are transformed to WGS 84 by the database.
const SRIDProperty = "srid"

// InventoryRecord is an Inventory decoded from a GeoJSON feature. Its
// species and tile may still be referenced by code and name.
type InventoryRecord struct {
	Inventory   Inventory
	SpeciesCode string
	TileName    string
}

// Snakify converts a camelCase key to snake_case. Snake case keys are
// returned unchanged.
func Snakify(s string) string {
	return strcase.SnakeCase(s)
}

// Camelify converts a snake_case key to lowerCamelCase. Camel case keys
// are returned unchanged.
func Camelify(s string) string {
	return strcase.LowerCamelCase(s)
}

// NormalizeProperties returns a copy of props with snake_case keys.
func NormalizeProperties(props map[string]any) map[string]any {
	res := make(map[string]any, len(props))
	for k, v := range props {
		res[Snakify(k)] = v
	}
	return res
}

// CamelizeCollection converts property keys of all features of fc to
// lowerCamelCase in place.
func CamelizeCollection(fc *geojson.FeatureCollection) {
	for _, f := range fc.Features {
		props := make(geojson.Properties, len(f.Properties))
		for k, v := range f.Properties {
			props[Camelify(k)] = v
		}
		f.Properties = props
	}
}

// InventoryFromFeature decodes an inventory sample. The species is taken
// from "species_id" or from a species code in "species"/"species_code",
// the tile from "tile_id" or a tile name in "tile"/"tile_name".
func InventoryFromFeature(f *geojson.Feature) (*InventoryRecord, error) {
	if f == nil {
		return nil, GeometryError("inventory", nil, "feature is empty")
	}
	p := NormalizeProperties(f.Properties)
	srid, err := optInt(p, SRIDProperty)
	if err != nil {
		return nil, PropertyError("inventory", f.ID, SRIDProperty, err)
	}
	pt, err := geom.PointFrom(f.Geometry, intOrZero(srid))
	if err != nil {
		return nil, GeometryError("inventory", f.ID, err.Error())
	}

	res := &InventoryRecord{Inventory: Inventory{Geom: pt}}
	inv := &res.Inventory

	if inv.SpeciesID, err = optUint(p, "species_id"); err != nil {
		return nil, PropertyError("inventory", f.ID, "species_id", err)
	}
	if inv.SpeciesID == nil {
		res.SpeciesCode = firstString(p, "species_code", "species")
	}
	if inv.TileID, err = optUint(p, "tile_id"); err != nil {
		return nil, PropertyError("inventory", f.ID, "tile_id", err)
	}
	if inv.TileID == nil {
		res.TileName = firstString(p, "tile_name", "tile")
	}
	inv.Quality = firstString(p, "quality")
	if inv.ExpNum, err = optInt(p, "exp_num"); err != nil {
		return nil, PropertyError("inventory", f.ID, "exp_num", err)
	}
	if inv.DBH, err = optInt(p, "dbh"); err != nil {
		return nil, PropertyError("inventory", f.ID, "dbh", err)
	}
	if b, ok := toBool(p["interpreted"]); ok {
		inv.Interpreted = b
	}
	if s := firstString(p, "comment"); s != "" {
		inv.Comment = &s
	}
	return res, nil
}

// TileFromFeature decodes an inventory tile.
func TileFromFeature(f *geojson.Feature) (*Tile, error) {
	poly, name, err := namedPolygon("tile", f)
	if err != nil {
		return nil, err
	}
	return &Tile{Geom: poly, Name: name}, nil
}

// StudyareaFromFeature decodes a study area.
func StudyareaFromFeature(f *geojson.Feature) (*Studyarea, error) {
	poly, name, err := namedPolygon("studyarea", f)
	if err != nil {
		return nil, err
	}
	return &Studyarea{Geom: poly, Name: name}, nil
}

func namedPolygon(entity string, f *geojson.Feature) (geom.Polygon, string, error) {
	if f == nil {
		return geom.Polygon{}, "", GeometryError(entity, nil, "feature is empty")
	}
	p := NormalizeProperties(f.Properties)
	srid, err := optInt(p, SRIDProperty)
	if err != nil {
		return geom.Polygon{}, "", PropertyError(entity, f.ID, SRIDProperty, err)
	}
	poly, err := geom.PolygonFrom(f.Geometry, intOrZero(srid))
	if err != nil {
		return geom.Polygon{}, "", GeometryError(entity, f.ID, err.Error())
	}
	return poly, firstString(p, "name"), nil
}

// Feature converts the sample to GeoJSON. Species code and name are
// added when Species is loaded.
func (i Inventory) Feature() *geojson.Feature {
	f := geojson.NewFeature(i.Geom.Geometry())
	f.ID = i.ID
	f.Properties["id"] = i.ID
	f.Properties["species_id"] = uintOrNil(i.SpeciesID)
	if i.Species != nil {
		f.Properties["species_code"] = i.Species.Code
		f.Properties["species_name"] = i.Species.Name
	}
	f.Properties["tile_id"] = uintOrNil(i.TileID)
	f.Properties["quality"] = i.Quality
	f.Properties["exp_num"] = intOrNil(i.ExpNum)
	f.Properties["dbh"] = intOrNil(i.DBH)
	f.Properties["interpreted"] = i.Interpreted
	if i.Comment != nil {
		f.Properties["comment"] = *i.Comment
	} else {
		f.Properties["comment"] = nil
	}
	return f
}

// Feature converts the tile to GeoJSON.
func (t Tile) Feature() *geojson.Feature {
	f := geojson.NewFeature(t.Geom.Geometry())
	f.ID = t.ID
	f.Properties["id"] = t.ID
	f.Properties["name"] = t.Name
	return f
}

// Feature converts the study area to GeoJSON.
func (s Studyarea) Feature() *geojson.Feature {
	f := geojson.NewFeature(s.Geom.Geometry())
	f.ID = s.ID
	f.Properties["id"] = s.ID
	f.Properties["name"] = s.Name
	return f
}

// Feature converts the interpretation to GeoJSON.
func (i Interpreted) Feature() *geojson.Feature {
	f := geojson.NewFeature(i.Geom.Geometry())
	f.ID = i.ID
	f.Properties["id"] = i.ID
	f.Properties["species_id"] = uintOrNil(i.SpeciesID)
	if i.Species != nil {
		f.Properties["species_code"] = i.Species.Code
	}
	f.Properties["inventory_id"] = uintOrNil(i.InventoryID)
	f.Properties["time_created"] = i.TimeCreated.UTC().Format(time.RFC3339)
	return f
}

// InventoryCollection wraps samples into a FeatureCollection.
func InventoryCollection(rows []Inventory) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, v := range rows {
		fc.Append(v.Feature())
	}
	return fc
}

// PolygonFromGeometry returns the polygon of a GeoJSON geometry used for
// interpretations.
func PolygonFromGeometry(g orb.Geometry) (geom.Polygon, error) {
	poly, err := geom.PolygonFrom(g, 0)
	if err != nil {
		return geom.Polygon{}, GeometryError("interpreted", nil, err.Error())
	}
	return poly, nil
}

// GeometryFromGeoJSON reads the geometry of a GeoJSON document. The
// document may be a bare geometry, a Feature, or a FeatureCollection with
// exactly one feature.
func GeometryFromGeoJSON(data []byte) (orb.Geometry, error) {
	var doc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, GeometryError("geojson", nil, err.Error())
	}

	switch doc.Type {
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, GeometryError("geojson", nil, err.Error())
		}
		return geometryOrError(f.Geometry)
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, GeometryError("geojson", nil, err.Error())
		}
		if len(fc.Features) != 1 {
			return nil, GeometryError("geojson", nil,
				fmt.Sprintf("expected 1 feature, got %d", len(fc.Features)))
		}
		return geometryOrError(fc.Features[0].Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, GeometryError("geojson", nil, err.Error())
		}
		return geometryOrError(g.Geometry())
	}
}

func geometryOrError(g orb.Geometry) (orb.Geometry, error) {
	if g == nil {
		return nil, GeometryError("geojson", nil, "geometry is null")
	}
	return g, nil
}

func firstString(p map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := toString(p[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

func optInt(p map[string]any, key string) (*int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	i, err := toInt(v)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func optUint(p map[string]any, key string) (*uint, error) {
	i, err := optInt(p, key)
	if err != nil || i == nil {
		return nil, err
	}
	if *i <= 0 {
		return nil, fmt.Errorf("id must be positive, got %d", *i)
	}
	res := uint(*i)
	return &res, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, fmt.Errorf("empty number")
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return floatToInt(f)
	default:
		return 0, fmt.Errorf("cannot use %T as integer", v)
	}
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case []byte:
		return strings.TrimSpace(string(s)), true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int64:
		return b != 0, true
	case float64:
		return b != 0, true
	case string:
		res, err := strconv.ParseBool(strings.TrimSpace(b))
		return res, err == nil
	default:
		return false, false
	}
}

func uintOrNil(u *uint) any {
	if u == nil {
		return nil
	}
	return *u
}

func intOrZero(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func intOrNil(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

// GeometryError is returned when a feature has no geometry or a geometry
// of the wrong type.
func GeometryError(entity string, id any, reason string) error {
	msg := "Feature <em>%v</em> of <em>%s</em> has unusable geometry: %s"
	vars := []any{featureID(id), entity, reason}
	return &gn.Error{
		Code: errcode.FeatureGeometryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("%s feature %v: %s", entity, featureID(id), reason),
	}
}

// PropertyError is returned when a feature property cannot be converted.
func PropertyError(entity string, id any, prop string, err error) error {
	msg := "Feature <em>%v</em> of <em>%s</em> has invalid <em>%s</em>"
	vars := []any{featureID(id), entity, prop}
	return &gn.Error{
		Code: errcode.FeaturePropertyError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("%s feature %v, property %s: %w", entity, featureID(id), prop, err),
	}
}

func featureID(id any) any {
	if id == nil {
		return "?"
	}
	return id
}
