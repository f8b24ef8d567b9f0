// Package store defines queries and updates of the labelling database.
//
// Store is the contract used by the labelling application and by the
// ingest command. The package also composes the spatial filters of
// those queries as GORM scopes, so the SQL can be checked without a
// database. The implementation lives in internal/iostore.
package store

import (
	"context"
	"slices"

	"github.com/idrop/idb/pkg/schema"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Store provides access to inventories, their interpretations and the
// reference data they depend on.
type Store interface {
	// AddInventories inserts inventory samples from GeoJSON point
	// features in a single transaction and returns their ids. Species
	// and tiles referenced by code or name must exist.
	AddInventories(ctx context.Context, features []*geojson.Feature) ([]uint, error)

	// AddTiles inserts tiles from GeoJSON polygon features in a single
	// transaction.
	AddTiles(ctx context.Context, features []*geojson.Feature) ([]uint, error)

	// AddStudyAreas inserts study areas from GeoJSON polygon features in a
	// single transaction.
	AddStudyAreas(ctx context.Context, features []*geojson.Feature) ([]uint, error)

	// Inventories returns a random sample of inventories matching the
	// filter.
	Inventories(ctx context.Context, f SampleFilter) (*geojson.FeatureCollection, error)

	// Neighbors returns inventories within a geodesic radius of an
	// inventory or a point.
	Neighbors(ctx context.Context, q NeighborQuery) (*geojson.FeatureCollection, error)

	// MarkInterpreted flags an inventory as interpreted. It fails if the
	// inventory does not exist or is already interpreted.
	MarkInterpreted(ctx context.Context, inventoryID uint) error

	// Interpret records an interpretation polygon and marks its inventory
	// as interpreted. Both changes are committed together. It returns the
	// id of the new interpretation.
	Interpret(ctx context.Context, in Interpretation) (uint, error)

	// GetOrCreateSpecies returns the species with the given code and name,
	// creating it when absent.
	GetOrCreateSpecies(ctx context.Context, code, name string) (*schema.Species, error)

	// Species lists all species ordered by code.
	Species(ctx context.Context) ([]schema.Species, error)

	// StudyAreas lists all study areas ordered by id.
	StudyAreas(ctx context.Context) ([]schema.Studyarea, error)

	// Transaction runs fn with a Store bound to one transaction. The
	// transaction is committed when fn returns nil and rolled back
	// otherwise.
	Transaction(ctx context.Context, fn func(Store) error) error
}

// SampleFilter selects inventories for random sampling. Zero values mean
// the filter is not set.
type SampleFilter struct {
	// NSamples is the maximum number of returned samples, 1 by default.
	NSamples int

	// StudyAreaID keeps inventories intersecting the study area.
	StudyAreaID uint

	// StudyAreaIDs keeps inventories intersecting the union of the study
	// areas. It is combined with StudyAreaID.
	StudyAreaIDs []uint

	// SpeciesID keeps inventories of one species.
	SpeciesID uint

	// TileID keeps inventories of one tile.
	TileID uint

	// Interpreted keeps interpreted or not interpreted inventories.
	Interpreted *bool
}

// Limit returns the number of samples to return.
func (f SampleFilter) Limit() int {
	if f.NSamples <= 0 {
		return 1
	}
	return f.NSamples
}

// AreaIDs returns distinct study area ids of the filter in ascending
// order.
func (f SampleFilter) AreaIDs() []uint {
	res := make([]uint, 0, len(f.StudyAreaIDs)+1)
	if f.StudyAreaID > 0 {
		res = append(res, f.StudyAreaID)
	}
	for _, v := range f.StudyAreaIDs {
		if v > 0 {
			res = append(res, v)
		}
	}
	slices.Sort(res)
	return slices.Compact(res)
}

// Validate checks the filter.
func (f SampleFilter) Validate() error {
	if f.NSamples < 0 {
		return InvalidFilterError("number of samples cannot be negative")
	}
	return nil
}

// NeighborQuery describes a radius search. The centre is the inventory
// InventoryID when it is set, Center otherwise.
type NeighborQuery struct {
	InventoryID uint
	Center      *orb.Point

	// RadiusMeters is the geodesic search radius.
	RadiusMeters float64

	SpeciesID   uint
	Interpreted *bool

	// Limit caps the result, 0 means no limit.
	Limit int
}

// Validate checks the query.
func (q NeighborQuery) Validate() error {
	switch {
	case q.InventoryID == 0 && q.Center == nil:
		return InvalidFilterError("inventory id or center point is required")
	case q.InventoryID > 0 && q.Center != nil:
		return InvalidFilterError("use either inventory id or center point")
	case q.RadiusMeters <= 0:
		return InvalidFilterError("radius must be positive")
	case q.Limit < 0:
		return InvalidFilterError("limit cannot be negative")
	}
	if q.Center != nil {
		lon, lat := q.Center.Lon(), q.Center.Lat()
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return InvalidFilterError("center is outside of WGS 84 bounds")
		}
	}
	return nil
}

// Interpretation is a labeller's answer for an inventory sample.
type Interpretation struct {
	InventoryID uint

	// Geom is the drawn polygon in WGS 84.
	Geom orb.Geometry

	// SpeciesID or SpeciesCode set the verified species. When both are
	// empty the species of the inventory is used.
	SpeciesID   uint
	SpeciesCode string
}

// Validate checks the interpretation.
func (in Interpretation) Validate() error {
	if in.InventoryID == 0 {
		return InvalidFilterError("inventory id is required")
	}
	if in.Geom == nil {
		return InvalidFilterError("interpretation polygon is required")
	}
	return nil
}
