package iostore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/idrop/idb/internal/iodb"
	"github.com/idrop/idb/internal/iostore"
	"github.com/idrop/idb/internal/iotesting"
	"github.com/idrop/idb/pkg/errcode"
	"github.com/idrop/idb/pkg/store"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Near the equator 0.0001 degree is about 11 metres.
var (
	north = orb.Polygon{orb.Ring{{9, 1}, {9.1, 1}, {9.1, 1.1}, {9, 1.1}, {9, 1}}}
	south = orb.Polygon{orb.Ring{{9, 0.8}, {9.1, 0.8}, {9.1, 0.9}, {9, 0.9}, {9, 0.8}}}
)

func TestNew_NotConnected(t *testing.T) {
	_, err := iostore.New(iodb.NewPostGIS(), 10)
	require.Error(t, err)
	assert.True(t, store.HasCode(err, errcode.DBNotConnectedError))
}

// fixture creates two species, a tile in the north area and five
// inventories: three close to each other in the north, one far in the
// north and one in the south.
func fixture(t *testing.T, s store.Store) []uint {
	t.Helper()
	ctx := context.Background()

	_, err := s.GetOrCreateSpecies(ctx, "SAP", "sapelli")
	require.NoError(t, err)
	_, err = s.GetOrCreateSpecies(ctx, "AYO", "ayous")
	require.NoError(t, err)

	tile := geojson.NewFeature(north)
	tile.Properties["name"] = "T1"
	_, err = s.AddTiles(ctx, []*geojson.Feature{tile})
	require.NoError(t, err)

	_, err = s.AddStudyAreas(ctx, []*geojson.Feature{
		named(north, "north"), named(south, "south"),
	})
	require.NoError(t, err)

	features := []*geojson.Feature{
		inventory(orb.Point{9.05, 1.05}, "SAP", 1),
		inventory(orb.Point{9.0501, 1.05}, "SAP", 2),
		inventory(orb.Point{9.05, 1.0501}, "AYO", 3),
		inventory(orb.Point{9.09, 1.09}, "SAP", 4),
		inventory(orb.Point{9.05, 0.85}, "AYO", 0),
	}
	features[4].Properties["tile"] = nil

	ids, err := s.AddInventories(ctx, features)
	require.NoError(t, err)
	require.Len(t, ids, 5)
	return ids
}

func TestStore(t *testing.T) {
	for driver, cfg := range iotesting.Backends(t) {
		t.Run(driver, func(t *testing.T) {
			op := iotesting.FreshSchema(t, cfg)
			s, err := iostore.New(op, 2)
			require.NoError(t, err)
			ids := fixture(t, s)

			t.Run("species", func(t *testing.T) { testSpecies(t, s) })
			t.Run("add rollback", func(t *testing.T) { testAddRollback(t, s) })
			t.Run("sample", func(t *testing.T) { testSample(t, s) })
			t.Run("neighbors", func(t *testing.T) { testNeighbors(t, s, ids) })
			t.Run("mark", func(t *testing.T) { testMark(t, s, ids) })
			t.Run("interpret", func(t *testing.T) { testInterpret(t, s, ids) })
			t.Run("transaction", func(t *testing.T) { testTransaction(t, s, ids) })
		})
	}
}

func testSpecies(t *testing.T, s store.Store) {
	ctx := context.Background()
	sp, err := s.GetOrCreateSpecies(ctx, "SAP", "sapelli")
	require.NoError(t, err)
	assert.Equal(t, "sapelli", sp.Name)

	all, err := s.Species(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "AYO", all[0].Code)

	_, err = s.GetOrCreateSpecies(ctx, "", "nameless")
	assert.True(t, store.HasCode(err, errcode.StoreInvalidFilterError))

	areas, err := s.StudyAreas(ctx)
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, "north", areas[0].Name)
	assert.True(t, areas[0].Geom.Valid)
	assert.Len(t, areas[0].Geom.Polygon[0], 5)
}

func testAddRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	before := count(t, s, store.SampleFilter{NSamples: 100})

	_, err := s.AddInventories(ctx, []*geojson.Feature{
		inventory(orb.Point{9.02, 1.02}, "SAP", 10),
		inventory(orb.Point{9.03, 1.03}, "XXX", 11),
	})
	require.Error(t, err)
	assert.True(t, store.HasCode(err, errcode.StoreUnknownSpeciesError))

	// duplicate exploitation number in the same tile
	_, err = s.AddInventories(ctx, []*geojson.Feature{
		inventory(orb.Point{9.02, 1.02}, "SAP", 12),
		inventory(orb.Point{9.03, 1.03}, "SAP", 1),
	})
	require.Error(t, err)
	assert.True(t, store.HasCode(err, errcode.StoreInsertError))

	assert.Equal(t, before, count(t, s, store.SampleFilter{NSamples: 100}))
}

func testSample(t *testing.T, s store.Store) {
	ctx := context.Background()

	fc, err := s.Inventories(ctx, store.SampleFilter{})
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)

	assert.Equal(t, 5, count(t, s, store.SampleFilter{NSamples: 100}))
	assert.Equal(t, 3, count(t, s, store.SampleFilter{NSamples: 100, SpeciesID: 1}))

	areas, err := s.StudyAreas(ctx)
	require.NoError(t, err)
	northID, southID := areas[0].ID, areas[1].ID

	f := store.SampleFilter{NSamples: 100, StudyAreaID: northID}
	assert.Equal(t, 4, count(t, s, f))

	f = store.SampleFilter{NSamples: 100, StudyAreaID: southID}
	fc, err = s.Inventories(ctx, f)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	props := fc.Features[0].Properties
	assert.Equal(t, "AYO", props["species_code"])
	assert.Nil(t, props["tile_id"])
	pt, ok := fc.Features[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, 0.85, pt.Lat(), 1e-9)

	f = store.SampleFilter{NSamples: 100, StudyAreaIDs: []uint{northID, southID}}
	assert.Equal(t, 5, count(t, s, f))

	f = store.SampleFilter{NSamples: 2, StudyAreaID: northID, SpeciesID: 1}
	assert.Equal(t, 2, count(t, s, f))

	_, err = s.Inventories(ctx, store.SampleFilter{StudyAreaID: 999})
	require.Error(t, err)
	assert.True(t, store.HasCode(err, errcode.StoreUnknownStudyAreaError))
}

func testNeighbors(t *testing.T, s store.Store, ids []uint) {
	ctx := context.Background()

	fc, err := s.Neighbors(ctx, store.NeighborQuery{InventoryID: ids[0], RadiusMeters: 20})
	require.NoError(t, err)
	assert.Equal(t, []uint{ids[1], ids[2]}, featureIDs(fc))

	fc, err = s.Neighbors(ctx, store.NeighborQuery{
		InventoryID: ids[0], RadiusMeters: 20, SpeciesID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{ids[1]}, featureIDs(fc))

	// 5 metres reach none of the neighbours 11 metres away
	fc, err = s.Neighbors(ctx, store.NeighborQuery{InventoryID: ids[0], RadiusMeters: 5})
	require.NoError(t, err)
	assert.Empty(t, fc.Features)

	center := orb.Point{9.05, 1.05}
	fc, err = s.Neighbors(ctx, store.NeighborQuery{Center: &center, RadiusMeters: 20, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []uint{ids[0], ids[1]}, featureIDs(fc))

	_, err = s.Neighbors(ctx, store.NeighborQuery{InventoryID: 999, RadiusMeters: 20})
	assert.True(t, store.HasCode(err, errcode.StoreNotFoundError))

	_, err = s.Neighbors(ctx, store.NeighborQuery{InventoryID: ids[0]})
	assert.True(t, store.HasCode(err, errcode.StoreInvalidFilterError))
}

func testMark(t *testing.T, s store.Store, ids []uint) {
	ctx := context.Background()
	id := ids[3]

	require.NoError(t, s.MarkInterpreted(ctx, id))

	err := s.MarkInterpreted(ctx, id)
	require.Error(t, err)
	assert.True(t, store.HasCode(err, errcode.StoreAlreadyInterpretedError))

	err = s.MarkInterpreted(ctx, 999)
	assert.True(t, store.HasCode(err, errcode.StoreNotFoundError))

	yes := true
	fc, err := s.Inventories(ctx, store.SampleFilter{NSamples: 10, Interpreted: &yes})
	require.NoError(t, err)
	assert.Equal(t, []uint{id}, featureIDs(fc))
}

func testInterpret(t *testing.T, s store.Store, ids []uint) {
	ctx := context.Background()
	square := orb.Polygon{orb.Ring{
		{9.0499, 1.0499}, {9.0501, 1.0499}, {9.0501, 1.0501},
		{9.0499, 1.0501}, {9.0499, 1.0499},
	}}

	id, err := s.Interpret(ctx, store.Interpretation{
		InventoryID: ids[0], Geom: square, SpeciesCode: "AYO",
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	// already interpreted, no second record is created
	_, err = s.Interpret(ctx, store.Interpretation{InventoryID: ids[0], Geom: square})
	assert.True(t, store.HasCode(err, errcode.StoreAlreadyInterpretedError))

	// unknown species leaves the inventory untouched
	_, err = s.Interpret(ctx, store.Interpretation{
		InventoryID: ids[1], Geom: square, SpeciesCode: "XXX",
	})
	assert.True(t, store.HasCode(err, errcode.StoreUnknownSpeciesError))
	require.NoError(t, s.MarkInterpreted(ctx, ids[1]))

	_, err = s.Interpret(ctx, store.Interpretation{InventoryID: 999, Geom: square})
	assert.True(t, store.HasCode(err, errcode.StoreNotFoundError))

	_, err = s.Interpret(ctx, store.Interpretation{InventoryID: ids[2], Geom: orb.Point{1, 1}})
	assert.True(t, store.HasCode(err, errcode.FeatureGeometryError))
}

func testTransaction(t *testing.T, s store.Store, ids []uint) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx store.Store) error {
		if err := tx.MarkInterpreted(ctx, ids[2]); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.PanicsWithValue(t, "boom", func() {
		_ = s.Transaction(ctx, func(tx store.Store) error {
			if err := tx.MarkInterpreted(ctx, ids[2]); err != nil {
				return err
			}
			panic("boom")
		})
	})

	// both rolled back, so the inventory can be marked now
	require.NoError(t, s.MarkInterpreted(ctx, ids[2]))
}

func count(t *testing.T, s store.Store, f store.SampleFilter) int {
	t.Helper()
	fc, err := s.Inventories(context.Background(), f)
	require.NoError(t, err)
	return len(fc.Features)
}

func featureIDs(fc *geojson.FeatureCollection) []uint {
	res := make([]uint, len(fc.Features))
	for i, f := range fc.Features {
		res[i] = f.Properties["id"].(uint)
	}
	return res
}

func named(p orb.Polygon, name string) *geojson.Feature {
	f := geojson.NewFeature(p)
	f.Properties["name"] = name
	return f
}

func inventory(pt orb.Point, species string, expNum int) *geojson.Feature {
	f := geojson.NewFeature(pt)
	f.Properties["species"] = species
	f.Properties["tile"] = "T1"
	f.Properties["quality"] = "A"
	if expNum > 0 {
		f.Properties["expNum"] = expNum
	}
	f.Properties["dbh"] = 60
	return f
}
