package store_test

import (
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
	"github.com/idrop/idb/pkg/schema"
	"github.com/idrop/idb/pkg/spatial"
	"github.com/idrop/idb/pkg/store"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(
		postgres.New(postgres.Config{DSN: "host=localhost user=idb dbname=idb"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true},
	)
	require.NoError(t, err)
	return db
}

func render(db *gorm.DB, scopes ...store.Scope) (string, []any) {
	var rows []schema.Inventory
	stmt := db.Model(&schema.Inventory{}).Scopes(scopes...).Find(&rows).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestSampleFilterDefaults(t *testing.T) {
	f := store.SampleFilter{}
	assert.Equal(t, 1, f.Limit())
	assert.Empty(t, f.AreaIDs())
	require.NoError(t, f.Validate())

	f = store.SampleFilter{NSamples: 5, StudyAreaID: 3, StudyAreaIDs: []uint{7, 3, 0, 1}}
	assert.Equal(t, 5, f.Limit())
	assert.Equal(t, []uint{1, 3, 7}, f.AreaIDs())

	err := store.SampleFilter{NSamples: -1}.Validate()
	require.Error(t, err)
	assert.True(t, store.HasCode(err, errcode.StoreInvalidFilterError))
}

func TestSampleScope(t *testing.T) {
	db := dryRun(t)
	yes := true

	sql, vars := render(db, store.SampleScope(spatial.PostGIS{}, store.SampleFilter{}))
	assert.Contains(t, sql, `FROM "inventories"`)
	assert.Contains(t, sql, "ORDER BY random()")
	assert.Contains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "ST_Intersects")
	assert.Contains(t, vars, 1)

	f := store.SampleFilter{
		NSamples:    10,
		StudyAreaID: 2,
		SpeciesID:   4,
		TileID:      8,
		Interpreted: &yes,
	}
	sql, vars = render(db, store.SampleScope(spatial.PostGIS{}, f))
	assert.Contains(t, sql,
		"ST_Intersects(inventories.geom, (SELECT geom FROM studyareas WHERE id = $1))")
	assert.Contains(t, sql, "inventories.species_id = $2")
	assert.Contains(t, sql, "inventories.tile_id = $3")
	assert.Contains(t, sql, "inventories.interpreted = $4")
	assert.Equal(t, []any{uint(2), uint(4), uint(8), true, 10}, vars)
}

func TestSampleScopeUnion(t *testing.T) {
	db := dryRun(t)
	f := store.SampleFilter{StudyAreaIDs: []uint{5, 6}}

	sql, vars := render(db, store.SampleScope(spatial.PostGIS{}, f))
	assert.Contains(t, sql,
		"ST_Intersects(inventories.geom, (SELECT ST_Union(geom) FROM studyareas WHERE id IN ($1,$2)))")
	assert.Equal(t, []any{uint(5), uint(6), 1}, vars)

	sql, _ = render(db, store.SampleScope(spatial.SpatiaLite{}, f))
	assert.Contains(t, sql, "ST_Union(geom)")
	assert.Contains(t, sql, "ORDER BY random()")
}

func TestNeighborScope(t *testing.T) {
	db := dryRun(t)
	no := false

	q := store.NeighborQuery{InventoryID: 3, RadiusMeters: 50, SpeciesID: 2, Interpreted: &no}
	require.NoError(t, q.Validate())
	sql, vars := render(db, store.NeighborScope(spatial.PostGIS{}, q))
	assert.Contains(t, sql,
		"ST_Intersects(inventories.geom, ST_Buffer((SELECT c.geom FROM inventories c WHERE c.id = $1)::geography, $2)::geometry)")
	assert.Contains(t, sql, "inventories.id <> $3")
	assert.Contains(t, sql, "ORDER BY inventories.id")
	assert.NotContains(t, sql, "LIMIT")
	assert.Equal(t, []any{uint(3), 50.0, uint(3), uint(2), false}, vars)

	pt := orb.Point{16.05, 2.2}
	q = store.NeighborQuery{Center: &pt, RadiusMeters: 25, Limit: 5}
	require.NoError(t, q.Validate())
	sql, vars = render(db, store.NeighborScope(spatial.SpatiaLite{}, q))
	assert.Contains(t, sql,
		"PtDistWithin(inventories.geom, (MakePoint($1, $2, 4326)), $3, 1)")
	assert.NotContains(t, sql, "<>")
	assert.Equal(t, []any{16.05, 2.2, 25.0, 5}, vars)
}

func TestNeighborQueryValidate(t *testing.T) {
	pt := orb.Point{1, 2}
	far := orb.Point{200, 2}
	tests := []struct {
		msg string
		q   store.NeighborQuery
	}{
		{"no centre", store.NeighborQuery{RadiusMeters: 1}},
		{"two centres", store.NeighborQuery{InventoryID: 1, Center: &pt, RadiusMeters: 1}},
		{"zero radius", store.NeighborQuery{InventoryID: 1}},
		{"negative radius", store.NeighborQuery{InventoryID: 1, RadiusMeters: -5}},
		{"negative limit", store.NeighborQuery{InventoryID: 1, RadiusMeters: 5, Limit: -1}},
		{"out of bounds", store.NeighborQuery{Center: &far, RadiusMeters: 5}},
	}
	for _, v := range tests {
		err := v.q.Validate()
		require.Error(t, err, v.msg)
		assert.ErrorIs(t, unwrap(err), store.ErrInvalidFilter, v.msg)
	}
}

func TestInterpretationValidate(t *testing.T) {
	assert.Error(t, store.Interpretation{}.Validate())
	assert.Error(t, store.Interpretation{InventoryID: 1}.Validate())
	in := store.Interpretation{InventoryID: 1, Geom: orb.Polygon{}}
	assert.NoError(t, in.Validate())
}

func TestReadGeometry(t *testing.T) {
	db := dryRun(t)
	sql, _ := render(db, store.ReadGeometry(spatial.PostGIS{}, &schema.Inventory{}))
	assert.Contains(t, sql, "ST_AsEWKB(inventories.geom) AS geom")
	assert.Contains(t, sql, "inventories.species_id")
	assert.Contains(t, sql, "inventories.dbh")
	assert.NotContains(t, sql, "inventories.species,")

	var tiles []schema.Tile
	stmt := db.Model(&schema.Tile{}).
		Scopes(store.ReadGeometry(spatial.SpatiaLite{}, &schema.Tile{})).
		Find(&tiles).Statement
	assert.Contains(t, stmt.SQL.String(), "AsBinary(tiles.geom) AS geom, tiles.name")
}

func TestErrors(t *testing.T) {
	err := store.NotFoundError("inventory", 4)
	assert.True(t, store.HasCode(err, errcode.StoreNotFoundError))
	assert.ErrorIs(t, unwrap(err), store.ErrNotFound)

	err = store.AlreadyInterpretedError(4)
	assert.True(t, store.HasCode(err, errcode.StoreAlreadyInterpretedError))
	assert.ErrorIs(t, unwrap(err), store.ErrAlreadyInterpreted)

	err = store.UnknownStudyAreaError([]uint{1, 2})
	assert.Contains(t, err.Error(), "1, 2")
	assert.False(t, store.HasCode(err, errcode.StoreNotFoundError))
}

func unwrap(err error) error {
	var gnErr *gn.Error
	if errors.As(err, &gnErr) {
		return gnErr.Err
	}
	return err
}
