package iocopy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/idrop/idb/internal/iocopy"
	"github.com/idrop/idb/internal/iostore"
	"github.com/idrop/idb/internal/iotesting"
	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/db"
	"github.com/idrop/idb/pkg/errcode"
	"github.com/idrop/idb/pkg/lifecycle"
	"github.com/idrop/idb/pkg/store"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var square = orb.Polygon{orb.Ring{
	{9.0, 1.0}, {9.1, 1.0}, {9.1, 1.1}, {9.0, 1.1}, {9.0, 1.0},
}}

func TestErrors(t *testing.T) {
	tests := []struct {
		msg  string
		err  error
		code gn.ErrorCode
	}{
		{"same env", iocopy.SameEnvError("main"), errcode.CopySameEnvError},
		{"not initialized", iocopy.NotInitializedError("destination"), errcode.CopyNotInitializedError},
		{"table", iocopy.TableError("species", errors.New("boom")), errcode.CopyTableError},
	}

	for _, v := range tests {
		var gnErr *gn.Error
		require.True(t, errors.As(v.err, &gnErr), v.msg)
		assert.Equal(t, v.code, gnErr.Code, v.msg)
		assert.NotEmpty(t, gnErr.Vars, v.msg)
	}

	var gnErr *gn.Error
	require.True(t, errors.As(iocopy.TableError("tiles", context.Canceled), &gnErr))
	assert.ErrorIs(t, gnErr.Err, context.Canceled)
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	sources := map[string]*config.DatabaseConfig{
		"postgis to spatialite":    iotesting.PostGISConfig(),
		"spatialite to spatialite": iotesting.SpatiaLiteConfig(t),
	}

	for name, srcCfg := range sources {
		t.Run(name, func(t *testing.T) {
			src := iotesting.FreshSchema(t, srcCfg)
			dst := iotesting.FreshSchema(t, iotesting.SpatiaLiteConfig(t))
			fill(t, src)

			c := iocopy.New(src, dst, 2)
			counts, err := c.Copy(ctx)
			require.NoError(t, err)
			assert.Equal(t, []lifecycle.TableCount{
				{Table: "species", Rows: 2},
				{Table: "tiles", Rows: 1},
				{Table: "studyareas", Rows: 1},
				{Table: "inventories", Rows: 3},
				{Table: "interpreted", Rows: 1},
			}, counts)

			st, err := iostore.New(dst, 0)
			require.NoError(t, err)

			areas, err := st.StudyAreas(ctx)
			require.NoError(t, err)
			require.Len(t, areas, 1)
			assert.True(t, areas[0].Geom.Polygon.Equal(square))

			yes := true
			fc, err := st.Inventories(ctx, store.SampleFilter{
				NSamples: 10, StudyAreaID: areas[0].ID, Interpreted: &yes,
			})
			require.NoError(t, err)
			require.Len(t, fc.Features, 1)
			assert.Equal(t, "SAP", fc.Features[0].Properties["species_code"])

			// a second copy merges rows with the same ids
			counts, err = c.Copy(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(3), counts[3].Rows)
			sp, err := st.Species(ctx)
			require.NoError(t, err)
			assert.Len(t, sp, 2)

			// ids continue after copied rows
			ids, err := st.AddTiles(ctx, []*geojson.Feature{named(square, "T2")})
			require.NoError(t, err)
			assert.Equal(t, []uint{2}, ids)
		})
	}
}

func TestCopyNotInitialized(t *testing.T) {
	ctx := context.Background()
	src := iotesting.FreshSchema(t, iotesting.SpatiaLiteConfig(t))
	dst := iotesting.Connect(t, iotesting.SpatiaLiteConfig(t))

	_, err := iocopy.New(src, dst, 0).Copy(ctx)
	var gnErr *gn.Error
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.CopyNotInitializedError, gnErr.Code)
	assert.Equal(t, "destination", gnErr.Vars[0])

	_, err = iocopy.New(dst, src, 0).Copy(ctx)
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, "source", gnErr.Vars[0])
}

func fill(t *testing.T, op db.Operator) {
	t.Helper()
	ctx := context.Background()
	st, err := iostore.New(op, 0)
	require.NoError(t, err)

	for _, v := range [][2]string{{"SAP", "sapelli"}, {"AYO", "ayous"}} {
		_, err = st.GetOrCreateSpecies(ctx, v[0], v[1])
		require.NoError(t, err)
	}
	_, err = st.AddTiles(ctx, []*geojson.Feature{named(square, "T1")})
	require.NoError(t, err)
	_, err = st.AddStudyAreas(ctx, []*geojson.Feature{named(square, "north")})
	require.NoError(t, err)

	var inv []*geojson.Feature
	for i, sp := range []string{"SAP", "AYO", "SAP"} {
		f := geojson.NewFeature(orb.Point{9.05 + float64(i)*0.001, 1.05})
		f.Properties["species"] = sp
		f.Properties["tile"] = "T1"
		f.Properties["exp_num"] = i + 1
		inv = append(inv, f)
	}
	ids, err := st.AddInventories(ctx, inv)
	require.NoError(t, err)

	_, err = st.Interpret(ctx, store.Interpretation{
		InventoryID: ids[0],
		Geom:        square,
	})
	require.NoError(t, err)
}

func named(g orb.Geometry, name string) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.Properties["name"] = name
	return f
}
