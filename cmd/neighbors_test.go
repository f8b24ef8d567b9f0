package cmd

import (
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
	"github.com/idrop/idb/pkg/store"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetNeighborsCmd_Exists verifies getNeighborsCmd returns
// a valid command.
func TestGetNeighborsCmd_Exists(t *testing.T) {
	cmd := getNeighborsCmd()
	require.NotNil(t, cmd, "Neighbors command should exist")
	assert.Equal(t, "neighbors", cmd.Use,
		"Command name should be neighbors")
	assert.Contains(t, cmd.Long, "meters",
		"Long description should mention units")
}

// TestGetNeighborsCmd_Flags verifies query flags.
func TestGetNeighborsCmd_Flags(t *testing.T) {
	cmd := getNeighborsCmd()

	for _, v := range []string{
		"inventory", "lon", "lat", "radius", "species", "limit",
		"interpreted", "not-interpreted", "pretty", "camel-case",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(v), "%s flag should exist", v)
	}
	assert.Equal(t, "r", cmd.Flags().Lookup("radius").Shorthand)
}

// TestRunNeighbors_Invalid verifies queries are validated before
// connecting to the database.
func TestRunNeighbors_Invalid(t *testing.T) {
	tests := []struct {
		msg string
		q   store.NeighborQuery
	}{
		{"no centre", store.NeighborQuery{RadiusMeters: 10}},
		{"no radius", store.NeighborQuery{InventoryID: 1}},
		{"two centres", store.NeighborQuery{
			InventoryID: 1, Center: &orb.Point{1, 1}, RadiusMeters: 10,
		}},
		{"bad latitude", store.NeighborQuery{
			Center: &orb.Point{1, 91}, RadiusMeters: 10,
		}},
	}

	for _, v := range tests {
		err := runNeighbors(getNeighborsCmd(), v.q)
		require.Error(t, err, v.msg)
		var gnErr *gn.Error
		require.True(t, errors.As(err, &gnErr), v.msg)
		assert.Equal(t, errcode.StoreInvalidFilterError, gnErr.Code, v.msg)
	}
}
