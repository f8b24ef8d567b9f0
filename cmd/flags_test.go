package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/idrop/idb/internal/iotesting"
	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/errcode"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretedFilter(t *testing.T) {
	tests := []struct {
		args []string
		want *bool
	}{
		{nil, nil},
		{[]string{"--interpreted"}, ptr(true)},
		{[]string{"--not-interpreted"}, ptr(false)},
	}

	for _, v := range tests {
		cmd := &cobra.Command{}
		interpretedFlags(cmd)
		require.NoError(t, cmd.ParseFlags(v.args))
		assert.Equal(t, v.want, interpretedFilter(cmd), "%v", v.args)
	}
}

func TestPrintCollection(t *testing.T) {
	newFC := func() *geojson.FeatureCollection {
		fc := geojson.NewFeatureCollection()
		f := geojson.NewFeature(orb.Point{16.05, 2.2})
		f.Properties["species_code"] = "SAP"
		return fc.Append(f)
	}

	tests := []struct {
		args   []string
		key    string
		indent bool
	}{
		{nil, "species_code", false},
		{[]string{"--camel-case"}, "speciesCode", false},
		{[]string{"-p"}, "species_code", true},
	}

	for _, v := range tests {
		cmd := &cobra.Command{}
		outputFlags(cmd)
		require.NoError(t, cmd.ParseFlags(v.args))
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)

		require.NoError(t, printCollection(cmd, newFC()))
		assert.Equal(t, v.indent, bytes.Count(buf.Bytes(), []byte("\n")) > 1, "%v", v.args)

		var res geojson.FeatureCollection
		require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
		require.Len(t, res.Features, 1)
		assert.Equal(t, "SAP", res.Features[0].Properties[v.key], "%v", v.args)
	}
}

func TestOpenStore_EmptyDatabase(t *testing.T) {
	dbCfg := iotesting.SpatiaLiteConfig(t)
	// creates an empty database file
	iotesting.Connect(t, dbCfg)

	saved := cfg
	t.Cleanup(func() { cfg = saved })
	cfg = config.New()
	cfg.Update([]config.Option{config.OptEnvironment("empty", *dbCfg)})

	_, _, err := openStore(context.Background(), "empty")
	require.Error(t, err)
	var gnErr *gn.Error
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.DBEmptyDatabaseError, gnErr.Code)
}

func ptr[T any](v T) *T {
	return &v
}
