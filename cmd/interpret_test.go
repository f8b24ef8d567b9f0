package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetInterpretCmd_Exists verifies getInterpretCmd returns
// a valid command.
func TestGetInterpretCmd_Exists(t *testing.T) {
	cmd := getInterpretCmd()
	require.NotNil(t, cmd, "Interpret command should exist")
	assert.Equal(t, "interpret", cmd.Name(),
		"Command name should be interpret")
	assert.Contains(t, cmd.Long, "only once",
		"Long description should mention single interpretation")
}

// TestGetInterpretCmd_Args verifies an inventory id is required.
func TestGetInterpretCmd_Args(t *testing.T) {
	cmd := getInterpretCmd()

	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"42"}))
	assert.NotNil(t, cmd.Flags().Lookup("geometry"))
	assert.NotNil(t, cmd.Flags().Lookup("species"))
}

// TestRunInterpret_Invalid verifies arguments are checked before
// connecting to the database.
func TestRunInterpret_Invalid(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.geojson")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type":"Unknown"}`), 0o644))
	null := filepath.Join(t.TempDir(), "null.geojson")
	require.NoError(t, os.WriteFile(null,
		[]byte(`{"type":"Feature","properties":{},"geometry":null}`), 0o644))

	tests := []struct {
		msg      string
		id       string
		geomPath string
		species  string
		code     gn.ErrorCode
	}{
		{"not a number", "abc", "", "", errcode.StoreInvalidFilterError},
		{"zero id", "0", "", "", errcode.StoreInvalidFilterError},
		{"species only", "1", "", "SAP", errcode.StoreInvalidFilterError},
		{"missing file", "1", filepath.Join(t.TempDir(), "none.geojson"), "",
			errcode.ReadFileError},
		{"bad geometry", "1", bad, "", errcode.FeatureGeometryError},
		{"null geometry", "1", null, "SAP", errcode.FeatureGeometryError},
	}

	for _, v := range tests {
		err := runInterpret(v.id, v.geomPath, v.species)
		require.Error(t, err, v.msg)
		var gnErr *gn.Error
		require.True(t, errors.As(err, &gnErr), v.msg)
		assert.Equal(t, v.code, gnErr.Code, v.msg)
	}
}
