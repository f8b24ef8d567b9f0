package iogpkg

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
)

// OpenError is returned when a GeoPackage file cannot be opened.
func OpenError(path string, err error) error {
	msg := `Cannot open GeoPackage <em>%s</em>

<em>How to fix:</em>
  Check that the file exists and is readable`

	return &gn.Error{
		Code: errcode.GpkgOpenError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("failed to open geopackage %s: %w", path, err),
	}
}

// NotGeoPackageError is returned for SQLite files without GeoPackage
// metadata tables, or files that are not SQLite at all.
func NotGeoPackageError(path string, err error) error {
	msg := "File <em>%s</em> is not a GeoPackage"
	return &gn.Error{
		Code: errcode.GpkgNotGeoPackageError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("%s is not a geopackage: %w", path, err),
	}
}

// LayerNotFoundError is returned when a feature layer is missing.
func LayerNotFoundError(path, layer string) error {
	msg := "GeoPackage <em>%s</em> has no feature layer <em>%s</em>"
	return &gn.Error{
		Code: errcode.GpkgLayerNotFoundError,
		Msg:  msg,
		Vars: []any{path, layer},
		Err:  fmt.Errorf("layer %s not found in %s", layer, path),
	}
}

// ReadError is returned when a layer cannot be read.
func ReadError(layer string, err error) error {
	msg := "Cannot read layer <em>%s</em>"
	return &gn.Error{
		Code: errcode.GpkgReadError,
		Msg:  msg,
		Vars: []any{layer},
		Err:  fmt.Errorf("failed to read layer %s: %w", layer, err),
	}
}

// GeometryError is returned for a geometry blob that cannot be decoded.
func GeometryError(layer string, fid any, err error) error {
	msg := "Cannot decode geometry of feature <em>%v</em> in layer <em>%s</em>"
	return &gn.Error{
		Code: errcode.GpkgGeometryError,
		Msg:  msg,
		Vars: []any{fid, layer},
		Err:  fmt.Errorf("layer %s, feature %v: %w", layer, fid, err),
	}
}
