// Package iodb implements database operators for PostGIS and SpatiaLite.
// This is an impure I/O package that implements contracts
// defined in pkg/.
package iodb

import (
	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/db"
)

// NewOperator creates a database operator (without connecting) for the
// given driver.
func NewOperator(driver string) (db.Operator, error) {
	switch driver {
	case config.DriverPostGIS:
		return NewPostGIS(), nil
	case config.DriverSpatiaLite:
		return NewSpatiaLite(), nil
	default:
		return nil, UnsupportedDriverError(driver)
	}
}
