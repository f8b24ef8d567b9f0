package ioschema

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
)

// NotConnectedError creates an error for when schema
// operation is attempted without database connection.
func NotConnectedError() error {
	msg := "Schema operation attempted without database connection"

	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// SpatialInitError creates an error for failures to enable
// spatial support.
func SpatialInitError(dialect string, err error) error {
	msg := `Cannot enable spatial support for <em>%s</em>

<em>How to fix:</em>
  - PostGIS: the database user needs permission to run
    <em>CREATE EXTENSION postgis</em>
  - SpatiaLite: make sure mod_spatialite is loaded`

	return &gn.Error{
		Code: errcode.SchemaSpatialInitError,
		Msg:  msg,
		Vars: []any{dialect},
		Err:  fmt.Errorf("failed to initialize %s: %w", dialect, err),
	}
}

// CreateSchemaError creates an error for schema
// creation failures.
func CreateSchemaError(err error) error {
	msg := `Cannot create database schema

<em>Possible causes:</em>
  - Insufficient database permissions
  - Tables from another schema are in the way

<em>How to fix:</em>
  1. Check database user has CREATE permissions
  2. Run <em>idb init --force</em> to start from an empty database
  3. Check database logs for details`

	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("failed to create schema: %w", err),
	}
}

// MigrateSchemaError creates an error for schema
// migration failures.
func MigrateSchemaError(err error) error {
	msg := `Cannot migrate database schema

<em>Possible causes:</em>
  - Incompatible schema changes
  - Insufficient database permissions
  - Data integrity issues

<em>How to fix:</em>
  1. Review migration compatibility
  2. Check database user permissions
  3. Copy data to a backup environment before migration:
     <em>idb copy --src-env main --dst-env backup</em>`

	return &gn.Error{
		Code: errcode.SchemaMigrateError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("failed to migrate schema: %w", err),
	}
}

// SpatialIndexError creates an error for failures to register
// or index a geometry column.
func SpatialIndexError(table, column string, err error) error {
	msg := "Cannot create spatial index on <em>%s.%s</em>"

	return &gn.Error{
		Code: errcode.SchemaSpatialIndexError,
		Msg:  msg,
		Vars: []any{table, column},
		Err: fmt.Errorf(
			"failed to index %s.%s: %w", table, column, err),
	}
}
