package iodb

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/errcode"
)

// ConnectionError creates an error for database connection failures.
func ConnectionError(cfg *config.DatabaseConfig, err error) error {
	if cfg.Driver == config.DriverSpatiaLite {
		msg := `Cannot open SpatiaLite database <em>%s</em>

<em>How to fix:</em>
  1. Check that the directory of the file exists and is writable
  2. Review <em>path</em> in config.yaml`

		return &gn.Error{
			Code: errcode.DBConnectionError,
			Msg:  msg,
			Vars: []any{cfg.Path},
			Err:  fmt.Errorf("failed to open %s: %w", cfg.Path, err),
		}
	}

	msg := `Cannot connect to database

<em>Possible causes:</em>
  - PostgreSQL is not running
  - Database configuration is incorrect
  - Network connectivity issues

<em>How to fix:</em>
  1. Check if PostgreSQL is running:
     <em>pg_isready -h %s -p %d</em>
  2. Verify database exists:
     <em>psql -h %s -U %s -l</em>
  3. Check your configuration file:
     <em>~/.config/idb/config.yaml</em>
     Current database: <em>%s</em>`

	vars := []any{cfg.Host, cfg.Port, cfg.Host, cfg.User, cfg.Database}

	return &gn.Error{
		Code: errcode.DBConnectionError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("failed to connect to %s:%d/%s: %w",
			cfg.Host, cfg.Port, cfg.Database, err),
	}
}

// UnsupportedDriverError is returned for an unknown database driver.
func UnsupportedDriverError(driver string) error {
	msg := `Database driver <em>%s</em> is not supported

<em>How to fix:</em>
  Set <em>driver</em> to <em>postgis</em> or <em>spatialite</em> in config.yaml`

	return &gn.Error{
		Code: errcode.DBUnsupportedDriverError,
		Msg:  msg,
		Vars: []any{driver},
		Err:  fmt.Errorf("unsupported driver %q", driver),
	}
}

// SpatialExtensionError is returned when the database has no usable
// spatial extension.
func SpatialExtensionError(driver string, err error) error {
	msg := `Spatial extension is not available for <em>%s</em>

<em>How to fix:</em>
  - PostGIS: install the postgis package for your PostgreSQL server
  - SpatiaLite: install mod_spatialite or set
    <em>spatialite_library</em> in config.yaml or
    <em>SPATIALITE_LIBRARY_PATH</em> in the environment`

	return &gn.Error{
		Code: errcode.DBSpatialExtensionError,
		Msg:  msg,
		Vars: []any{driver},
		Err:  fmt.Errorf("spatial extension for %s: %w", driver, err),
	}
}

// NotConnectedError creates an error for when operation is
// attempted without connection.
func NotConnectedError() error {
	msg := "Database operation attempted without connection"

	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// TableCheckError creates an error for when table existence
// check fails.
func TableCheckError(err error) error {
	msg := "Could not verify database state"

	return &gn.Error{
		Code: errcode.DBTableCheckError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to check database tables: %w", err),
	}
}

// TableExistsCheckError creates an error for when checking if
// a specific table exists fails.
func TableExistsCheckError(table string, err error) error {
	msg := "Could not check if table <em>%s</em> exists"

	return &gn.Error{
		Code: errcode.DBTableExistsCheckError,
		Msg:  msg,
		Vars: []any{table},
		Err:  fmt.Errorf("failed to check table %s: %w", table, err),
	}
}

// QueryTablesError creates an error for when listing tables fails.
func QueryTablesError(err error) error {
	msg := "Could not list database tables"

	return &gn.Error{
		Code: errcode.DBQueryTablesError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to query tables: %w", err),
	}
}

// ScanTableError creates an error for when reading a table name fails.
func ScanTableError(err error) error {
	msg := "Could not read table names"

	return &gn.Error{
		Code: errcode.DBScanTableError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to scan table name: %w", err),
	}
}

// DropTableError creates an error for when dropping a table fails.
func DropTableError(table string, err error) error {
	msg := "Could not drop table <em>%s</em>"

	return &gn.Error{
		Code: errcode.DBDropTableError,
		Msg:  msg,
		Vars: []any{table},
		Err:  fmt.Errorf("failed to drop table %s: %w", table, err),
	}
}

// EmptyDatabaseError is returned when a command needs the schema but the
// database has no tables.
func EmptyDatabaseError(cfg *config.DatabaseConfig) error {
	msg := `Database <em>%s</em> appears to be empty

<em>How to fix:</em>
  Run <em>idb init</em> first to create the schema`

	return &gn.Error{
		Code: errcode.DBEmptyDatabaseError,
		Msg:  msg,
		Vars: []any{cfg.String()},
		Err:  fmt.Errorf("database %s has no tables", cfg),
	}
}
