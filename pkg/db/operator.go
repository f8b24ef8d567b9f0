// Package db defines the database operator shared by lifecycle components
// and the store.
package db

import (
	"context"

	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/spatial"
	"gorm.io/gorm"
)

// Operator defines the interface for basic database management operations.
// It manages the connection and exposes a GORM handle together with the
// spatial dialect of the backend, so that higher level components
// (SchemaManager, Ingester, Copier, Store) can run their own queries.
type Operator interface {
	// Connect opens a connection to the database described by cfg and
	// verifies that the spatial extension is available.
	Connect(context.Context, *config.DatabaseConfig) error

	// Close closes the database connection.
	Close() error

	// DB returns the GORM handle, or nil before Connect.
	DB() *gorm.DB

	// Dialect returns the spatial SQL dialect of the connected backend.
	Dialect() spatial.Dialect

	// TableExists checks if a table exists in the database.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// HasTables checks if the database has any user tables. Tables owned
	// by the spatial extension are ignored.
	HasTables(ctx context.Context) (bool, error)

	// DropAllTables drops all user tables. Used during schema
	// initialization when overwriting existing data.
	DropAllTables(ctx context.Context) error
}
