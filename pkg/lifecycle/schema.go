// Package lifecycle defines the components that prepare and fill an idb
// database: schema management, ingestion of GeoPackages and copying
// between environments.
package lifecycle

import (
	"context"
)

// SchemaManager defines the interface for database schema management.
// It uses GORM AutoMigrate for tables and the spatial dialect for
// spatial metadata and indexes.
type SchemaManager interface {
	// Create enables spatial support and creates all tables with their
	// spatial indexes. Existing tables must be dropped by the caller
	// beforehand when a fresh database is wanted.
	Create(ctx context.Context) error

	// Migrate updates the schema of an existing database. It is
	// non-destructive and safe to run multiple times.
	Migrate(ctx context.Context) error
}
