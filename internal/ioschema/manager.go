// Package ioschema implements SchemaManager interface for
// database schema management. This is an impure I/O package
// that wraps GORM AutoMigrate functionality.
package ioschema

import (
	"context"
	"log/slog"

	"github.com/idrop/idb/pkg/db"
	"github.com/idrop/idb/pkg/schema"
	"gorm.io/gorm"
)

// Manager implements the lifecycle.SchemaManager interface
// using GORM AutoMigrate and the spatial dialect of the operator.
type Manager struct {
	operator db.Operator
}

// NewManager creates a new SchemaManager.
func NewManager(op db.Operator) *Manager {
	return &Manager{operator: op}
}

// Create enables spatial support, creates tables and
// registers their geometry columns with spatial indexes.
func (m *Manager) Create(ctx context.Context) error {
	gormDB, err := m.db(ctx)
	if err != nil {
		return err
	}

	if err := m.initSpatial(gormDB); err != nil {
		return err
	}

	if err := schema.Migrate(gormDB); err != nil {
		return CreateSchemaError(err)
	}

	if err := m.spatialColumns(gormDB); err != nil {
		return err
	}

	slog.Info("Schema created", "dialect", m.operator.Dialect().Name())
	return nil
}

// Migrate updates the database schema to the latest version
// using GORM AutoMigrate. Spatial statements are idempotent and
// run again for tables added by the migration.
func (m *Manager) Migrate(ctx context.Context) error {
	gormDB, err := m.db(ctx)
	if err != nil {
		return err
	}

	if err := m.initSpatial(gormDB); err != nil {
		return err
	}

	if err := schema.Migrate(gormDB); err != nil {
		return MigrateSchemaError(err)
	}

	if err := m.spatialColumns(gormDB); err != nil {
		return err
	}

	slog.Info("Schema migrated", "dialect", m.operator.Dialect().Name())
	return nil
}

func (m *Manager) db(ctx context.Context) (*gorm.DB, error) {
	if m.operator == nil || m.operator.DB() == nil {
		return nil, NotConnectedError()
	}
	return m.operator.DB().WithContext(ctx), nil
}

func (m *Manager) initSpatial(gormDB *gorm.DB) error {
	d := m.operator.Dialect()
	for _, q := range d.InitStatements() {
		if err := gormDB.Exec(q).Error; err != nil {
			return SpatialInitError(d.Name(), err)
		}
	}
	return nil
}

func (m *Manager) spatialColumns(gormDB *gorm.DB) error {
	d := m.operator.Dialect()
	for _, col := range schema.SpatialColumns() {
		for _, q := range d.SpatialColumnStatements(col.Table, col.Column, col.Type) {
			if err := gormDB.Exec(q).Error; err != nil {
				return SpatialIndexError(col.Table, col.Column, err)
			}
		}
	}
	return nil
}
