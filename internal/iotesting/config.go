// Package iotesting provides shared test utilities for integration tests.
// This is an internal package for test infrastructure only.
package iotesting

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/idrop/idb/internal/iodb"
	"github.com/idrop/idb/internal/ioschema"
	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/db"
)

const (
	// TestDatabaseName is the database name used for all PostGIS
	// integration tests. This ensures tests never accidentally run
	// against production databases.
	TestDatabaseName = "idb_test"
)

// PostGISConfig returns the database configuration for PostGIS
// integration tests. Connection settings may be overridden with
// IDB_TEST_HOST, IDB_TEST_PORT, IDB_TEST_USER and IDB_TEST_PASSWORD, the
// database name is always TestDatabaseName.
func PostGISConfig() *config.DatabaseConfig {
	cfg := config.New().Database
	if v := os.Getenv("IDB_TEST_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("IDB_TEST_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("IDB_TEST_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("IDB_TEST_PASSWORD"); v != "" {
		cfg.Password = v
	}
	cfg.Database = TestDatabaseName
	return &cfg
}

// SpatiaLiteConfig returns the configuration of a SpatiaLite database in
// a temporary directory of the test.
func SpatiaLiteConfig(t *testing.T) *config.DatabaseConfig {
	t.Helper()
	cfg := config.New().Database
	cfg.Driver = config.DriverSpatiaLite
	cfg.Path = filepath.Join(t.TempDir(), "idb_test.sqlite")
	return &cfg
}

// Backends returns configurations of all backends integration tests run
// against, keyed by driver name.
func Backends(t *testing.T) map[string]*config.DatabaseConfig {
	t.Helper()
	return map[string]*config.DatabaseConfig{
		config.DriverPostGIS:    PostGISConfig(),
		config.DriverSpatiaLite: SpatiaLiteConfig(t),
	}
}

// Connect connects to the database of cfg and closes it when the test
// ends. The test is skipped when the database or its spatial extension
// is not available.
func Connect(t *testing.T, cfg *config.DatabaseConfig) db.Operator {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	op, err := iodb.NewOperator(cfg.Driver)
	if err != nil {
		t.Fatalf("Failed to create operator: %v", err)
	}
	if err := op.Connect(context.Background(), cfg); err != nil {
		t.Skipf("Database %s is not available: %v", cfg, err)
	}
	t.Cleanup(func() { _ = op.Close() })
	return op
}

// FreshSchema connects to cfg, drops all tables and creates the schema
// from scratch.
func FreshSchema(t *testing.T, cfg *config.DatabaseConfig) db.Operator {
	t.Helper()
	op := Connect(t, cfg)
	ctx := context.Background()
	if err := op.DropAllTables(ctx); err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}
	if err := ioschema.NewManager(op).Create(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return op
}

// SetupTempHome creates a temporary home directory for a test, so that
// config, cache and log directories never touch the user's files.
func SetupTempHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, v := range []string{
		config.ConfigDir(dir), config.CacheDir(dir), config.LogDir(dir),
	} {
		if err := os.MkdirAll(v, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", v, err)
		}
	}
	return dir
}
