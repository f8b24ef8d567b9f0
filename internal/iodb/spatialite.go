package iodb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/schema"
	"github.com/idrop/idb/pkg/spatial"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// spatiaLitePaths are tried in this order when neither the config nor
// SPATIALITE_LIBRARY_PATH point to the extension.
var spatiaLitePaths = []string{
	// Alpine Linux
	"/usr/lib/mod_spatialite.so",
	"/usr/lib/mod_spatialite.so.8",

	// Debian/Ubuntu
	"/usr/lib/x86_64-linux-gnu/mod_spatialite.so",
	"/usr/lib/x86_64-linux-gnu/mod_spatialite.so.8",
	"/usr/lib/aarch64-linux-gnu/mod_spatialite.so",
	"/usr/lib/aarch64-linux-gnu/mod_spatialite.so.8",

	// macOS Homebrew
	"/usr/local/lib/mod_spatialite.dylib",
	"/opt/homebrew/lib/mod_spatialite.dylib",
}

var (
	driversMu sync.Mutex
	drivers   = make(map[string]string)
)

// SpatiaLiteLibrary resolves the SpatiaLite extension to load. The
// configured path wins over SPATIALITE_LIBRARY_PATH, then known
// platform paths are checked, and at last the dynamic loader is asked
// for mod_spatialite.
func SpatiaLiteLibrary(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv("SPATIALITE_LIBRARY_PATH"); env != "" {
		return env
	}
	for _, v := range spatiaLitePaths {
		if _, err := os.Stat(v); err == nil {
			return v
		}
	}
	return "mod_spatialite"
}

// driverFor registers a sqlite3 driver that loads lib into every new
// connection, and returns its name. Each library is registered once.
func driverFor(lib string) string {
	driversMu.Lock()
	defer driversMu.Unlock()

	if name, ok := drivers[lib]; ok {
		return name
	}
	name := fmt.Sprintf("sqlite3_spatialite_%d", len(drivers))
	sql.Register(name, &sqlite3.SQLiteDriver{Extensions: []string{lib}})
	drivers[lib] = name
	return name
}

// SpatiaLiteOperator implements db.Operator for SQLite files with the
// mod_spatialite extension.
type SpatiaLiteOperator struct {
	sqlDB *sql.DB
	db    *gorm.DB
}

// NewSpatiaLite creates a SpatiaLite operator (without connecting).
func NewSpatiaLite() *SpatiaLiteOperator {
	return &SpatiaLiteOperator{}
}

// Connect opens the SQLite file from cfg.Path, creating it when
// missing, and loads SpatiaLite into the connection.
func (s *SpatiaLiteOperator) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) error {
	if cfg.Path == "" {
		return ConnectionError(cfg, fmt.Errorf("path is empty"))
	}

	lib := SpatiaLiteLibrary(cfg.SpatiaLiteLibrary)
	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", cfg.Path)

	gormDB, err := gorm.Open(
		sqlite.New(sqlite.Config{DriverName: driverFor(lib), DSN: dsn}),
		&gorm.Config{Logger: newGormLogger()},
	)
	if err != nil {
		return SpatialExtensionError(config.DriverSpatiaLite, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return ConnectionError(cfg, err)
	}
	// SQLite allows a single writer, one connection keeps transactions
	// from locking each other out.
	sqlDB.SetMaxOpenConns(1)

	var version string
	err = sqlDB.QueryRowContext(ctx, "SELECT spatialite_version()").Scan(&version)
	if err != nil {
		_ = sqlDB.Close()
		return SpatialExtensionError(config.DriverSpatiaLite, err)
	}

	s.sqlDB = sqlDB
	s.db = gormDB
	return nil
}

// Close closes the database file.
func (s *SpatiaLiteOperator) Close() error {
	var err error
	if s.sqlDB != nil {
		err = s.sqlDB.Close()
	}
	s.sqlDB, s.db = nil, nil
	return err
}

// DB returns the GORM handle.
func (s *SpatiaLiteOperator) DB() *gorm.DB {
	return s.db
}

// Dialect returns the SpatiaLite dialect.
func (s *SpatiaLiteOperator) Dialect() spatial.Dialect {
	return spatial.SpatiaLite{}
}

// TableExists checks if a table exists in the database file.
func (s *SpatiaLiteOperator) TableExists(
	ctx context.Context,
	tableName string,
) (bool, error) {
	if s.sqlDB == nil {
		return false, NotConnectedError()
	}

	query := `SELECT EXISTS (
		SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?
	)`

	var exists bool
	err := s.sqlDB.QueryRowContext(ctx, query, tableName).Scan(&exists)
	if err != nil {
		return false, TableExistsCheckError(tableName, err)
	}
	return exists, nil
}

// HasTables checks if any idb table exists. SpatiaLite metadata tables
// are not counted.
func (s *SpatiaLiteOperator) HasTables(ctx context.Context) (bool, error) {
	if s.sqlDB == nil {
		return false, NotConnectedError()
	}
	for _, v := range schema.TableNames() {
		exists, err := s.TableExists(ctx, v)
		if err != nil {
			return false, TableCheckError(err)
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// DropAllTables drops idb tables together with their geometry
// registration and spatial indexes. Dependent tables go first.
func (s *SpatiaLiteOperator) DropAllTables(ctx context.Context) error {
	if s.sqlDB == nil {
		return NotConnectedError()
	}

	d := s.Dialect()
	tables := slices.Clone(schema.TableNames())
	slices.Reverse(tables)
	for _, table := range tables {
		if _, err := s.sqlDB.ExecContext(ctx, d.DropTable(table)); err != nil {
			return DropTableError(table, err)
		}
	}
	return nil
}
