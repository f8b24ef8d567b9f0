// Package config provides configuration management for idb.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields of the main database
//
// # Environments
//
// Database holds the "main" environment. Environments holds any number of
// additional named databases (for example a SpatiaLite file used for data
// exchange). Commands select one of them with --env.
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions and config.yaml):
//   - Database: driver, host, port, user, password, database, ssl_mode,
//     path, spatialite_library, batch_size
//   - Environments: named database settings
//   - Ingest: layer names of the inventory GeoPackage
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields (CLI flags only):
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use IDB_ prefix with underscores for nesting:
//
//	IDB_DATABASE_HOST=localhost
//	IDB_DATABASE_PORT=5432
//	IDB_LOG_LEVEL=info
//	IDB_JOBS_NUMBER=8
package config

import (
	"fmt"
	"maps"
	"runtime"
	"slices"
)

const (
	// MainEnv is the name of the environment stored in Config.Database.
	MainEnv = "main"

	// DriverPostGIS selects PostgreSQL with the PostGIS extension.
	DriverPostGIS = "postgis"

	// DriverSpatiaLite selects an SQLite file with the SpatiaLite extension.
	DriverSpatiaLite = "spatialite"
)

// Config represents the complete idb configuration.
type Config struct {
	// Database contains settings of the "main" environment.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Environments contains additional named databases.
	Environments map[string]DatabaseConfig `mapstructure:"environments" yaml:"environments,omitempty"`

	// Ingest contains settings of the ingest command.
	Ingest IngestConfig `mapstructure:"ingest" yaml:"ingest"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent workers for parallel operations.
	// Default value is set accoring to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string `yaml:"-"`
}

// DatabaseConfig contains connection parameters of one environment.
type DatabaseConfig struct {
	// Driver is either "postgis" or "spatialite".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host,omitempty"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port,omitempty"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user,omitempty"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database,omitempty"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode,omitempty"`

	// Path is the SpatiaLite database file. The file is created
	// if it does not exist.
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// SpatiaLiteLibrary is the path to the mod_spatialite shared library.
	// When empty, SPATIALITE_LIBRARY_PATH and common system locations
	// are tried.
	SpatiaLiteLibrary string `mapstructure:"spatialite_library" yaml:"spatialite_library,omitempty"`

	// BatchSize defines the number of records written per batch during
	// ingestion and copying.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size,omitempty"`
}

// IngestConfig keeps layer names of an inventory GeoPackage.
// An empty name skips the layer.
type IngestConfig struct {
	TilesLayer     string `mapstructure:"tiles_layer"     yaml:"tiles_layer"`
	InventoryLayer string `mapstructure:"inventory_layer" yaml:"inventory_layer"`
	StudyareaLayer string `mapstructure:"studyarea_layer" yaml:"studyarea_layer"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Database: defaultDatabase(),
		Ingest: IngestConfig{
			TilesLayer:     "tiles",
			InventoryLayer: "inventory",
			StudyareaLayer: "studyarea",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(),
	}

	return res
}

func defaultDatabase() DatabaseConfig {
	return DatabaseConfig{
		Driver:    DriverPostGIS,
		Host:      "localhost",
		Port:      5432,
		User:      "postgres",
		Password:  "postgres",
		Database:  "idb",
		SSLMode:   "disable",
		BatchSize: 5_000,
	}
}

// EnvNames returns names of all configured environments, "main" first.
func (c *Config) EnvNames() []string {
	res := []string{MainEnv}
	return append(res, slices.Sorted(maps.Keys(c.Environments))...)
}

// DatabaseFor returns a copy of the database settings of the named
// environment. Unset fields of a named environment are filled with
// defaults of its driver.
func (c *Config) DatabaseFor(env string) (*DatabaseConfig, error) {
	if env == "" || env == MainEnv {
		res := c.Database
		return &res, nil
	}
	dbCfg, ok := c.Environments[env]
	if !ok {
		return nil, UnknownEnvError(env, c.EnvNames())
	}
	res := dbCfg.withDefaults()
	return &res, nil
}

func (d DatabaseConfig) withDefaults() DatabaseConfig {
	def := defaultDatabase()
	if d.Driver == "" {
		d.Driver = def.Driver
	}
	if d.BatchSize == 0 {
		d.BatchSize = def.BatchSize
	}
	if d.Driver == DriverSpatiaLite {
		return d
	}
	if d.Host == "" {
		d.Host = def.Host
	}
	if d.Port == 0 {
		d.Port = def.Port
	}
	if d.SSLMode == "" {
		d.SSLMode = def.SSLMode
	}
	return d
}

// String describes the database without exposing its password.
func (d DatabaseConfig) String() string {
	if d.Driver == DriverSpatiaLite {
		return fmt.Sprintf("spatialite:%s", d.Path)
	}
	return fmt.Sprintf("%s@%s:%d/%s", d.User, d.Host, d.Port, d.Database)
}
