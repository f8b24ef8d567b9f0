package config

import (
	"maps"
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptDatabaseDriver sets the database engine of the main environment.
// Valid values: "postgis", "spatialite".
func OptDatabaseDriver(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Database.Driver", s) {
			c.Database.Driver = s
		}
	}
}

// OptDatabaseHost sets the PostgreSQL server hostname or IP address.
func OptDatabaseHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Host", s) {
			c.Database.Host = s
		}
	}
}

// OptDatabasePort sets the PostgreSQL server port number.
func OptDatabasePort(i int) Option {
	return func(c *Config) {
		if isValidInt("Database Port", i) {
			c.Database.Port = i
		}
	}
}

// OptDatabaseUser sets the PostgreSQL database username.
func OptDatabaseUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database User", s) {
			c.Database.User = s
		}
	}
}

// OptDatabasePassword sets the PostgreSQL database password.
func OptDatabasePassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Password", s) {
			c.Database.Password = s
		}
	}
}

// OptDatabaseDatabase sets the PostgreSQL database name to connect to.
func OptDatabaseDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Name", s) {
			c.Database.Database = s
		}
	}
}

// OptDatabaseSSLMode sets the SSL connection mode.
// Valid values: "disable", "require", "verify-ca", "verify-full".
func OptDatabaseSSLMode(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Database.SSLMode", s) {
			c.Database.SSLMode = s
		}
	}
}

// OptDatabasePath sets the SpatiaLite file of the main environment.
func OptDatabasePath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Path", s) {
			c.Database.Path = s
		}
	}
}

// OptDatabaseSpatiaLiteLibrary sets the location of mod_spatialite.
func OptDatabaseSpatiaLiteLibrary(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("SpatiaLite Library", s) {
			c.Database.SpatiaLiteLibrary = s
		}
	}
}

// OptDatabaseBatchSize sets the number of records written per batch.
func OptDatabaseBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Batch Size", i) {
			c.Database.BatchSize = i
		}
	}
}

// OptEnvironment adds or replaces a named database environment.
// The "main" environment can only be changed with OptDatabase* options.
func OptEnvironment(name string, db DatabaseConfig) Option {
	name = strings.TrimSpace(name)
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	return func(c *Config) {
		if !isValidString("Environment Name", name) {
			return
		}
		if name == MainEnv {
			warnMainEnv()
			return
		}
		if db.Driver != "" && !isValidEnum("Database.Driver", db.Driver) {
			return
		}
		envs := maps.Clone(c.Environments)
		if envs == nil {
			envs = make(map[string]DatabaseConfig)
		}
		envs[name] = db
		c.Environments = envs
	}
}

// OptIngestTilesLayer sets the GeoPackage layer with inventory tiles.
func OptIngestTilesLayer(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		c.Ingest.TilesLayer = s
	}
}

// OptIngestInventoryLayer sets the GeoPackage layer with inventory samples.
func OptIngestInventoryLayer(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		c.Ingest.InventoryLayer = s
	}
}

// OptIngestStudyareaLayer sets the GeoPackage layer with study areas.
func OptIngestStudyareaLayer(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		c.Ingest.StudyareaLayer = s
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers for parallel operations.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}
