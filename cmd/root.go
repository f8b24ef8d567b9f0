/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/idrop/idb/internal/iofs"
	"github.com/idrop/idb/internal/iologger"
	app "github.com/idrop/idb/pkg"
	"github.com/idrop/idb/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir string
	opts    []config.Option
	cfg     *config.Config

	// envName is the database environment selected with --env.
	envName string
)

// getRootCmd returns the root command with all subcommands attached.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
		Use:     "idb",
		Short:   "idb manages the inventory labelling database",
		Long: `idb manages the database used to label tree inventories
on remote sensing imagery.

Features:
  - Schema Management: create and migrate PostGIS or SpatiaLite databases
  - Ingestion: load species lists and inventory GeoPackages
  - Copy: transfer a database into another environment
  - Sampling: draw random inventories and search neighbours
  - Interpretation: record labelled polygons

Databases are selected by environment (--env) as defined in
~/.config/idb/config.yaml.`,
		PersistentPreRunE: bootstrap,
		RunE:              runRoot,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	// Remove the automatic "idb version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Flags().BoolP("version", "V", false, "version for idb")

	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", config.MainEnv,
		"database environment from config.yaml")

	rootCmd.AddCommand(
		getInitCmd(),
		getMigrateCmd(),
		getIngestCmd(),
		getCopyCmd(),
		getSampleCmd(),
		getNeighborsCmd(),
		getInterpretCmd(),
	)
	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)

	// Set HomeDir after config is loaded
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	// Reconfigure logging with user's settings and proper log file location
	if err = reconfigureLogging(cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"env", envName,
	)
	return nil
}

// reconfigureLogging reinitializes the logger with the loaded configuration.
func reconfigureLogging(cfg *config.Config) error {
	logDir := config.LogDir(cfg.HomeDir)
	return iologger.Init(logDir, cfg.Log)
}

func runRoot(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	err := getRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Set environment variables we want.
	// We set them manually so we can see clearly which env variables are allowed.
	// These match the fields of the main database and other persistent
	// settings of config.ToOptions().
	v.SetEnvPrefix("IDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Database configuration
	v.BindEnv("database.driver", "IDB_DATABASE_DRIVER")
	v.BindEnv("database.host", "IDB_DATABASE_HOST")
	v.BindEnv("database.port", "IDB_DATABASE_PORT")
	v.BindEnv("database.user", "IDB_DATABASE_USER")
	v.BindEnv("database.password", "IDB_DATABASE_PASSWORD")
	v.BindEnv("database.database", "IDB_DATABASE_DATABASE")
	v.BindEnv("database.ssl_mode", "IDB_DATABASE_SSL_MODE")
	v.BindEnv("database.path", "IDB_DATABASE_PATH")
	v.BindEnv("database.spatialite_library", "IDB_DATABASE_SPATIALITE_LIBRARY")
	v.BindEnv("database.batch_size", "IDB_DATABASE_BATCH_SIZE")

	// Ingest configuration
	v.BindEnv("ingest.tiles_layer", "IDB_INGEST_TILES_LAYER")
	v.BindEnv("ingest.inventory_layer", "IDB_INGEST_INVENTORY_LAYER")
	v.BindEnv("ingest.studyarea_layer", "IDB_INGEST_STUDYAREA_LAYER")

	// Log configuration
	v.BindEnv("log.level", "IDB_LOG_LEVEL")
	v.BindEnv("log.format", "IDB_LOG_FORMAT")
	v.BindEnv("log.destination", "IDB_LOG_DESTINATION")

	// General configuration
	v.BindEnv("jobs_number", "IDB_JOBS_NUMBER")

	v.AutomaticEnv()
}
