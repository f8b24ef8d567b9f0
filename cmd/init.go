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
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gnames/gn"
	"github.com/idrop/idb/internal/ioingest"
	"github.com/idrop/idb/internal/ioschema"
	"github.com/idrop/idb/internal/iostore"
	"github.com/spf13/cobra"
)

// getInitCmd returns the init command.
// Extracted as a function to facilitate testing and dynamic
// command registration.
func getInitCmd() *cobra.Command {
	var (
		force       bool
		speciesPath string
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create database schema and load species",
		Long: `Create the labelling database schema from scratch.

This command:
  1. Connects to the database of the selected environment
  2. Checks for existing tables and prompts for confirmation
  3. Enables PostGIS or initializes SpatiaLite metadata
  4. Creates all tables using GORM AutoMigrate
  5. Registers geometry columns and creates spatial indexes
  6. Optionally loads species from a CSV file of code,name rows

Use --force to skip confirmation and drop existing tables.

Examples:
  idb init
  idb init --species species.csv
  idb init --env sqlite -f`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runInit(cmd, speciesPath, force)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	initCmd.Flags().BoolVarP(&force, "force", "f",
		false, "drop existing tables without confirmation")
	initCmd.Flags().StringVarP(&speciesPath, "species", "s",
		"", "CSV file with species codes and names")

	return initCmd
}

func runInit(cmd *cobra.Command, speciesPath string, force bool) error {
	ctx := context.Background()

	op, dbCfg, err := connect(ctx, envName)
	if err != nil {
		return err
	}
	defer op.Close()

	gn.Info("Connected to database: <em>%s</em>", dbCfg)

	hasTables, err := op.HasTables(ctx)
	if err != nil {
		return err
	}

	if hasTables {
		if !force {
			gn.Warn("\nWarning: Database contains existing tables.")
			gn.Warn("Creating schema will drop ALL existing tables and data.")
			ok, err := confirm(cmd.InOrStdin())
			if err != nil {
				gn.Warn("Failed to read user input")
				return err
			}
			if !ok {
				gn.Info("Aborted. No changes made.")
				return nil
			}
		}

		gn.Info("Dropping all existing tables...")
		if err = op.DropAllTables(ctx); err != nil {
			return err
		}
		gn.Info("All tables dropped")
	}

	gn.Info("Creating schema...")
	if err = ioschema.NewManager(op).Create(ctx); err != nil {
		return err
	}
	gn.Info("Database schema creation complete!")

	if speciesPath == "" {
		gn.Info(`Next steps:
   - Run '<em>idb init --species FILE</em>' to load species
   - Run '<em>idb ingest FILE.gpkg</em>' to import inventories`)
		return nil
	}

	st, err := iostore.New(op, dbCfg.BatchSize)
	if err != nil {
		return err
	}
	in := ioingest.New(st, cfg.Ingest, cfg.JobsNumber, dbCfg.BatchSize)
	n, err := in.LoadSpecies(ctx, speciesPath)
	if err != nil {
		return err
	}
	gn.Info("Loaded <em>%d</em> species from <em>%s</em>", n, speciesPath)
	return nil
}

// confirm asks the user to continue and reads the answer from r.
func confirm(r io.Reader) (bool, error) {
	fmt.Print("\nDo you want to continue? (yes/no): ")

	reader := bufio.NewReader(r)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y", nil
}
