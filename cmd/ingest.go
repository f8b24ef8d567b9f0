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
	"context"

	"github.com/gnames/gn"
	"github.com/idrop/idb/internal/ioingest"
	"github.com/idrop/idb/internal/iostore"
	"github.com/idrop/idb/pkg/config"
	"github.com/spf13/cobra"
)

// getIngestCmd returns the ingest command.
// Extracted as a function to facilitate testing and dynamic
// command registration.
func getIngestCmd() *cobra.Command {
	var tilesLayer, inventoryLayer, studyareaLayer string

	ingestCmd := &cobra.Command{
		Use:   "ingest FILE.gpkg",
		Short: "Import tiles, inventories and study areas from a GeoPackage",
		Long: `Import an inventory GeoPackage into the database.

This command:
  1. Connects to the database of the selected environment
  2. Reads the tiles, inventory and study area layers
  3. Saves tiles, then inventories, then study areas,
     every layer in its own transaction

Inventory features reference species by "species" (code) or
"species_id", and tiles by "tile" (name) or "tile_id". Species must
be loaded first with 'idb init --species'. Layers in another
coordinate system are transformed to WGS 84.

Layer names default to the ingest section of config.yaml. An empty
name skips the layer.

Examples:
  idb ingest inventory.gpkg
  idb ingest inventory.gpkg --studyarea-layer ""
  idb ingest inventory.gpkg --inventory-layer trees -e sqlite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var layerOpts []config.Option
			if cmd.Flags().Changed("tiles-layer") {
				layerOpts = append(layerOpts, config.OptIngestTilesLayer(tilesLayer))
			}
			if cmd.Flags().Changed("inventory-layer") {
				layerOpts = append(layerOpts, config.OptIngestInventoryLayer(inventoryLayer))
			}
			if cmd.Flags().Changed("studyarea-layer") {
				layerOpts = append(layerOpts, config.OptIngestStudyareaLayer(studyareaLayer))
			}
			cfg.Update(layerOpts)

			err := runIngest(args[0])
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	ingestCmd.Flags().StringVar(&tilesLayer, "tiles-layer", "",
		"layer with inventory tiles (default from config)")
	ingestCmd.Flags().StringVar(&inventoryLayer, "inventory-layer", "",
		"layer with inventory samples (default from config)")
	ingestCmd.Flags().StringVar(&studyareaLayer, "studyarea-layer", "",
		"layer with study areas (default from config)")

	return ingestCmd
}

func runIngest(path string) error {
	ctx := context.Background()

	op, dbCfg, err := connectInitialized(ctx, envName)
	if err != nil {
		return err
	}
	defer op.Close()

	gn.Info("Connected to database: <em>%s</em>", dbCfg)

	st, err := iostore.New(op, dbCfg.BatchSize)
	if err != nil {
		return err
	}

	in := ioingest.New(st, cfg.Ingest, cfg.JobsNumber, dbCfg.BatchSize)
	stats, err := in.Ingest(ctx, path)
	if err != nil {
		return err
	}

	gn.Info(`Ingest complete
   Tiles: <em>%d</em>, inventories: <em>%d</em>, study areas: <em>%d</em>`,
		stats.Tiles, stats.Inventories, stats.StudyAreas)
	return nil
}
