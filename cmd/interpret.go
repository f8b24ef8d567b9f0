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
	"fmt"
	"strconv"

	"github.com/gnames/gn"
	"github.com/idrop/idb/internal/iofs"
	"github.com/idrop/idb/pkg/schema"
	"github.com/idrop/idb/pkg/store"
	"github.com/spf13/cobra"
)

// getInterpretCmd returns the interpret command.
func getInterpretCmd() *cobra.Command {
	var geomPath, speciesCode string

	interpretCmd := &cobra.Command{
		Use:   "interpret INVENTORY_ID",
		Short: "Record an interpretation of an inventory",
		Long: `Mark an inventory as interpreted.

With --geometry the polygon drawn by the labeller is stored as an
interpretation and the inventory is marked in the same transaction.
The file may hold a GeoJSON geometry, a Feature or a FeatureCollection
with one feature. The verified species is set with --species, otherwise
the species of the inventory is used.

An inventory can be interpreted only once.

Examples:
  idb interpret 42
  idb interpret 42 --geometry crown.geojson --species SAP`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runInterpret(args[0], geomPath, speciesCode)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	interpretCmd.Flags().StringVarP(&geomPath, "geometry", "g", "",
		"GeoJSON file with the interpreted polygon")
	interpretCmd.Flags().StringVarP(&speciesCode, "species", "s", "",
		"code of the verified species")

	return interpretCmd
}

func runInterpret(idArg, geomPath, speciesCode string) error {
	ctx := context.Background()

	id, err := strconv.ParseUint(idArg, 10, 64)
	if err != nil || id == 0 {
		return store.InvalidFilterError(
			fmt.Sprintf("inventory id must be a positive integer, got %q", idArg))
	}
	if geomPath == "" && speciesCode != "" {
		return store.InvalidFilterError("--species requires --geometry")
	}

	in := store.Interpretation{InventoryID: uint(id), SpeciesCode: speciesCode}
	if geomPath != "" {
		data, err := iofs.ReadFile(geomPath)
		if err != nil {
			return err
		}
		if in.Geom, err = schema.GeometryFromGeoJSON(data); err != nil {
			return err
		}
	}

	st, closeFn, err := openStore(ctx, envName)
	if err != nil {
		return err
	}
	defer closeFn()

	if geomPath == "" {
		if err = st.MarkInterpreted(ctx, in.InventoryID); err != nil {
			return err
		}
		gn.Info("Inventory <em>%d</em> is marked as interpreted", id)
		return nil
	}

	iid, err := st.Interpret(ctx, in)
	if err != nil {
		return err
	}
	gn.Info("Interpretation <em>%d</em> of inventory <em>%d</em> is saved", iid, id)
	return nil
}
