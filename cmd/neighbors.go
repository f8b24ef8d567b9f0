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
	"github.com/idrop/idb/pkg/store"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
)

// getNeighborsCmd returns the neighbors command.
func getNeighborsCmd() *cobra.Command {
	var (
		q        store.NeighborQuery
		lon, lat float64
	)

	neighborsCmd := &cobra.Command{
		Use:   "neighbors",
		Short: "Print inventories within a radius as GeoJSON",
		Long: `Find inventories within a geodesic radius in meters around an
inventory or a point and print them as a GeoJSON FeatureCollection,
ordered by id. The centre inventory is not included.

Examples:
  idb neighbors --inventory 12 --radius 50
  idb neighbors --lon 16.05 --lat 2.2 --radius 100 --species 3 --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("lon") || cmd.Flags().Changed("lat") {
				q.Center = &orb.Point{lon, lat}
			}
			q.Interpreted = interpretedFilter(cmd)
			err := runNeighbors(cmd, q)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	neighborsCmd.Flags().UintVar(&q.InventoryID, "inventory", 0,
		"id of the centre inventory")
	neighborsCmd.Flags().Float64Var(&lon, "lon", 0, "longitude of the centre")
	neighborsCmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the centre")
	neighborsCmd.Flags().Float64VarP(&q.RadiusMeters, "radius", "r", 0,
		"search radius in meters")
	neighborsCmd.Flags().UintVar(&q.SpeciesID, "species", 0, "species id")
	neighborsCmd.Flags().IntVarP(&q.Limit, "limit", "l", 0,
		"maximum number of results, 0 for all")
	neighborsCmd.MarkFlagsRequiredTogether("lon", "lat")
	neighborsCmd.MarkFlagsMutuallyExclusive("inventory", "lon")
	_ = neighborsCmd.MarkFlagRequired("radius")
	interpretedFlags(neighborsCmd)
	outputFlags(neighborsCmd)

	return neighborsCmd
}

func runNeighbors(cmd *cobra.Command, q store.NeighborQuery) error {
	ctx := context.Background()
	if err := q.Validate(); err != nil {
		return err
	}

	st, closeFn, err := openStore(ctx, envName)
	if err != nil {
		return err
	}
	defer closeFn()

	fc, err := st.Neighbors(ctx, q)
	if err != nil {
		return err
	}
	return printCollection(cmd, fc)
}
