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
	"github.com/spf13/cobra"
)

// getSampleCmd returns the sample command.
func getSampleCmd() *cobra.Command {
	var f store.SampleFilter

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Print a random sample of inventories as GeoJSON",
		Long: `Draw inventories in random order and print them as a GeoJSON
FeatureCollection.

Study areas restrict the sample to inventories intersecting them.
Several study areas are combined into one union.

Examples:
  idb sample
  idb sample -n 20 --study-area 1 --species 3 --not-interpreted
  idb sample -n 5 --study-area 1,2 --camel-case -p`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Interpreted = interpretedFilter(cmd)
			err := runSample(cmd, f)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	sampleCmd.Flags().IntVarP(&f.NSamples, "number", "n", 1,
		"number of samples")
	sampleCmd.Flags().UintSliceVar(&f.StudyAreaIDs, "study-area", nil,
		"study area ids")
	sampleCmd.Flags().UintVar(&f.SpeciesID, "species", 0,
		"species id")
	sampleCmd.Flags().UintVar(&f.TileID, "tile", 0,
		"tile id")
	interpretedFlags(sampleCmd)
	outputFlags(sampleCmd)

	return sampleCmd
}

func runSample(cmd *cobra.Command, f store.SampleFilter) error {
	ctx := context.Background()
	if err := f.Validate(); err != nil {
		return err
	}

	st, closeFn, err := openStore(ctx, envName)
	if err != nil {
		return err
	}
	defer closeFn()

	fc, err := st.Inventories(ctx, f)
	if err != nil {
		return err
	}
	return printCollection(cmd, fc)
}
