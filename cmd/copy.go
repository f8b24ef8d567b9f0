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

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/idrop/idb/internal/iocopy"
	"github.com/spf13/cobra"
)

// getCopyCmd returns the copy command.
// Extracted as a function to facilitate testing and dynamic
// command registration.
func getCopyCmd() *cobra.Command {
	var srcEnv, dstEnv string

	copyCmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy all data into the database of another environment",
		Long: `Copy the content of one database into another existing database.

This command:
  1. Connects to the source and destination environments
  2. Checks that both databases are initialized
  3. Copies species, tiles, study areas, inventories and
     interpretations in this order
  4. Updates rows whose ids already exist in the destination

The destination must be created first with 'idb init --env NAME'.
It is useful for dumping data to SpatiaLite for data exchange.

Examples:
  idb copy --src-env main --dst-env sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runCopy(srcEnv, dstEnv)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	copyCmd.Flags().StringVar(&srcEnv, "src-env", "main",
		"source environment")
	copyCmd.Flags().StringVar(&dstEnv, "dst-env", "",
		"destination environment")
	_ = copyCmd.MarkFlagRequired("dst-env")

	return copyCmd
}

func runCopy(srcEnv, dstEnv string) error {
	ctx := context.Background()
	if srcEnv == dstEnv {
		return iocopy.SameEnvError(srcEnv)
	}

	src, srcCfg, err := connect(ctx, srcEnv)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, dstCfg, err := connect(ctx, dstEnv)
	if err != nil {
		return err
	}
	defer dst.Close()

	gn.Info("Copying <em>%s</em> into <em>%s</em>", srcCfg, dstCfg)
	counts, err := iocopy.New(src, dst, dstCfg.BatchSize).Copy(ctx)
	if err != nil {
		return err
	}

	var total int64
	for _, v := range counts {
		total += v.Rows
	}
	gn.Info("Copy complete: <em>%s</em> rows in <em>%d</em> tables",
		humanize.Comma(total), len(counts))
	return nil
}
