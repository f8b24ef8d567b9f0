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
	"bytes"
	"context"
	"encoding/json"

	"github.com/idrop/idb/internal/iodb"
	"github.com/idrop/idb/internal/iostore"
	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/db"
	"github.com/idrop/idb/pkg/schema"
	"github.com/idrop/idb/pkg/store"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
)

// interpretedFlags adds mutually exclusive --interpreted and
// --not-interpreted flags.
func interpretedFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("interpreted", false, "only interpreted inventories")
	cmd.Flags().Bool("not-interpreted", false, "only inventories without interpretation")
	cmd.MarkFlagsMutuallyExclusive("interpreted", "not-interpreted")
}

// interpretedFilter converts --interpreted and --not-interpreted into a
// tri-state filter. It returns nil when neither flag is set.
func interpretedFilter(cmd *cobra.Command) *bool {
	if yes, _ := cmd.Flags().GetBool("interpreted"); yes {
		return &yes
	}
	if no, _ := cmd.Flags().GetBool("not-interpreted"); no {
		res := false
		return &res
	}
	return nil
}

// outputFlags adds flags controlling GeoJSON output.
func outputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("pretty", "p", false, "indent GeoJSON output")
	cmd.Flags().Bool("camel-case", false, "use camelCase property names")
}

// printCollection writes a FeatureCollection to the output of cmd.
func printCollection(cmd *cobra.Command, fc *geojson.FeatureCollection) error {
	if camel, _ := cmd.Flags().GetBool("camel-case"); camel {
		schema.CamelizeCollection(fc)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		var buf bytes.Buffer
		if err = json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	_, err = cmd.OutOrStdout().Write(append(data, '\n'))
	return err
}

// connect opens the database of the selected environment.
func connect(
	ctx context.Context,
	env string,
) (db.Operator, *config.DatabaseConfig, error) {
	dbCfg, err := cfg.DatabaseFor(env)
	if err != nil {
		return nil, nil, err
	}
	op, err := iodb.NewOperator(dbCfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	if err = op.Connect(ctx, dbCfg); err != nil {
		return nil, nil, err
	}
	return op, dbCfg, nil
}

// connectInitialized opens the database of the selected environment and
// makes sure its schema exists.
func connectInitialized(
	ctx context.Context,
	env string,
) (db.Operator, *config.DatabaseConfig, error) {
	op, dbCfg, err := connect(ctx, env)
	if err != nil {
		return nil, nil, err
	}
	ok, err := op.HasTables(ctx)
	if err == nil && !ok {
		err = iodb.EmptyDatabaseError(dbCfg)
	}
	if err != nil {
		_ = op.Close()
		return nil, nil, err
	}
	return op, dbCfg, nil
}

// openStore opens the store of an initialized database of the selected
// environment. The returned function closes the connection.
func openStore(ctx context.Context, env string) (store.Store, func() error, error) {
	op, dbCfg, err := connectInitialized(ctx, env)
	if err != nil {
		return nil, nil, err
	}
	st, err := iostore.New(op, dbCfg.BatchSize)
	if err != nil {
		_ = op.Close()
		return nil, nil, err
	}
	return st, op.Close, nil
}
