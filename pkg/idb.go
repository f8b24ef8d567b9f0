// Package idb is the entry point of the labelling database. It keeps the
// version of the project and opens stores for applications that label
// inventory samples.
package idb

import (
	"context"

	"github.com/idrop/idb/internal/iodb"
	"github.com/idrop/idb/internal/iostore"
	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/store"
)

var (
	// Version of idb.
	Version = "v0.1.0"

	// Build timestamp, set by the linker.
	Build = "n/a"
)

// Open connects to the database of cfg and returns a Store together with
// a function that closes the connection.
func Open(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) (store.Store, func() error, error) {
	op, err := iodb.NewOperator(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	if err = op.Connect(ctx, cfg); err != nil {
		return nil, nil, err
	}

	st, err := iostore.New(op, cfg.BatchSize)
	if err != nil {
		_ = op.Close()
		return nil, nil, err
	}
	return st, op.Close, nil
}
