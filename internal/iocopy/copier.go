// Package iocopy copies the content of one labelling database into
// another, for example from PostGIS into a SpatiaLite file for data
// exchange.
package iocopy

import (
	"context"
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/idrop/idb/pkg/db"
	"github.com/idrop/idb/pkg/lifecycle"
	"github.com/idrop/idb/pkg/schema"
	"github.com/idrop/idb/pkg/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBatchSize is used when the batch size given to New is not
// positive.
const DefaultBatchSize = 1_000

// Copier implements lifecycle.Copier. Rows are merged into the
// destination: rows with existing primary keys are updated.
type Copier struct {
	src, dst  db.Operator
	batchSize int
}

// New creates a Copier between two connected operators.
func New(src, dst db.Operator, batchSize int) *Copier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Copier{src: src, dst: dst, batchSize: batchSize}
}

// Copy copies species, tiles, study areas, inventories and
// interpretations in this order. Every table is written in its own
// transaction.
func (c *Copier) Copy(ctx context.Context) ([]lifecycle.TableCount, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	steps := []struct {
		table string
		copy  func(context.Context, *Copier, string) (int64, error)
	}{
		{schema.Species{}.TableName(), copyTable[schema.Species]},
		{schema.Tile{}.TableName(), copyTable[schema.Tile]},
		{schema.Studyarea{}.TableName(), copyTable[schema.Studyarea]},
		{schema.Inventory{}.TableName(), copyTable[schema.Inventory]},
		{schema.Interpreted{}.TableName(), copyTable[schema.Interpreted]},
	}

	res := make([]lifecycle.TableCount, 0, len(steps))
	for _, v := range steps {
		n, err := v.copy(ctx, c, v.table)
		if err != nil {
			return res, TableError(v.table, err)
		}
		res = append(res, lifecycle.TableCount{Table: v.table, Rows: n})
		gn.Info("Copied <em>%s</em> rows of <em>%s</em>", humanize.Comma(n), v.table)
	}

	slog.Info("Database copied",
		"tables", len(res),
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return res, nil
}

func (c *Copier) check(ctx context.Context) error {
	sides := []struct {
		name string
		op   db.Operator
	}{
		{"source", c.src},
		{"destination", c.dst},
	}
	for _, v := range sides {
		ok, err := v.op.HasTables(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return NotInitializedError(v.name)
		}
	}
	return nil
}

func copyTable[T any](ctx context.Context, c *Copier, table string) (int64, error) {
	src := c.src.DB().WithContext(ctx)
	var total int64
	if err := src.Model(new(T)).Count(&total).Error; err != nil {
		return 0, err
	}

	bar := pb.Full.Start64(total)
	bar.Set("prefix", table+": ")
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	var copied int64
	err := c.dst.DB().WithContext(ctx).Transaction(func(dst *gorm.DB) error {
		var batch []T
		err := src.Scopes(store.ReadGeometry(c.src.Dialect(), new(T))).
			FindInBatches(&batch, c.batchSize, func(_ *gorm.DB, _ int) error {
				err := dst.Omit(clause.Associations).
					Clauses(clause.OnConflict{UpdateAll: true}).
					Create(&batch).Error
				if err != nil {
					return err
				}
				copied += int64(len(batch))
				bar.Add(len(batch))
				return nil
			}).Error
		if err != nil {
			return err
		}

		if stmt := c.dst.Dialect().ResetSequence(table); stmt != "" {
			return dst.Exec(stmt).Error
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Table copied", "table", table, "rows", copied)
	return copied, nil
}
