// Package ioingest loads species lists and inventory GeoPackages into the
// labelling database.
package ioingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/idrop/idb/internal/iogpkg"
	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/lifecycle"
	"github.com/idrop/idb/pkg/store"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

// Ingester implements lifecycle.Ingester on top of a store.
type Ingester struct {
	store     store.Store
	layers    config.IngestConfig
	jobs      int
	batchSize int
}

// New creates an Ingester. Layers are read by up to jobs goroutines and
// saved in chunks of batchSize features.
func New(
	st store.Store,
	layers config.IngestConfig,
	jobs, batchSize int,
) *Ingester {
	return &Ingester{
		store:     st,
		layers:    layers,
		jobs:      max(jobs, 1),
		batchSize: max(batchSize, 1),
	}
}

// LoadSpecies reads "code,name" rows and saves species that are not in
// the database yet. All rows are saved in one transaction.
func (in *Ingester) LoadSpecies(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, SpeciesFileError(path, 0, err)
	}
	defer f.Close()

	rows, err := readSpecies(path, f)
	if err != nil {
		return 0, err
	}

	err = in.store.Transaction(ctx, func(tx store.Store) error {
		for _, v := range rows {
			if _, err := tx.GetOrCreateSpecies(ctx, v[0], v[1]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Species loaded", "path", path, "rows", len(rows))
	return len(rows), nil
}

func readSpecies(path string, r io.Reader) ([][2]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var res [][2]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pErr *csv.ParseError
			line := 0
			if errors.As(err, &pErr) {
				line = pErr.Line
			}
			return nil, SpeciesFileError(path, line, err)
		}

		line, _ := cr.FieldPos(0)
		if len(rec) < 2 {
			return nil, SpeciesFileError(path, line,
				fmt.Errorf("expected 2 columns, got %d", len(rec)))
		}
		code, name := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if code == "" || name == "" {
			return nil, SpeciesFileError(path, line,
				errors.New("code and name cannot be empty"))
		}
		res = append(res, [2]string{code, name})
	}
	return res, nil
}

type layer struct {
	name  string
	title string
	save  func(store.Store, context.Context, []*geojson.Feature) ([]uint, error)
	count *int
}

// Ingest reads the configured layers of a GeoPackage concurrently, then
// saves tiles, inventories and study areas, each layer in its own
// transaction. Layers with an empty name are skipped.
func (in *Ingester) Ingest(ctx context.Context, path string) (lifecycle.IngestStats, error) {
	var stats lifecycle.IngestStats
	start := time.Now()

	r, err := iogpkg.Open(ctx, path)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	ls := []layer{
		{in.layers.TilesLayer, "Tiles", store.Store.AddTiles, &stats.Tiles},
		{in.layers.InventoryLayer, "Inventory", store.Store.AddInventories, &stats.Inventories},
		{in.layers.StudyareaLayer, "Study areas", store.Store.AddStudyAreas, &stats.StudyAreas},
	}

	features := make([][]*geojson.Feature, len(ls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.jobs)
	for i, l := range ls {
		if l.name == "" {
			continue
		}
		g.Go(func() error {
			fs, err := r.Features(gctx, l.name)
			if err != nil {
				return err
			}
			features[i] = fs
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return stats, err
	}

	for i, l := range ls {
		if l.name == "" {
			slog.Info("Layer skipped", "title", l.title)
			continue
		}
		if *l.count, err = in.save(ctx, l, features[i]); err != nil {
			return stats, LayerError(l.name, err)
		}
	}

	slog.Info("GeoPackage ingested",
		"path", path,
		"tiles", stats.Tiles,
		"inventories", stats.Inventories,
		"study_areas", stats.StudyAreas,
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return stats, nil
}

func (in *Ingester) save(
	ctx context.Context,
	l layer,
	fs []*geojson.Feature,
) (int, error) {
	start := time.Now()
	bar := pb.Full.Start(len(fs))
	bar.Set("prefix", l.title+": ")
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	var res int
	err := in.store.Transaction(ctx, func(tx store.Store) error {
		for chunk := range slices.Chunk(fs, in.batchSize) {
			ids, err := l.save(tx, ctx, chunk)
			if err != nil {
				return err
			}
			res += len(ids)
			bar.Add(len(chunk))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Layer ingested",
		"layer", l.name,
		"records", res,
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	gn.Info("%s: <em>%s</em> records from layer <em>%s</em>",
		l.title, humanize.Comma(int64(res)), l.name)
	return res, nil
}
