// Package iostore implements store.Store with GORM. Spatial predicates
// are rendered by the dialect of the database operator and executed by
// PostGIS or SpatiaLite.
package iostore

import (
	"context"
	"errors"
	"slices"

	"github.com/idrop/idb/pkg/db"
	"github.com/idrop/idb/pkg/schema"
	"github.com/idrop/idb/pkg/spatial"
	"github.com/idrop/idb/pkg/store"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBatchSize is used when the batch size given to New is not
// positive.
const DefaultBatchSize = 1_000

type gormStore struct {
	db        *gorm.DB
	dialect   spatial.Dialect
	batchSize int
}

// New creates a store on top of a connected operator. Inserts are sent
// to the database in batches of batchSize records.
func New(op db.Operator, batchSize int) (store.Store, error) {
	if op == nil || op.DB() == nil {
		return nil, NotConnectedError()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	res := gormStore{
		db:        op.DB(),
		dialect:   op.Dialect(),
		batchSize: batchSize,
	}
	return &res, nil
}

func (s *gormStore) Transaction(
	ctx context.Context,
	fn func(store.Store) error,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.with(tx))
	})
}

func (s *gormStore) with(tx *gorm.DB) *gormStore {
	res := *s
	res.db = tx
	return &res
}

func (s *gormStore) AddInventories(
	ctx context.Context,
	features []*geojson.Feature,
) ([]uint, error) {
	recs := make([]*schema.InventoryRecord, len(features))
	for i, f := range features {
		rec, err := schema.InventoryFromFeature(f)
		if err != nil {
			return nil, err
		}
		recs[i] = rec
	}
	if len(recs) == 0 {
		return nil, nil
	}

	var ids []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		species, err := speciesByCode(tx, recs)
		if err != nil {
			return err
		}
		tiles, err := tilesByName(tx, recs)
		if err != nil {
			return err
		}

		rows := make([]schema.Inventory, len(recs))
		for i, rec := range recs {
			inv := rec.Inventory
			if rec.SpeciesCode != "" {
				id, ok := species[rec.SpeciesCode]
				if !ok {
					return store.UnknownSpeciesError(rec.SpeciesCode)
				}
				inv.SpeciesID = &id
			}
			if rec.TileName != "" {
				id, ok := tiles[rec.TileName]
				if !ok {
					return store.UnknownTileError(rec.TileName)
				}
				inv.TileID = &id
			}
			rows[i] = inv
		}

		err = tx.Omit(clause.Associations).
			CreateInBatches(&rows, s.batchSize).Error
		if err != nil {
			return store.InsertError("inventory", err)
		}

		ids = make([]uint, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *gormStore) AddTiles(
	ctx context.Context,
	features []*geojson.Feature,
) ([]uint, error) {
	rows := make([]schema.Tile, len(features))
	for i, f := range features {
		tile, err := schema.TileFromFeature(f)
		if err != nil {
			return nil, err
		}
		rows[i] = *tile
	}
	return insert(ctx, s, "tiles", rows, func(t schema.Tile) uint { return t.ID })
}

func (s *gormStore) AddStudyAreas(
	ctx context.Context,
	features []*geojson.Feature,
) ([]uint, error) {
	rows := make([]schema.Studyarea, len(features))
	for i, f := range features {
		area, err := schema.StudyareaFromFeature(f)
		if err != nil {
			return nil, err
		}
		rows[i] = *area
	}
	return insert(ctx, s, "study areas", rows, func(a schema.Studyarea) uint { return a.ID })
}

// insert saves rows in one transaction and returns their ids.
func insert[T any](
	ctx context.Context,
	s *gormStore,
	entity string,
	rows []T,
	id func(T) uint,
) ([]uint, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).
			CreateInBatches(&rows, s.batchSize).Error
	})
	if err != nil {
		return nil, store.InsertError(entity, err)
	}
	res := make([]uint, len(rows))
	for i := range rows {
		res[i] = id(rows[i])
	}
	return res, nil
}

func (s *gormStore) Inventories(
	ctx context.Context,
	f store.SampleFilter,
) (*geojson.FeatureCollection, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx)

	if ids := f.AreaIDs(); len(ids) > 0 {
		var found []uint
		err := tx.Model(&schema.Studyarea{}).
			Where("id IN ?", ids).
			Pluck("id", &found).Error
		if err != nil {
			return nil, store.QueryError("study areas", err)
		}
		if missing := difference(ids, found); len(missing) > 0 {
			return nil, store.UnknownStudyAreaError(missing)
		}
	}

	var rows []schema.Inventory
	err := tx.Model(&schema.Inventory{}).
		Scopes(
			store.ReadGeometry(s.dialect, &schema.Inventory{}),
			store.SampleScope(s.dialect, f),
		).
		Preload("Species").
		Find(&rows).Error
	if err != nil {
		return nil, store.QueryError("inventories", err)
	}
	return schema.InventoryCollection(rows), nil
}

func (s *gormStore) Neighbors(
	ctx context.Context,
	q store.NeighborQuery,
) (*geojson.FeatureCollection, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx)

	if q.InventoryID > 0 {
		var n int64
		err := tx.Model(&schema.Inventory{}).
			Where("id = ?", q.InventoryID).
			Count(&n).Error
		if err != nil {
			return nil, store.QueryError("inventories", err)
		}
		if n == 0 {
			return nil, store.NotFoundError("inventory", q.InventoryID)
		}
	}

	var rows []schema.Inventory
	err := tx.Model(&schema.Inventory{}).
		Scopes(
			store.ReadGeometry(s.dialect, &schema.Inventory{}),
			store.NeighborScope(s.dialect, q),
		).
		Preload("Species").
		Find(&rows).Error
	if err != nil {
		return nil, store.QueryError("neighbors", err)
	}
	return schema.InventoryCollection(rows), nil
}

func (s *gormStore) MarkInterpreted(ctx context.Context, inventoryID uint) error {
	return markInterpreted(s.db.WithContext(ctx), inventoryID)
}

// markInterpreted flips the flag only if it is not set yet, so that
// concurrent labellers cannot interpret the same sample twice.
func markInterpreted(tx *gorm.DB, id uint) error {
	res := tx.Model(&schema.Inventory{}).
		Where("id = ? AND interpreted = ?", id, false).
		Update("interpreted", true)
	if res.Error != nil {
		return store.UpdateError("inventory", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	err := tx.Model(&schema.Inventory{}).Where("id = ?", id).Count(&n).Error
	if err != nil {
		return store.QueryError("inventories", err)
	}
	if n == 0 {
		return store.NotFoundError("inventory", id)
	}
	return store.AlreadyInterpretedError(id)
}

func (s *gormStore) Interpret(
	ctx context.Context,
	in store.Interpretation,
) (uint, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	poly, err := schema.PolygonFromGeometry(in.Geom)
	if err != nil {
		return 0, err
	}

	var id uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv schema.Inventory
		err := tx.Select("id", "species_id").First(&inv, in.InventoryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.NotFoundError("inventory", in.InventoryID)
		}
		if err != nil {
			return store.QueryError("inventories", err)
		}

		speciesID, err := interpretedSpecies(tx, in, inv.SpeciesID)
		if err != nil {
			return err
		}

		if err := markInterpreted(tx, inv.ID); err != nil {
			return err
		}

		rec := schema.Interpreted{
			Geom:        poly,
			SpeciesID:   speciesID,
			InventoryID: &inv.ID,
		}
		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			return store.InsertError("interpretation", err)
		}
		id = rec.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// interpretedSpecies resolves the verified species of an interpretation,
// falling back to the species of the inventory.
func interpretedSpecies(
	tx *gorm.DB,
	in store.Interpretation,
	fallback *uint,
) (*uint, error) {
	switch {
	case in.SpeciesID > 0:
		var n int64
		err := tx.Model(&schema.Species{}).
			Where("id = ?", in.SpeciesID).
			Count(&n).Error
		if err != nil {
			return nil, store.QueryError("species", err)
		}
		if n == 0 {
			return nil, store.NotFoundError("species", in.SpeciesID)
		}
		id := in.SpeciesID
		return &id, nil
	case in.SpeciesCode != "":
		var sp schema.Species
		err := tx.Where("code = ?", in.SpeciesCode).First(&sp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.UnknownSpeciesError(in.SpeciesCode)
		}
		if err != nil {
			return nil, store.QueryError("species", err)
		}
		return &sp.ID, nil
	default:
		return fallback, nil
	}
}

func (s *gormStore) GetOrCreateSpecies(
	ctx context.Context,
	code, name string,
) (*schema.Species, error) {
	if code == "" || name == "" {
		return nil, store.InvalidFilterError("species code and name are required")
	}
	var res schema.Species
	err := s.db.WithContext(ctx).
		Where(&schema.Species{Code: code, Name: name}).
		FirstOrCreate(&res).Error
	if err != nil {
		return nil, store.InsertError("species", err)
	}
	return &res, nil
}

func (s *gormStore) Species(ctx context.Context) ([]schema.Species, error) {
	var res []schema.Species
	err := s.db.WithContext(ctx).Order("code").Find(&res).Error
	if err != nil {
		return nil, store.QueryError("species", err)
	}
	return res, nil
}

func (s *gormStore) StudyAreas(ctx context.Context) ([]schema.Studyarea, error) {
	var res []schema.Studyarea
	err := s.db.WithContext(ctx).
		Model(&schema.Studyarea{}).
		Scopes(store.ReadGeometry(s.dialect, &schema.Studyarea{})).
		Order("studyareas.id").
		Find(&res).Error
	if err != nil {
		return nil, store.QueryError("study areas", err)
	}
	return res, nil
}

func speciesByCode(
	tx *gorm.DB,
	recs []*schema.InventoryRecord,
) (map[string]uint, error) {
	var codes []string
	for _, v := range recs {
		if v.SpeciesCode != "" {
			codes = append(codes, v.SpeciesCode)
		}
	}
	res := make(map[string]uint)
	if len(codes) == 0 {
		return res, nil
	}

	var rows []schema.Species
	err := tx.Select("id", "code").
		Where("code IN ?", distinct(codes)).
		Find(&rows).Error
	if err != nil {
		return nil, store.QueryError("species", err)
	}
	for _, v := range rows {
		res[v.Code] = v.ID
	}
	return res, nil
}

func tilesByName(
	tx *gorm.DB,
	recs []*schema.InventoryRecord,
) (map[string]uint, error) {
	var names []string
	for _, v := range recs {
		if v.TileName != "" {
			names = append(names, v.TileName)
		}
	}
	res := make(map[string]uint)
	if len(names) == 0 {
		return res, nil
	}

	var rows []schema.Tile
	err := tx.Select("id", "name").
		Where("name IN ?", distinct(names)).
		Find(&rows).Error
	if err != nil {
		return nil, store.QueryError("tiles", err)
	}
	for _, v := range rows {
		res[v.Name] = v.ID
	}
	return res, nil
}

func distinct[T string | uint](s []T) []T {
	res := slices.Clone(s)
	slices.Sort(res)
	return slices.Compact(res)
}

// difference returns elements of want missing from got.
func difference(want, got []uint) []uint {
	var res []uint
	for _, v := range want {
		if !slices.Contains(got, v) {
			res = append(res, v)
		}
	}
	return res
}
