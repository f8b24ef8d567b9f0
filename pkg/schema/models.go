// Package schema provides database models of the labelling database.
//
// Every geometry is stored in WGS 84 (EPSG:4326). Relationships are
// one-to-many foreign keys: a Species has many Inventory and Interpreted
// records, a Tile has many Inventory records, and an Inventory record has
// many Interpreted records.
package schema

import (
	"time"

	"github.com/idrop/idb/pkg/geom"
)

// Species is an entry of the species reference list.
type Species struct {
	ID uint `gorm:"primaryKey"`

	// Code is a short unique code, for example "SAP".
	Code string `gorm:"uniqueIndex;not null"`

	// Name is a unique species name, for example "sapelli".
	Name string `gorm:"uniqueIndex;not null"`

	Inventories []Inventory   `gorm:"constraint:OnDelete:SET NULL"`
	Interpreted []Interpreted `gorm:"constraint:OnDelete:SET NULL"`
}

func (Species) TableName() string { return "species" }

// Tile is an inventory unit of about 50 ha.
type Tile struct {
	ID   uint         `gorm:"primaryKey"`
	Geom geom.Polygon `gorm:"column:geom"`
	Name string       `gorm:"uniqueIndex"`

	Inventories []Inventory `gorm:"constraint:OnDelete:SET NULL"`
}

func (Tile) TableName() string { return "tiles" }

// Inventory is a tree sample surveyed in the field.
type Inventory struct {
	ID        uint       `gorm:"primaryKey"`
	Geom      geom.Point `gorm:"column:geom"`
	SpeciesID *uint      `gorm:"index"`
	Species   *Species
	Quality   string
	TileID    *uint `gorm:"index;uniqueIndex:idx_inventories_tile_exp_num"`
	Tile      *Tile

	// ExpNum is the exploitation number, unique within a tile.
	ExpNum *int `gorm:"uniqueIndex:idx_inventories_tile_exp_num"`

	// DBH is the diameter at breast height.
	DBH *int `gorm:"column:dbh"`

	// Interpreted flips to true once the sample was labelled.
	Interpreted bool `gorm:"not null;default:false"`

	Comment *string

	Interpretations []Interpreted `gorm:"foreignKey:InventoryID;constraint:OnDelete:CASCADE"`
}

func (Inventory) TableName() string { return "inventories" }

// Interpreted is a polygon drawn by a labeller for an inventory sample,
// together with the verified species.
type Interpreted struct {
	ID          uint         `gorm:"primaryKey"`
	Geom        geom.Polygon `gorm:"column:geom"`
	SpeciesID   *uint        `gorm:"index"`
	Species     *Species
	InventoryID *uint `gorm:"index"`
	Inventory   *Inventory
	TimeCreated time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Interpreted) TableName() string { return "interpreted" }

// Studyarea is a named polygon restricting sampling.
type Studyarea struct {
	ID   uint         `gorm:"primaryKey"`
	Geom geom.Polygon `gorm:"column:geom"`
	Name string
}

func (Studyarea) TableName() string { return "studyareas" }
