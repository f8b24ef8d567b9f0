package lifecycle

import "context"

// IngestStats counts records saved by an ingestion.
type IngestStats struct {
	Tiles       int
	Inventories int
	StudyAreas  int
}

// Ingester loads external files into the database.
type Ingester interface {
	// LoadSpecies reads a headerless CSV file of "code,name" rows and
	// saves missing species. It returns the number of rows processed.
	LoadSpecies(ctx context.Context, path string) (int, error)

	// Ingest reads the tiles, inventory and study area layers of a
	// GeoPackage and saves them in this order. Every layer is saved in
	// its own transaction.
	Ingest(ctx context.Context, path string) (IngestStats, error)
}
