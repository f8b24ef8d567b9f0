// Package errcode enumerates error codes of idb.
package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError

	// Logging errors
	CreateLogFileError

	// Configuration errors
	ConfigUnknownEnvError

	// Database errors
	DBConnectionError
	DBUnsupportedDriverError
	DBSpatialExtensionError
	DBNotConnectedError
	DBTableCheckError
	DBTableExistsCheckError
	DBQueryTablesError
	DBScanTableError
	DBDropTableError
	DBEmptyDatabaseError

	// Schema errors
	SchemaSpatialInitError
	SchemaCreateError
	SchemaMigrateError
	SchemaSpatialIndexError

	// Feature conversion errors
	FeatureGeometryError
	FeaturePropertyError

	// Store errors
	StoreInvalidFilterError
	StoreNotFoundError
	StoreAlreadyInterpretedError
	StoreUnknownSpeciesError
	StoreUnknownTileError
	StoreUnknownStudyAreaError
	StoreQueryError
	StoreInsertError
	StoreUpdateError

	// GeoPackage errors
	GpkgOpenError
	GpkgNotGeoPackageError
	GpkgLayerNotFoundError
	GpkgReadError
	GpkgGeometryError

	// Ingest errors
	IngestSpeciesFileError
	IngestLayerError

	// Copy errors
	CopySameEnvError
	CopyNotInitializedError
	CopyTableError
)
