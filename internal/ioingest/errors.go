package ioingest

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
)

// SpeciesFileError is returned when a species CSV file cannot be read or
// has a malformed row. Line is 0 when the file itself is unreadable.
func SpeciesFileError(path string, line int, err error) error {
	msg := `Cannot load species from <em>%s</em> (line %d)

<em>How to fix:</em>
  Every row must have two columns: <em>code,name</em>`

	return &gn.Error{
		Code: errcode.IngestSpeciesFileError,
		Msg:  msg,
		Vars: []any{path, line},
		Err:  fmt.Errorf("species file %s, line %d: %w", path, line, err),
	}
}

// LayerError is returned when features of a layer cannot be saved.
func LayerError(layer string, err error) error {
	msg := "Cannot ingest layer <em>%s</em>"
	return &gn.Error{
		Code: errcode.IngestLayerError,
		Msg:  msg,
		Vars: []any{layer},
		Err:  fmt.Errorf("failed to ingest layer %s: %w", layer, err),
	}
}
