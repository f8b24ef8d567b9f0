package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
)

var (
	// ErrNotFound is wrapped by errors about missing records.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyInterpreted is wrapped by MarkInterpreted when the
	// inventory was interpreted before.
	ErrAlreadyInterpreted = errors.New("inventory is already interpreted")

	// ErrInvalidFilter is wrapped by validation errors of queries.
	ErrInvalidFilter = errors.New("invalid query")
)

// InvalidFilterError is returned when query parameters are inconsistent.
func InvalidFilterError(reason string) error {
	msg := "Invalid query: %s"

	return &gn.Error{
		Code: errcode.StoreInvalidFilterError,
		Msg:  msg,
		Vars: []any{reason},
		Err:  fmt.Errorf("%w: %s", ErrInvalidFilter, reason),
	}
}

// NotFoundError is returned when a record with the given id does not
// exist.
func NotFoundError(entity string, id uint) error {
	msg := "Cannot find <em>%s</em> with id <em>%d</em>"

	return &gn.Error{
		Code: errcode.StoreNotFoundError,
		Msg:  msg,
		Vars: []any{entity, id},
		Err:  fmt.Errorf("%s %d: %w", entity, id, ErrNotFound),
	}
}

// AlreadyInterpretedError is returned when an inventory is marked as
// interpreted a second time.
func AlreadyInterpretedError(id uint) error {
	msg := `Inventory <em>%d</em> is already interpreted

<em>How to fix:</em>
  Sample inventories that are not interpreted yet:
  <em>idb sample --not-interpreted</em>`

	return &gn.Error{
		Code: errcode.StoreAlreadyInterpretedError,
		Msg:  msg,
		Vars: []any{id},
		Err:  fmt.Errorf("inventory %d: %w", id, ErrAlreadyInterpreted),
	}
}

// UnknownSpeciesError is returned when a species code is not in the
// species table.
func UnknownSpeciesError(code string) error {
	msg := `Species code <em>%s</em> is unknown

<em>How to fix:</em>
  Load the species list first:
  <em>idb init --species species.csv</em>`

	return &gn.Error{
		Code: errcode.StoreUnknownSpeciesError,
		Msg:  msg,
		Vars: []any{code},
		Err:  fmt.Errorf("species %q: %w", code, ErrNotFound),
	}
}

// UnknownTileError is returned when a tile name is not in the tiles
// table.
func UnknownTileError(name string) error {
	msg := `Tile <em>%s</em> is unknown

<em>How to fix:</em>
  Ingest tiles before the inventory that references them`

	return &gn.Error{
		Code: errcode.StoreUnknownTileError,
		Msg:  msg,
		Vars: []any{name},
		Err:  fmt.Errorf("tile %q: %w", name, ErrNotFound),
	}
}

// UnknownStudyAreaError is returned when a sample filter references study
// areas that do not exist.
func UnknownStudyAreaError(ids []uint) error {
	strs := make([]string, len(ids))
	for i, v := range ids {
		strs[i] = fmt.Sprintf("%d", v)
	}
	list := strings.Join(strs, ", ")
	msg := "Study area(s) <em>%s</em> do not exist"

	return &gn.Error{
		Code: errcode.StoreUnknownStudyAreaError,
		Msg:  msg,
		Vars: []any{list},
		Err:  fmt.Errorf("study areas %s: %w", list, ErrNotFound),
	}
}

// QueryError is returned when a read query fails.
func QueryError(what string, err error) error {
	msg := "Cannot query <em>%s</em>"

	return &gn.Error{
		Code: errcode.StoreQueryError,
		Msg:  msg,
		Vars: []any{what},
		Err:  fmt.Errorf("query %s: %w", what, err),
	}
}

// InsertError is returned when inserting records fails. The whole batch
// is rolled back.
func InsertError(entity string, err error) error {
	msg := `Cannot insert <em>%s</em>, no records were saved

<em>Possible causes:</em>
  - A record duplicates a unique value
  - A geometry is invalid`

	return &gn.Error{
		Code: errcode.StoreInsertError,
		Msg:  msg,
		Vars: []any{entity},
		Err:  fmt.Errorf("insert %s: %w", entity, err),
	}
}

// UpdateError is returned when an update fails.
func UpdateError(entity string, err error) error {
	msg := "Cannot update <em>%s</em>"

	return &gn.Error{
		Code: errcode.StoreUpdateError,
		Msg:  msg,
		Vars: []any{entity},
		Err:  fmt.Errorf("update %s: %w", entity, err),
	}
}

// HasCode reports whether err is a *gn.Error with the given code.
func HasCode(err error, code gn.ErrorCode) bool {
	var gnErr *gn.Error
	return errors.As(err, &gnErr) && gnErr.Code == code
}
