package iocopy

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
)

// SameEnvError is returned when source and destination of a copy are the
// same database.
func SameEnvError(env string) error {
	msg := `Source and destination are the same environment <em>%s</em>

<em>How to fix:</em>
  Use different values for <em>--src-env</em> and <em>--dst-env</em>`

	return &gn.Error{
		Code: errcode.CopySameEnvError,
		Msg:  msg,
		Vars: []any{env},
		Err:  fmt.Errorf("cannot copy %s onto itself", env),
	}
}

// NotInitializedError is returned when the source or the destination
// database has no schema.
func NotInitializedError(side string) error {
	msg := `The %s database has no tables

<em>How to fix:</em>
  Run <em>idb init</em> for that environment first`

	return &gn.Error{
		Code: errcode.CopyNotInitializedError,
		Msg:  msg,
		Vars: []any{side},
		Err:  fmt.Errorf("%s database is not initialized", side),
	}
}

// TableError is returned when copying a table fails.
func TableError(table string, err error) error {
	msg := "Cannot copy table <em>%s</em>"
	return &gn.Error{
		Code: errcode.CopyTableError,
		Msg:  msg,
		Vars: []any{table},
		Err:  fmt.Errorf("failed to copy %s: %w", table, err),
	}
}
