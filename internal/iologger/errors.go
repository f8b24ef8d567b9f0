package iologger

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
)

// CreateLogFileError is returned when idb.log cannot be opened.
func CreateLogFileError(path string, err error) error {
	msg := "Cannot create log file <em>%s</em>"
	return &gn.Error{
		Code: errcode.CreateLogFileError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("create log file %s: %w", path, err),
	}
}
