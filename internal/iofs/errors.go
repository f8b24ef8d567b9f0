package iofs

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
)

// CreateDirError is returned when one of the idb directories cannot be
// created.
func CreateDirError(dir string, err error) error {
	msg := "Cannot create directory <em>%s</em>"
	return &gn.Error{
		Code: errcode.CreateDirError,
		Msg:  msg,
		Vars: []any{dir},
		Err:  fmt.Errorf("create directory %s: %w", dir, err),
	}
}

// CopyFileError is returned when the default config.yaml cannot be
// written.
func CopyFileError(path string, err error) error {
	msg := `Cannot write default configuration to <em>%s</em>

<em>How to fix:</em>
  Check permissions of the config directory`
	return &gn.Error{
		Code: errcode.CopyFileError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("write config %s: %w", path, err),
	}
}

// ReadFileError is returned when a file given to idb cannot be read.
func ReadFileError(path string, err error) error {
	msg := "Cannot read <em>%s</em>"
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("read %s: %w", path, err),
	}
}
