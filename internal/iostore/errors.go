package iostore

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
)

// NotConnectedError is returned when a store is created from an operator
// without connection.
func NotConnectedError() error {
	msg := "Store requires a connected database"

	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Err:  fmt.Errorf("store: not connected to database"),
	}
}
