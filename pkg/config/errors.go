package config

import (
	"fmt"
	"strings"

	"github.com/gnames/gn"
	"github.com/idrop/idb/pkg/errcode"
)

// UnknownEnvError is returned when a command asks for an environment
// that is not present in config.yaml.
func UnknownEnvError(env string, known []string) error {
	msg := `Environment <em>%s</em> is not configured

<em>Known environments:</em> %s

<em>How to fix:</em>
  Add it under <em>environments</em> in config.yaml, for example:

  environments:
    %s:
      driver: spatialite
      path: /path/to/idb.sqlite`

	vars := []any{env, strings.Join(known, ", "), env}

	return &gn.Error{
		Code: errcode.ConfigUnknownEnvError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("unknown environment %q", env),
	}
}
