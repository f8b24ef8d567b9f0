package iogpkg

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

const (
	flagLittleEndian = 0x01
	flagEnvelope     = 0x0e
	flagEmpty        = 0x10
	flagExtended     = 0x20
)

var (
	errMagic    = errors.New("missing GP magic")
	errShort    = errors.New("geometry blob is truncated")
	errExtended = errors.New("extended geometry types are not supported")
)

// envelopeSize maps the envelope indicator to its size in bytes.
var envelopeSize = [...]int{0, 32, 48, 48, 64}

// decodeGeometry reads a GeoPackage geometry blob. It returns the
// geometry and the SRS id of the header. Empty geometries are returned
// as nil.
func decodeGeometry(data []byte) (orb.Geometry, int, error) {
	if len(data) < 8 {
		return nil, 0, errShort
	}
	if data[0] != 'G' || data[1] != 'P' {
		return nil, 0, errMagic
	}
	flags := data[3]
	if flags&flagExtended != 0 {
		return nil, 0, errExtended
	}

	var order binary.ByteOrder = binary.BigEndian
	if flags&flagLittleEndian != 0 {
		order = binary.LittleEndian
	}
	srid := int(int32(order.Uint32(data[4:8])))

	env := int(flags&flagEnvelope) >> 1
	if env >= len(envelopeSize) {
		return nil, 0, fmt.Errorf("invalid envelope indicator %d", env)
	}
	start := 8 + envelopeSize[env]
	if len(data) < start {
		return nil, 0, errShort
	}
	if flags&flagEmpty != 0 {
		return nil, srid, nil
	}

	g, err := wkb.Unmarshal(data[start:])
	if err != nil {
		return nil, 0, err
	}
	return g, srid, nil
}
