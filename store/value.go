package store

import (
	"encoding/binary"
	"math"

	"github.com/rotisserie/eris"

	"github.com/axonlabs/simdb/types"
)

var ErrBadValue = eris.New("value does not fit component type")

// EncodeValue converts a Go value into the element bytes for the given
// descriptor. Used for definition-time defaults and by the checked access
// layer; the raw column surface never goes through here.
//
// Accepted inputs per kind: integers and unsigned integers for KindUint and
// KindInt, float32/float64 (and integers) for KindFloat, uint row indices
// or nil (NULL) for KindPointer, and []byte of at most the declared size
// for KindOpaque (shorter payloads are zero-padded).
func EncodeValue(dt types.DataType, v any) ([]byte, error) {
	buf := make([]byte, dt.Width)
	switch dt.Kind {
	case types.KindUint:
		u, ok := asUint(v)
		if !ok {
			return nil, eris.Wrapf(ErrBadValue, "%T for uint%d", v, dt.Width*8)
		}
		putUint(buf, u)
	case types.KindInt:
		i, ok := asInt(v)
		if !ok {
			return nil, eris.Wrapf(ErrBadValue, "%T for int%d", v, dt.Width*8)
		}
		putUint(buf, uint64(i))
	case types.KindFloat:
		f, ok := asFloat(v)
		if !ok {
			return nil, eris.Wrapf(ErrBadValue, "%T for float%d", v, dt.Width*8)
		}
		if dt.Width == 4 {
			putUint(buf, uint64(math.Float32bits(float32(f))))
		} else {
			putUint(buf, math.Float64bits(f))
		}
	case types.KindPointer:
		if v == nil {
			putUint(buf, dt.Null())
			break
		}
		u, ok := asUint(v)
		if !ok {
			return nil, eris.Wrapf(ErrBadValue, "%T for pointer", v)
		}
		putUint(buf, u)
	case types.KindOpaque:
		b, ok := v.([]byte)
		if !ok || len(b) > dt.Width {
			return nil, eris.Wrapf(ErrBadValue, "opaque payload must be []byte of at most %d bytes", dt.Width)
		}
		copy(buf, b)
	default:
		return nil, eris.Wrap(ErrBadValue, "unknown type kind")
	}
	return buf, nil
}

func putUint(buf []byte, v uint64) {
	switch len(buf) {
	case 1:
		buf[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	default:
		binary.LittleEndian.PutUint64(buf, v)
	}
}

func asUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
