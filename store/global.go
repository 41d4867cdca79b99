package store

import (
	"encoding/binary"
	"math"
)

// GlobalConstant holds a single element shared by every row of an
// archetype. It occupies constant space regardless of entity count and is
// untouched by compaction and reorder.
type GlobalConstant struct {
	elem int
	data []byte
}

func NewGlobalConstant(elem int) *GlobalConstant {
	return &GlobalConstant{elem: elem, data: make([]byte, elem)}
}

func (g *GlobalConstant) Elem() int {
	return g.elem
}

func (g *GlobalConstant) Bytes() []byte {
	return g.data
}

func (g *GlobalConstant) SetBytes(value []byte) {
	copy(g.data, value)
}

func (g *GlobalConstant) Uint() uint64 {
	switch g.elem {
	case 1:
		return uint64(g.data[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(g.data))
	case 4:
		return uint64(binary.LittleEndian.Uint32(g.data))
	default:
		return binary.LittleEndian.Uint64(g.data)
	}
}

func (g *GlobalConstant) SetUint(v uint64) {
	switch g.elem {
	case 1:
		g.data[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(g.data, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(g.data, uint32(v))
	default:
		binary.LittleEndian.PutUint64(g.data, v)
	}
}

func (g *GlobalConstant) Int() int64 {
	v := g.Uint()
	shift := uint(64 - g.elem*8)
	return int64(v<<shift) >> shift
}

func (g *GlobalConstant) SetInt(v int64) {
	g.SetUint(uint64(v))
}

func (g *GlobalConstant) Float64() float64 {
	if g.elem == 4 {
		return float64(math.Float32frombits(uint32(g.Uint())))
	}
	return math.Float64frombits(g.Uint())
}

func (g *GlobalConstant) SetFloat64(v float64) {
	if g.elem == 4 {
		g.SetUint(uint64(math.Float32bits(float32(v))))
		return
	}
	g.SetUint(math.Float64bits(v))
}
