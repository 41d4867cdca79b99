// Package store implements the physical storage layer: contiguous columns,
// global constants, compressed-row sparse matrices, the per-archetype table
// binding rows to storage, the pointer index that keeps stable identities
// mapped to current rows, and the compaction and reorder engines that move
// rows while rewriting every outstanding pointer exactly once.
package store

import (
	"encoding/binary"
	"math"
)

// Column is a contiguous array of fixed-width elements backing one attribute
// component of one archetype. Access is unchecked by contract: callers are
// trusted to pass rows inside [0, Len()).
type Column struct {
	elem int
	def  []byte // element appended for new rows; nil means zeroed
	data []byte
}

func NewColumn(elem, capacity int, def []byte) *Column {
	return &Column{
		elem: elem,
		def:  def,
		data: make([]byte, 0, elem*capacity),
	}
}

// Elem returns the element width in bytes.
func (c *Column) Elem() int {
	return c.elem
}

// Len returns the number of elements.
func (c *Column) Len() int {
	return len(c.data) / c.elem
}

// Append adds one element holding the column's default. Pointer columns
// default to NULL so that a fresh row never aliases row 0 of the target.
func (c *Column) Append() {
	if c.def == nil {
		c.data = append(c.data, make([]byte, c.elem)...)
		return
	}
	c.data = append(c.data, c.def...)
}

// AppendN adds n default elements.
func (c *Column) AppendN(n int) {
	for i := 0; i < n; i++ {
		c.Append()
	}
}

// Bytes returns a mutable view of the element at the given row.
func (c *Column) Bytes(row uint32) []byte {
	off := int(row) * c.elem
	return c.data[off : off+c.elem]
}

// SetBytes overwrites the element at the given row.
func (c *Column) SetBytes(row uint32, value []byte) {
	copy(c.Bytes(row), value)
}

// Uint reads the element at the given row as an unsigned integer. Pointer
// elements are read the same way; the NULL sentinel comes back as the
// maximum value of the element width.
func (c *Column) Uint(row uint32) uint64 {
	b := c.Bytes(row)
	switch c.elem {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

// SetUint writes the element at the given row as an unsigned integer,
// truncated to the element width.
func (c *Column) SetUint(row uint32, v uint64) {
	b := c.Bytes(row)
	switch c.elem {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

// Int reads the element at the given row as a signed integer,
// sign-extending from the element width.
func (c *Column) Int(row uint32) int64 {
	v := c.Uint(row)
	shift := uint(64 - c.elem*8)
	return int64(v<<shift) >> shift
}

// SetInt writes the element at the given row as a signed integer.
func (c *Column) SetInt(row uint32, v int64) {
	c.SetUint(row, uint64(v))
}

// Float64 reads the element at the given row as a float. 4-byte elements
// are stored as float32 bits.
func (c *Column) Float64(row uint32) float64 {
	if c.elem == 4 {
		return float64(math.Float32frombits(uint32(c.Uint(row))))
	}
	return math.Float64frombits(c.Uint(row))
}

// SetFloat64 writes the element at the given row as a float.
func (c *Column) SetFloat64(row uint32, v float64) {
	if c.elem == 4 {
		c.SetUint(row, uint64(math.Float32bits(float32(v))))
		return
	}
	c.SetUint(row, math.Float64bits(v))
}

// Move copies the element at src over the element at dst. Used by the
// compactor's stable shift.
func (c *Column) Move(dst, src uint32) {
	copy(c.Bytes(dst), c.Bytes(src))
}

// Truncate drops all elements at row n and beyond.
func (c *Column) Truncate(n int) {
	c.data = c.data[:n*c.elem]
}

// Permute rearranges the column so that new row i holds the element that
// was at order[i]. order must be a permutation of [0, Len()).
func (c *Column) Permute(order []uint32) {
	next := make([]byte, len(c.data))
	for i, src := range order {
		copy(next[i*c.elem:(i+1)*c.elem], c.Bytes(src))
	}
	c.data = next
}
