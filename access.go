package simdb

import (
	"bytes"

	"github.com/rotisserie/eris"

	"github.com/axonlabs/simdb/codec"
	"github.com/axonlabs/simdb/store"
	"github.com/axonlabs/simdb/types"
)

// Raw component access. Nothing on this surface checks row validity,
// component membership, or value ranges; the caller is trusted, and the
// cost is a map lookup plus an array index. Use the object package for the
// checked surface.

// Float64 reads a float attribute.
func (d *Database) Float64(p types.Pointer, comp types.ComponentID) float64 {
	return d.tables[p.Archetype].Column(comp).Float64(p.Row)
}

// SetFloat64 writes a float attribute.
func (d *Database) SetFloat64(p types.Pointer, comp types.ComponentID, v float64) {
	d.tables[p.Archetype].Column(comp).SetFloat64(p.Row, v)
}

// Uint reads an unsigned integer attribute.
func (d *Database) Uint(p types.Pointer, comp types.ComponentID) uint64 {
	return d.tables[p.Archetype].Column(comp).Uint(p.Row)
}

// SetUint writes an unsigned integer attribute.
func (d *Database) SetUint(p types.Pointer, comp types.ComponentID, v uint64) {
	d.tables[p.Archetype].Column(comp).SetUint(p.Row, v)
}

// Int reads a signed integer attribute.
func (d *Database) Int(p types.Pointer, comp types.ComponentID) int64 {
	return d.tables[p.Archetype].Column(comp).Int(p.Row)
}

// SetInt writes a signed integer attribute.
func (d *Database) SetInt(p types.Pointer, comp types.ComponentID, v int64) {
	d.tables[p.Archetype].Column(comp).SetInt(p.Row, v)
}

// Bytes returns a mutable view of an opaque attribute's payload.
func (d *Database) Bytes(p types.Pointer, comp types.ComponentID) []byte {
	return d.tables[p.Archetype].Column(comp).Bytes(p.Row)
}

// SetBytes overwrites an opaque attribute's payload.
func (d *Database) SetBytes(p types.Pointer, comp types.ComponentID, v []byte) {
	d.tables[p.Archetype].Column(comp).SetBytes(p.Row, v)
}

// Ptr reads a pointer attribute as a Pointer into the component's target
// archetype. A stored NULL comes back with IsNull() true.
func (d *Database) Ptr(p types.Pointer, comp types.ComponentID) types.Pointer {
	def := d.component(comp)
	v := d.tables[p.Archetype].Column(comp).Uint(p.Row)
	if v == def.Type.Null() {
		return types.NullPointer(def.Target())
	}
	return types.Pointer{Archetype: def.Target(), Row: uint32(v)}
}

// SetPtr writes a pointer attribute. Passing a null pointer stores the
// component's NULL sentinel.
func (d *Database) SetPtr(p types.Pointer, comp types.ComponentID, target types.Pointer) {
	def := d.component(comp)
	col := d.tables[p.Archetype].Column(comp)
	if target.IsNull() {
		col.SetUint(p.Row, def.Type.Null())
		return
	}
	col.SetUint(p.Row, uint64(target.Row))
}

// SetJSON marshals v through the JSON codec into an opaque attribute's
// fixed payload, zero-padded. Fails when the encoding exceeds the payload
// size.
func (d *Database) SetJSON(p types.Pointer, comp types.ComponentID, v any) error {
	bz, err := codec.Encode(v)
	if err != nil {
		return err
	}
	cell := d.Bytes(p, comp)
	if len(bz) > len(cell) {
		return eris.Wrapf(ErrBadValue, "encoded payload is %d bytes, component holds %d", len(bz), len(cell))
	}
	copy(cell, bz)
	for i := len(bz); i < len(cell); i++ {
		cell[i] = 0
	}
	return nil
}

// JSON unmarshals an opaque attribute's payload into out.
func (d *Database) JSON(p types.Pointer, comp types.ComponentID, out any) error {
	bz := bytes.TrimRight(d.Bytes(p, comp), "\x00")
	return codec.DecodeInto(bz, out)
}

// GlobalFloat64 reads a float global constant.
func (d *Database) GlobalFloat64(comp types.ComponentID) float64 {
	return d.globalOf(comp).Float64()
}

// SetGlobalFloat64 writes a float global constant.
func (d *Database) SetGlobalFloat64(comp types.ComponentID, v float64) {
	d.globalOf(comp).SetFloat64(v)
}

// GlobalUint reads an unsigned integer global constant.
func (d *Database) GlobalUint(comp types.ComponentID) uint64 {
	return d.globalOf(comp).Uint()
}

// SetGlobalUint writes an unsigned integer global constant.
func (d *Database) SetGlobalUint(comp types.ComponentID, v uint64) {
	d.globalOf(comp).SetUint(v)
}

// GlobalInt reads a signed integer global constant.
func (d *Database) GlobalInt(comp types.ComponentID) int64 {
	return d.globalOf(comp).Int()
}

// SetGlobalInt writes a signed integer global constant.
func (d *Database) SetGlobalInt(comp types.ComponentID, v int64) {
	d.globalOf(comp).SetInt(v)
}

// GlobalBytes returns a mutable view of a global constant's element.
func (d *Database) GlobalBytes(comp types.ComponentID) []byte {
	return d.globalOf(comp).Bytes()
}

// SetGlobalBytes overwrites a global constant's element.
func (d *Database) SetGlobalBytes(comp types.ComponentID, v []byte) {
	d.globalOf(comp).SetBytes(v)
}

func (d *Database) globalOf(comp types.ComponentID) *store.GlobalConstant {
	def := d.component(comp)
	return d.tables[def.Archetype].Global(comp)
}

// SparseRow materializes the entity's sparse matrix row as (target, weight)
// entries. Targets are row indices into the component's target archetype.
func (d *Database) SparseRow(p types.Pointer, comp types.ComponentID) []store.Entry {
	return d.tables[p.Archetype].Sparse(comp).Row(p.Row)
}

// SetSparseRow replaces the entity's sparse matrix row. Linear in the
// column's total entry count; bulk loads should use RebuildSparse.
func (d *Database) SetSparseRow(p types.Pointer, comp types.ComponentID, entries []store.Entry) {
	d.tables[p.Archetype].Sparse(comp).SetRow(p.Row, entries)
}

// RebuildSparse replaces the whole sparse matrix column. rows must hold one
// entry list per current row of the owning archetype.
func (d *Database) RebuildSparse(comp types.ComponentID, rows [][]store.Entry) error {
	def := d.component(comp)
	t := d.tables[def.Archetype]
	if len(rows) != t.Count() {
		return eris.Wrapf(ErrMalformedSparseInput, "%d rows for a table of %d", len(rows), t.Count())
	}
	t.Sparse(comp).Rebuild(rows)
	return nil
}

// RebuildSparseCSR replaces the whole sparse matrix column from raw
// compressed-row arrays, validating the CSR invariants.
func (d *Database) RebuildSparseCSR(
	comp types.ComponentID, offsets []int, targets []uint32, values []float64,
) error {
	def := d.component(comp)
	t := d.tables[def.Archetype]
	if len(offsets) != t.Count()+1 {
		return eris.Wrapf(ErrMalformedSparseInput, "%d offsets for a table of %d", len(offsets), t.Count())
	}
	return t.Sparse(comp).RebuildCSR(offsets, targets, values)
}
