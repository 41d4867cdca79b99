// Package object is the checked, ergonomic surface over the raw engine. A
// View resolves through the entity's handle on every access, so it stays
// valid across commits and reorders; reads and writes are validated against
// the component's definition and configured checks, and failures come back
// as descriptive errors instead of corrupted data or crashes. It adds no
// storage logic of its own: every mutation goes through the same columns
// the raw surface uses.
package object

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/axonlabs/simdb"
	"github.com/axonlabs/simdb/schema"
	"github.com/axonlabs/simdb/store"
	"github.com/axonlabs/simdb/types"
)

var (
	ErrCheckFailed = eris.New("value fails the component's configured checks")
	ErrWrongKind   = eris.New("operation does not match the component's storage kind")
)

// View is a checked accessor for one entity.
type View struct {
	db     *simdb.Database
	handle simdb.Handle
	arch   *schema.Archetype
}

// Wrap builds a view over the entity a pointer currently refers to.
func Wrap(db *simdb.Database, p types.Pointer) (*View, error) {
	arch, err := db.Registry().Archetype(p.Archetype)
	if err != nil {
		return nil, err
	}
	return &View{db: db, handle: db.MakeHandle(p), arch: arch}, nil
}

// Handle returns the underlying durable handle.
func (v *View) Handle() simdb.Handle {
	return v.handle
}

// Destroy marks the entity for destruction at the next commit.
func (v *View) Destroy() error {
	return v.handle.Destroy()
}

// Get reads the named component's value for this entity: float64 for float
// components, uint64 for unsigned, int64 for signed, types.Pointer for
// pointer components, and []byte for opaque payloads.
func (v *View) Get(name string) (any, error) {
	comp, p, err := v.resolve(name)
	if err != nil {
		return nil, err
	}
	switch comp.Kind {
	case types.GlobalConstant:
		return v.getGlobal(comp)
	case types.SparseMatrix:
		return v.db.SparseRow(p, comp.ID), nil
	}
	switch comp.Type.Kind {
	case types.KindFloat:
		return v.db.Float64(p, comp.ID), nil
	case types.KindUint:
		return v.db.Uint(p, comp.ID), nil
	case types.KindInt:
		return v.db.Int(p, comp.ID), nil
	case types.KindPointer:
		return v.db.Ptr(p, comp.ID), nil
	case types.KindOpaque:
		return append([]byte(nil), v.db.Bytes(p, comp.ID)...), nil
	}
	return nil, eris.Wrapf(ErrWrongKind, "component %q", name)
}

// Set writes the named component's value for this entity, after running the
// component's configured checks against the new value. A value that would
// be flagged by the validation engine is rejected before it reaches
// storage.
func (v *View) Set(name string, value any) error {
	comp, p, err := v.resolve(name)
	if err != nil {
		return err
	}
	if comp.Kind == types.SparseMatrix {
		entries, ok := value.([]store.Entry)
		if !ok {
			return eris.Wrapf(simdb.ErrBadValue, "component %q expects []store.Entry", name)
		}
		if err := v.checkEntries(comp, entries); err != nil {
			return err
		}
		v.db.SetSparseRow(p, comp.ID, entries)
		return nil
	}
	if err := v.checkValue(comp, value); err != nil {
		return err
	}
	if comp.Kind == types.GlobalConstant {
		return v.setGlobal(comp, value)
	}
	switch comp.Type.Kind {
	case types.KindPointer:
		target, ok := value.(types.Pointer)
		if !ok {
			return eris.Wrapf(simdb.ErrBadValue, "component %q expects a pointer", name)
		}
		v.db.SetPtr(p, comp.ID, target)
		return nil
	case types.KindOpaque:
		b, ok := value.([]byte)
		if !ok || len(b) > comp.Type.Width {
			return eris.Wrapf(simdb.ErrBadValue, "component %q expects at most %d bytes", name, comp.Type.Width)
		}
		cell := v.db.Bytes(p, comp.ID)
		copy(cell, b)
		for i := len(b); i < len(cell); i++ {
			cell[i] = 0
		}
		return nil
	}
	bz, err := encode(comp, value)
	if err != nil {
		return eris.Wrapf(err, "component %q", name)
	}
	v.db.SetBytes(p, comp.ID, bz)
	return nil
}

func (v *View) resolve(name string) (*schema.Component, types.Pointer, error) {
	comp, err := v.arch.Component(name)
	if err != nil {
		return nil, types.Pointer{}, err
	}
	p, err := v.handle.Resolve()
	if err != nil {
		return nil, types.Pointer{}, err
	}
	return comp, p, nil
}

func (v *View) getGlobal(comp *schema.Component) (any, error) {
	switch comp.Type.Kind {
	case types.KindFloat:
		return v.db.GlobalFloat64(comp.ID), nil
	case types.KindUint:
		return v.db.GlobalUint(comp.ID), nil
	case types.KindInt:
		return v.db.GlobalInt(comp.ID), nil
	}
	return nil, eris.Wrapf(ErrWrongKind, "component %q", comp.Name)
}

func (v *View) setGlobal(comp *schema.Component, value any) error {
	switch comp.Type.Kind {
	case types.KindFloat:
		f, ok := asFloat(value)
		if !ok {
			return eris.Wrapf(simdb.ErrBadValue, "component %q expects a float", comp.Name)
		}
		v.db.SetGlobalFloat64(comp.ID, f)
		return nil
	default:
		bz, err := encode(comp, value)
		if err != nil {
			return eris.Wrapf(err, "component %q", comp.Name)
		}
		v.db.SetGlobalBytes(comp.ID, bz)
		return nil
	}
}

// checkValue applies the component's configured checks to a candidate
// value, mirroring what the validation engine would later report.
func (v *View) checkValue(comp *schema.Component, value any) error {
	if !comp.Checks.Enabled() {
		return nil
	}
	if comp.Type.Kind == types.KindFloat {
		f, ok := asFloat(value)
		if !ok {
			return nil
		}
		if comp.Checks.NaN && math.IsNaN(f) {
			return eris.Wrapf(ErrCheckFailed, "component %q rejects NaN", comp.Name)
		}
		if b := comp.Checks.Bounds; b != nil && (f < b.Min || f > b.Max) {
			return eris.Wrapf(ErrCheckFailed, "component %q bounds [%g, %g], got %g", comp.Name, b.Min, b.Max, f)
		}
	}
	if comp.Type.Kind == types.KindPointer && comp.Checks.Null {
		if target, ok := value.(types.Pointer); ok && target.IsNull() {
			return eris.Wrapf(ErrCheckFailed, "component %q rejects NULL", comp.Name)
		}
	}
	return nil
}

// checkEntries applies the configured checks to every entry of a candidate
// sparse row.
func (v *View) checkEntries(comp *schema.Component, entries []store.Entry) error {
	if !comp.Checks.Enabled() {
		return nil
	}
	for _, e := range entries {
		if comp.Checks.Null && e.Target == store.NullTarget {
			return eris.Wrapf(ErrCheckFailed, "component %q rejects NULL targets", comp.Name)
		}
		if comp.Checks.NaN && math.IsNaN(e.Value) {
			return eris.Wrapf(ErrCheckFailed, "component %q rejects NaN weights", comp.Name)
		}
		if b := comp.Checks.Bounds; b != nil && (e.Value < b.Min || e.Value > b.Max) {
			return eris.Wrapf(ErrCheckFailed, "component %q bounds [%g, %g], got %g", comp.Name, b.Min, b.Max, e.Value)
		}
	}
	return nil
}

func encode(comp *schema.Component, value any) ([]byte, error) {
	return store.EncodeValue(comp.Type, value)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
