package store

import (
	"github.com/rotisserie/eris"

	"github.com/axonlabs/simdb/types"
)

var ErrInvalidHandle = eris.New("handle refers to a destroyed entity")

// PointerIndex assigns every entity a stable identity and tracks the row it
// currently occupies. It is the only source of identity stability in the
// engine: raw row indices are rewritten by every commit and reorder, and the
// index is updated in the same pass, so resolving through it is always safe.
type PointerIndex struct {
	nextID types.EntityID
	locs   map[types.EntityID]types.Location
}

func NewPointerIndex() *PointerIndex {
	return &PointerIndex{
		locs: make(map[types.EntityID]types.Location, 256),
	}
}

// Allocate assigns a fresh identity for an entity at the given location.
func (ix *PointerIndex) Allocate(loc types.Location) types.EntityID {
	id := ix.nextID
	ix.nextID++
	ix.locs[id] = loc
	return id
}

// Resolve returns the current location of the given identity. Resolving an
// identity whose entity has been removed fails with ErrInvalidHandle;
// identities are never reused, so this stays detectable forever.
func (ix *PointerIndex) Resolve(id types.EntityID) (types.Location, error) {
	loc, ok := ix.locs[id]
	if !ok {
		return types.Location{}, eris.Wrapf(ErrInvalidHandle, "entity %d", id)
	}
	return loc, nil
}

// Live reports whether the identity still maps to a row.
func (ix *PointerIndex) Live(id types.EntityID) bool {
	_, ok := ix.locs[id]
	return ok
}

// Move updates the row an identity maps to. Called once per moved entity
// during commit and reorder.
func (ix *PointerIndex) Move(id types.EntityID, loc types.Location) {
	ix.locs[id] = loc
}

// Remove drops an identity. Every handle bound to it becomes invalid.
func (ix *PointerIndex) Remove(id types.EntityID) {
	delete(ix.locs, id)
}

// Len returns the number of live identities.
func (ix *PointerIndex) Len() int {
	return len(ix.locs)
}
