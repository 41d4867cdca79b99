package simdb

import (
	"github.com/axonlabs/simdb/types"
)

// Handle is a durable reference to an entity. It is bound to the entity's
// stable identity and resolves to the current row through the pointer index
// on every access, so it survives any number of commits and reorders. Once
// the entity is removed, every operation on the handle fails with
// ErrInvalidHandle, forever.
type Handle struct {
	db *Database
	id types.EntityID
}

// MakeHandle binds a handle to the entity a pointer currently refers to.
// O(1); the pointer must be valid at the time of the call.
func (d *Database) MakeHandle(p types.Pointer) Handle {
	return Handle{db: d, id: d.tables[p.Archetype].EntityAt(p.Row)}
}

// ID returns the entity's stable identity.
func (h Handle) ID() types.EntityID {
	return h.id
}

// Resolve returns a fresh pointer to the entity's current row. The pointer
// is valid until the caller's next Commit or Reorder on the archetype.
func (h Handle) Resolve() (types.Pointer, error) {
	loc, err := h.db.index.Resolve(h.id)
	if err != nil {
		return types.Pointer{}, err
	}
	return types.Pointer{Archetype: loc.Archetype, Row: loc.Row}, nil
}

// Live reports whether the entity still exists. A marked entity is still
// live until the commit removes it.
func (h Handle) Live() bool {
	return h.db.index.Live(h.id)
}

// Destroy marks the underlying entity for destruction at the next commit.
// Other handles to the same entity are unaffected until then.
func (h Handle) Destroy() error {
	p, err := h.Resolve()
	if err != nil {
		return err
	}
	h.db.MarkDestroy(p)
	return nil
}
