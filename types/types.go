package types

import "math"

// ArchetypeID identifies one registered archetype.
type ArchetypeID int

// ComponentID identifies one registered component. Component IDs are unique
// across the whole database, not per archetype.
type ComponentID int

// EntityID is the stable identity of an entity. It never changes for the
// lifetime of the entity, even as the entity's row moves under compaction
// and reorder.
type EntityID uint64

// Location is the current physical position of an entity: which archetype
// table it lives in and which row it currently occupies.
type Location struct {
	Archetype ArchetypeID
	Row       uint32
}

// Pointer is a transient reference to an entity. The row is only guaranteed
// to be valid until the next Commit or Reorder call on the archetype; after
// that the pointer must be treated as unspecified. Durable references are
// provided by handles, which resolve to a fresh Pointer on every access.
type Pointer struct {
	Archetype ArchetypeID
	Row       uint32
}

// Loc converts a pointer to a location.
func (p Pointer) Loc() Location {
	return Location{Archetype: p.Archetype, Row: p.Row}
}

// NullPointer returns the null reference into the given archetype.
func NullPointer(arch ArchetypeID) Pointer {
	return Pointer{Archetype: arch, Row: uint32(Null32)}
}

// IsNull reports whether the pointer is the null reference.
func (p Pointer) IsNull() bool {
	return p.Row == uint32(Null32)
}

// Null sentinels per stored pointer width. The sentinel is the maximum value
// representable at that width so that row 0 stays a valid reference.
const (
	Null16 uint64 = math.MaxUint16
	Null32 uint64 = math.MaxUint32
	Null64 uint64 = math.MaxUint64
)

// NullFor returns the NULL sentinel for a stored pointer of the given width
// in bytes.
func NullFor(width int) uint64 {
	switch width {
	case 2:
		return Null16
	case 4:
		return Null32
	default:
		return Null64
	}
}
