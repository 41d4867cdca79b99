package store

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/axonlabs/simdb/schema"
	"github.com/axonlabs/simdb/types"
)

// removedRow marks a destroyed row in a compaction remap.
const removedRow = uint32(types.Null32)

// Stats summarizes one commit.
type Stats struct {
	// Destroyed is the number of rows removed, including cascades.
	Destroyed int
	// Moved is the number of surviving rows that changed index.
	Moved int
	// Archetypes is the number of tables that lost rows.
	Archetypes int
}

// Compactor executes the engine's two movement protocols: committing a
// batch of destruction marks, and reordering a table for locality. Both
// move rows physically and then rewrite every stored pointer and every
// indexed identity across the whole database exactly once, so the cost of a
// commit is linear in total rows plus total pointer slots regardless of how
// many entities it destroys.
type Compactor struct {
	registry *schema.Registry
	tables   map[types.ArchetypeID]*Table
	index    *PointerIndex
}

func NewCompactor(registry *schema.Registry, tables map[types.ArchetypeID]*Table, index *PointerIndex) *Compactor {
	return &Compactor{
		registry: registry,
		tables:   tables,
		index:    index,
	}
}

// Commit removes every row marked for destruction, plus the cascade closure
// of entities holding non-nullable pointers to removed rows, closes the
// holes with a stable shift, and rewrites all affected pointers. After a
// commit the marked rows are gone for good: their identities stop
// resolving, and handles bound to them fail from now on.
func (c *Compactor) Commit() Stats {
	dest := c.seedDestruction()
	if dest == nil {
		return Stats{}
	}
	c.expandCascade(dest)

	remaps, newCounts := c.buildRemaps(dest)
	c.rebuildSparse(dest, remaps)
	c.rewriteAttributePointers(dest, remaps)
	return c.moveRows(dest, remaps, newCounts)
}

// seedDestruction clones each table's mark set. Returns nil when nothing is
// marked anywhere.
func (c *Compactor) seedDestruction() map[types.ArchetypeID]*roaring.Bitmap {
	dest := make(map[types.ArchetypeID]*roaring.Bitmap, len(c.tables))
	any := false
	for arch, t := range c.tables {
		dest[arch] = t.Marked().Clone()
		any = any || !dest[arch].IsEmpty()
	}
	if !any {
		return nil
	}
	return dest
}

// expandCascade grows the destruction sets to their fixed point: whenever a
// non-nullable pointer held by a surviving entity references a row already
// in a destruction set, the owning entity joins the set. The expansion may
// cross archetypes in both directions and terminates because the sets only
// grow and the universe of rows is finite; diamond and cyclic reference
// patterns settle once every participant is in a set.
func (c *Compactor) expandCascade(dest map[types.ArchetypeID]*roaring.Bitmap) {
	for changed := true; changed; {
		changed = false
		for _, comp := range c.registry.Components() {
			if !comp.IsPointer() || comp.Nullable {
				continue
			}
			targetDest := dest[comp.Target()]
			if targetDest.IsEmpty() {
				continue
			}
			owner := c.tables[comp.Archetype]
			ownerDest := dest[comp.Archetype]
			switch comp.Kind {
			case types.Attribute:
				col := owner.Column(comp.ID)
				null := comp.Type.Null()
				for row := uint32(0); int(row) < owner.Count(); row++ {
					if ownerDest.Contains(row) {
						continue
					}
					v := col.Uint(row)
					if v != null && targetDest.Contains(uint32(v)) {
						ownerDest.Add(row)
						changed = true
					}
				}
			case types.SparseMatrix:
				sm := owner.Sparse(comp.ID)
				for row := uint32(0); int(row) < owner.Count(); row++ {
					if ownerDest.Contains(row) {
						continue
					}
					for _, tgt := range sm.RowTargets(row) {
						if tgt != NullTarget && targetDest.Contains(tgt) {
							ownerDest.Add(row)
							changed = true
							break
						}
					}
				}
			}
		}
	}
}

// buildRemaps computes, for every table losing rows, the stable-shift map
// from old row index to new row index (removedRow for destroyed rows).
func (c *Compactor) buildRemaps(
	dest map[types.ArchetypeID]*roaring.Bitmap,
) (map[types.ArchetypeID][]uint32, map[types.ArchetypeID]int) {
	remaps := make(map[types.ArchetypeID][]uint32, len(dest))
	newCounts := make(map[types.ArchetypeID]int, len(dest))
	for arch, d := range dest {
		if d.IsEmpty() {
			continue
		}
		t := c.tables[arch]
		remap := make([]uint32, t.Count())
		next := uint32(0)
		for row := uint32(0); int(row) < t.Count(); row++ {
			if d.Contains(row) {
				remap[row] = removedRow
				continue
			}
			remap[row] = next
			next++
		}
		remaps[arch] = remap
		newCounts[arch] = int(next)
	}
	return remaps, newCounts
}

// rebuildSparse rebuilds every sparse column whose owner rows or target
// rows are moving. Surviving rows keep their entries in order, with targets
// remapped; entries of nullable components whose target was destroyed are
// dropped (a compressed row cannot hold a hole). Non-nullable components
// never reach the drop case: the cascade closure already destroyed any
// owner that would need it.
func (c *Compactor) rebuildSparse(
	dest map[types.ArchetypeID]*roaring.Bitmap, remaps map[types.ArchetypeID][]uint32,
) {
	for _, comp := range c.registry.Components() {
		if comp.Kind != types.SparseMatrix {
			continue
		}
		ownerRemap := remaps[comp.Archetype]
		targetRemap := remaps[comp.Target()]
		if ownerRemap == nil && targetRemap == nil {
			continue
		}
		owner := c.tables[comp.Archetype]
		ownerDest := dest[comp.Archetype]
		sm := owner.Sparse(comp.ID)

		rows := make([][]Entry, 0, owner.Count())
		for row := uint32(0); int(row) < owner.Count(); row++ {
			if ownerDest.Contains(row) {
				continue
			}
			old := sm.Row(row)
			entries := old[:0]
			for _, e := range old {
				if e.Target != NullTarget && targetRemap != nil {
					nt := targetRemap[e.Target]
					if nt == removedRow {
						continue
					}
					e.Target = nt
				}
				entries = append(entries, e)
			}
			rows = append(rows, entries)
		}
		sm.Rebuild(rows)
	}
}

// rewriteAttributePointers rewrites every stored attribute pointer whose
// target table is losing rows. Surviving pointers get the target's new row;
// dangling nullable pointers become NULL. This runs before rows move, so it
// visits each owner's old row range and skips rows that are themselves
// being destroyed, touching every live pointer slot exactly once.
func (c *Compactor) rewriteAttributePointers(
	dest map[types.ArchetypeID]*roaring.Bitmap, remaps map[types.ArchetypeID][]uint32,
) {
	for _, comp := range c.registry.Components() {
		if comp.Kind != types.Attribute || comp.Type.Kind != types.KindPointer {
			continue
		}
		targetRemap := remaps[comp.Target()]
		if targetRemap == nil {
			continue
		}
		owner := c.tables[comp.Archetype]
		ownerDest := dest[comp.Archetype]
		col := owner.Column(comp.ID)
		null := comp.Type.Null()
		for row := uint32(0); int(row) < owner.Count(); row++ {
			if ownerDest.Contains(row) {
				continue
			}
			v := col.Uint(row)
			if v == null {
				continue
			}
			nv := targetRemap[v]
			if nv == removedRow {
				col.SetUint(row, null)
				continue
			}
			if uint64(nv) != v {
				col.SetUint(row, uint64(nv))
			}
		}
	}
}

// moveRows performs the physical stable shift on every affected table,
// updates the pointer index, clears the consumed marks, and bumps each
// affected table's generation.
func (c *Compactor) moveRows(
	dest map[types.ArchetypeID]*roaring.Bitmap,
	remaps map[types.ArchetypeID][]uint32,
	newCounts map[types.ArchetypeID]int,
) Stats {
	var stats Stats
	for arch, remap := range remaps {
		t := c.tables[arch]
		d := dest[arch]
		for row := uint32(0); int(row) < t.Count(); row++ {
			id := t.EntityAt(row)
			if d.Contains(row) {
				c.index.Remove(id)
				stats.Destroyed++
				continue
			}
			if remap[row] != row {
				c.index.Move(id, types.Location{Archetype: arch, Row: remap[row]})
				stats.Moved++
			}
		}
		t.compactScalars(remap, newCounts[arch])
		t.marked = roaring.New()
		t.bumpGeneration()
		stats.Archetypes++
	}
	return stats
}
