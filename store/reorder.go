package store

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/axonlabs/simdb/types"
)

// KeyFunc returns the sort key for the entity currently at the given row.
type KeyFunc func(row uint32) float64

// Reorder permutes a table's rows so that they are sorted ascending by key,
// then reuses the commit machinery's pointer rewrite: the pointer index and
// every stored pointer targeting the table are updated to the new rows.
// Identities, counts, and nullability are unaffected; iteration locality is
// the only observable change. Like a commit, a reorder invalidates raw
// pointers into the table.
func (c *Compactor) Reorder(arch types.ArchetypeID, key KeyFunc) error {
	t, ok := c.tables[arch]
	if !ok {
		return eris.Wrapf(ErrUnknownTable, "archetype %d", arch)
	}
	n := t.Count()
	if n < 2 {
		return nil
	}

	keys := make([]float64, n)
	for row := uint32(0); int(row) < n; row++ {
		keys[row] = key(row)
	}
	// order[i] is the old row that moves to new row i.
	order := make([]uint32, n)
	for i := range order {
		order[i] = uint32(i)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return keys[order[i]] < keys[order[j]]
	})
	// remap[old] is the new index of old row.
	remap := make([]uint32, n)
	for i, src := range order {
		remap[src] = uint32(i)
	}

	t.permute(order, remap)
	for row := uint32(0); int(row) < n; row++ {
		c.index.Move(t.EntityAt(row), types.Location{Archetype: arch, Row: row})
	}
	c.remapPointersInto(arch, remap, order)
	t.bumpGeneration()
	return nil
}

// remapPointersInto rewrites every stored pointer targeting the given
// archetype with the permutation remap. Sparse columns owned by the
// archetype are rebuilt in the new row order first, since their row
// structure moved with the permutation.
func (c *Compactor) remapPointersInto(arch types.ArchetypeID, remap, order []uint32) {
	for _, comp := range c.registry.Components() {
		owner := c.tables[comp.Archetype]
		switch {
		case comp.Kind == types.SparseMatrix:
			sm := owner.Sparse(comp.ID)
			if comp.Archetype == arch {
				rows := make([][]Entry, len(order))
				for i, src := range order {
					rows[i] = sm.Row(src)
				}
				sm.Rebuild(rows)
			}
			if comp.Target() == arch {
				sm.RemapTargets(func(tgt uint32) uint32 {
					return remap[tgt]
				})
			}
		case comp.Kind == types.Attribute && comp.Type.Kind == types.KindPointer && comp.Target() == arch:
			col := owner.Column(comp.ID)
			null := comp.Type.Null()
			for row := uint32(0); int(row) < owner.Count(); row++ {
				v := col.Uint(row)
				if v != null {
					col.SetUint(row, uint64(remap[v]))
				}
			}
		}
	}
}

var ErrUnknownTable = eris.New("no table for archetype")
