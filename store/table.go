package store

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/rotisserie/eris"

	"github.com/axonlabs/simdb/types"
)

var (
	ErrTableFull = eris.New("archetype table is full")
)

// Table binds the rows [0, Count()) of one archetype to its physical
// storage: one Column per attribute component, one GlobalConstant per global
// component, one SparseMatrixColumn per sparse component, plus the stable
// identity of the entity occupying each row.
//
// Rows are contiguous and zero-based with no holes. A row index is not a
// stable identity; it changes when the compactor or the reorder pass move
// rows. Stable identity is provided by the pointer index.
type Table struct {
	arch    types.ArchetypeID
	maxRows int

	ids    []types.EntityID
	marked *roaring.Bitmap

	// generation increments on every commit and reorder that touches this
	// table. Raw pointers obtained before the increment must not be
	// dereferenced afterwards.
	generation uint64

	columns map[types.ComponentID]*Column
	globals map[types.ComponentID]*GlobalConstant
	sparse  map[types.ComponentID]*SparseMatrixColumn
}

func NewTable(arch types.ArchetypeID, maxRows, capacity int) *Table {
	return &Table{
		arch:    arch,
		maxRows: maxRows,
		ids:     make([]types.EntityID, 0, capacity),
		marked:  roaring.New(),
		columns: map[types.ComponentID]*Column{},
		globals: map[types.ComponentID]*GlobalConstant{},
		sparse:  map[types.ComponentID]*SparseMatrixColumn{},
	}
}

// Archetype returns the owning archetype.
func (t *Table) Archetype() types.ArchetypeID {
	return t.arch
}

// Count returns the number of physically present rows, including rows
// marked for destruction that have not yet been committed.
func (t *Table) Count() int {
	return len(t.ids)
}

// Generation returns the table's current generation.
func (t *Table) Generation() uint64 {
	return t.generation
}

// SetMaxRows lowers the table's row cap. Called when a component with a
// narrow pointer width starts targeting this table.
func (t *Table) SetMaxRows(n int) {
	if n < t.maxRows {
		t.maxRows = n
	}
}

// AddColumn allocates the attribute column for a component, backfilled to
// the current row count with the given default element. The default is also
// used for rows created later.
func (t *Table) AddColumn(comp types.ComponentID, elem int, def []byte) *Column {
	col := NewColumn(elem, cap(t.ids), def)
	col.AppendN(len(t.ids))
	t.columns[comp] = col
	return col
}

// AddGlobal allocates the global constant for a component.
func (t *Table) AddGlobal(comp types.ComponentID, elem int, def []byte) *GlobalConstant {
	g := NewGlobalConstant(elem)
	if def != nil {
		g.SetBytes(def)
	}
	t.globals[comp] = g
	return g
}

// AddSparse allocates the sparse matrix column for a component, with one
// empty row per existing entity.
func (t *Table) AddSparse(comp types.ComponentID) *SparseMatrixColumn {
	s := NewSparseMatrixColumn()
	for i := 0; i < len(t.ids); i++ {
		s.AppendRow(nil)
	}
	t.sparse[comp] = s
	return s
}

// Column returns the attribute column backing the given component, or nil
// if the component is not an attribute of this table. No further checking;
// this is the raw surface.
func (t *Table) Column(comp types.ComponentID) *Column {
	return t.columns[comp]
}

// Global returns the global constant backing the given component.
func (t *Table) Global(comp types.ComponentID) *GlobalConstant {
	return t.globals[comp]
}

// Sparse returns the sparse matrix column backing the given component.
func (t *Table) Sparse(comp types.ComponentID) *SparseMatrixColumn {
	return t.sparse[comp]
}

// Append creates a new row at index Count() for the given stable identity.
// Every attribute column grows by one default element, every sparse column
// by one empty row. Fails with ErrTableFull once the table reaches the row
// cap imposed by the narrowest pointer targeting it, which keeps every
// valid row index distinct from the NULL sentinel.
func (t *Table) Append(id types.EntityID) (uint32, error) {
	if len(t.ids) >= t.maxRows {
		return 0, eris.Wrapf(ErrTableFull, "archetype %d at %d rows", t.arch, len(t.ids))
	}
	row := uint32(len(t.ids))
	t.ids = append(t.ids, id)
	for _, col := range t.columns {
		col.Append()
	}
	for _, s := range t.sparse {
		s.AppendRow(nil)
	}
	return row, nil
}

// EntityAt returns the stable identity of the entity at the given row.
func (t *Table) EntityAt(row uint32) types.EntityID {
	return t.ids[row]
}

// Mark flags the row for destruction at the next commit. Marking is
// idempotent; re-marking a marked row is a no-op. The row stays physically
// present, and pointers into it keep resolving, until the commit.
func (t *Table) Mark(row uint32) {
	t.marked.Add(row)
}

// IsMarked reports whether the row is marked for destruction.
func (t *Table) IsMarked(row uint32) bool {
	return t.marked.Contains(row)
}

// Marked returns the set of rows currently marked for destruction.
func (t *Table) Marked() *roaring.Bitmap {
	return t.marked
}

// Each calls fn for every row that is live, skipping rows marked for
// destruction. This is the logical iteration order.
func (t *Table) Each(fn func(row uint32)) {
	for row := uint32(0); int(row) < len(t.ids); row++ {
		if t.marked.Contains(row) {
			continue
		}
		fn(row)
	}
}

// bumpGeneration invalidates all raw pointers into this table.
func (t *Table) bumpGeneration() {
	t.generation++
}

// compactScalars applies a compaction remap to the identity array and every
// attribute column with a stable shift, then truncates to the new count.
// remap[old] is the row's new index, or removedRow for destroyed rows.
func (t *Table) compactScalars(remap []uint32, newCount int) {
	for old, next := range remap {
		if next == removedRow || next == uint32(old) {
			continue
		}
		t.ids[next] = t.ids[old]
		for _, col := range t.columns {
			col.Move(next, uint32(old))
		}
	}
	t.ids = t.ids[:newCount]
	for _, col := range t.columns {
		col.Truncate(newCount)
	}
}

// permute rearranges the identity array and every attribute column so that
// new row i holds what was at order[i], and remaps the marked set.
func (t *Table) permute(order []uint32, remap []uint32) {
	ids := make([]types.EntityID, len(order))
	for i, src := range order {
		ids[i] = t.ids[src]
	}
	t.ids = ids
	for _, col := range t.columns {
		col.Permute(order)
	}
	if !t.marked.IsEmpty() {
		next := roaring.New()
		for _, old := range t.marked.ToArray() {
			next.Add(remap[old])
		}
		t.marked = next
	}
}
