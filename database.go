package simdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/axonlabs/simdb/check"
	"github.com/axonlabs/simdb/log"
	"github.com/axonlabs/simdb/schema"
	"github.com/axonlabs/simdb/store"
	"github.com/axonlabs/simdb/types"
)

// Database is the storage engine: the schema registry, one table per
// archetype, the pointer index, and the compaction, reorder and validation
// engines, behind one facade.
//
// The methods split into two surfaces. The schema and lifecycle methods
// (Define*, Create, Commit, Reorder, MakeHandle, RunChecks) validate their
// inputs and return errors. The raw accessors (Float64, SetUint, Ptr, ...)
// are the trusted hot path: they perform no bounds, existence, or type
// checking, exactly like indexing a bare array.
type Database struct {
	id       uuid.UUID
	registry *schema.Registry
	tables   map[types.ArchetypeID]*store.Table
	index    *store.PointerIndex
	mover    *store.Compactor
	checker  *check.Engine

	zlog            zerolog.Logger
	logger          *log.Logger
	initialCapacity int
}

// NewDatabase creates an empty database.
func NewDatabase(opts ...Option) *Database {
	d := &Database{
		id:              uuid.New(),
		registry:        schema.NewRegistry(),
		tables:          map[types.ArchetypeID]*store.Table{},
		index:           store.NewPointerIndex(),
		zlog:            zlog.Logger,
		initialCapacity: 256,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = log.New(&d.zlog)
	d.mover = store.NewCompactor(d.registry, d.tables, d.index)
	d.checker = check.NewEngine(d.registry, d.tables)
	d.zlog.Debug().Str("instance_id", d.id.String()).Msg("database created")
	return d
}

// ID returns the database instance identifier.
func (d *Database) ID() uuid.UUID {
	return d.id
}

// DefineArchetype registers a new archetype and allocates its empty table.
func (d *Database) DefineArchetype(name string) (types.ArchetypeID, error) {
	id, err := d.registry.DefineArchetype(name)
	if err != nil {
		return 0, err
	}
	d.tables[id] = store.NewTable(id, d.registry.MaxRowsFor(id), d.initialCapacity)
	d.logger.Archetype(zerolog.DebugLevel, id, name)
	return id, nil
}

// DefineComponent registers a new component on an archetype and allocates
// its backing storage, sized to the archetype's current row count. Adding a
// component to a populated archetype requires WithDefault; the default is
// written to every existing row. All schema validation happens here, at
// definition time; Commit never fails on schema grounds.
func (d *Database) DefineComponent(
	archID types.ArchetypeID, name string, dt types.DataType, kind types.StorageKind,
	opts ...ComponentOption,
) (types.ComponentID, error) {
	var cfg componentConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	t, ok := d.tables[archID]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownArchetype, "id %d", archID)
	}
	if dt.Kind == types.KindPointer {
		if target, ok := d.tables[dt.Target]; ok && target.Count() > dt.MaxRows() {
			return 0, eris.Wrapf(ErrPointerWidthTooNarrow, "component %q", name)
		}
	}

	var def []byte
	if kind != types.SparseMatrix {
		switch {
		case cfg.hasDefault:
			var err error
			def, err = store.EncodeValue(dt, cfg.def)
			if err != nil {
				return 0, err
			}
		case dt.Kind == types.KindPointer:
			def, _ = store.EncodeValue(dt, nil) // NULL
		case kind == types.Attribute && t.Count() > 0:
			return 0, eris.Wrapf(ErrMissingDefault, "component %q", name)
		}
	}

	comp, err := d.registry.DefineComponent(archID, name, dt, kind, cfg.opts)
	if err != nil {
		return 0, err
	}

	switch kind {
	case types.Attribute:
		t.AddColumn(comp.ID, dt.Width, def)
	case types.GlobalConstant:
		t.AddGlobal(comp.ID, dt.Width, def)
	case types.SparseMatrix:
		t.AddSparse(comp.ID)
	}
	if comp.IsPointer() {
		d.tables[comp.Target()].SetMaxRows(comp.Type.MaxRows())
	}
	d.logger.Component(zerolog.DebugLevel, comp.ID, archID, name, kind, dt)
	return comp.ID, nil
}

// Create appends a new entity at row Count() of the archetype and returns a
// pointer to it. The pointer stays valid until the caller's next Commit or
// Reorder. No reordering is triggered by creation.
func (d *Database) Create(archID types.ArchetypeID) (types.Pointer, error) {
	t, ok := d.tables[archID]
	if !ok {
		return types.Pointer{}, eris.Wrapf(ErrUnknownArchetype, "id %d", archID)
	}
	id := d.index.Allocate(types.Location{Archetype: archID, Row: uint32(t.Count())})
	row, err := t.Append(id)
	if err != nil {
		d.index.Remove(id)
		return types.Pointer{}, err
	}
	return types.Pointer{Archetype: archID, Row: row}, nil
}

// CreateMany appends n entities and returns their pointers.
func (d *Database) CreateMany(archID types.ArchetypeID, n int) ([]types.Pointer, error) {
	ptrs := make([]types.Pointer, n)
	for i := range ptrs {
		p, err := d.Create(archID)
		if err != nil {
			return nil, err
		}
		ptrs[i] = p
	}
	return ptrs, nil
}

// MarkDestroy flags the entity for destruction at the next Commit. The
// entity stays physically present and resolvable until then, but is
// excluded from Each iteration. Marking is idempotent.
func (d *Database) MarkDestroy(p types.Pointer) {
	d.tables[p.Archetype].Mark(p.Row)
}

// Commit executes the batched destruction: cascade closure over
// non-nullable pointers, stable-shift compaction of every affected table,
// and the exactly-once rewrite of all stored pointers and indexed
// identities. All raw pointers into affected archetypes are invalidated.
func (d *Database) Commit() store.Stats {
	start := time.Now()
	stats := d.mover.Commit()
	d.logger.Commit(zerolog.DebugLevel, stats.Destroyed, stats.Moved, stats.Archetypes, time.Since(start))
	return stats
}

// Reorder sorts the archetype's rows ascending by key to improve iteration
// locality, rewriting all pointers and handles into the archetype. Entity
// identities and counts are unchanged. Raw pointers into the archetype are
// invalidated.
func (d *Database) Reorder(archID types.ArchetypeID, key func(types.Pointer) float64) error {
	start := time.Now()
	err := d.mover.Reorder(archID, func(row uint32) float64 {
		return key(types.Pointer{Archetype: archID, Row: row})
	})
	if err != nil {
		return err
	}
	d.logger.Reorder(zerolog.DebugLevel, archID, d.tables[archID].Count(), time.Since(start))
	return nil
}

// Count returns the number of physically present rows of the archetype,
// including rows marked but not yet committed.
func (d *Database) Count(archID types.ArchetypeID) int {
	return d.tables[archID].Count()
}

// Generation returns the archetype's generation, which increments on every
// Commit and Reorder that moves its rows. Callers holding raw pointers can
// compare generations to detect staleness.
func (d *Database) Generation(archID types.ArchetypeID) uint64 {
	return d.tables[archID].Generation()
}

// Each calls fn for every live entity of the archetype, skipping rows
// marked for destruction.
func (d *Database) Each(archID types.ArchetypeID, fn func(types.Pointer)) {
	d.tables[archID].Each(func(row uint32) {
		fn(types.Pointer{Archetype: archID, Row: row})
	})
}

// RunChecks runs every configured validation check across the database.
func (d *Database) RunChecks() *check.Report {
	return d.checker.CheckAll()
}

// RunComponentChecks runs the configured checks of a single component.
func (d *Database) RunComponentChecks(comp types.ComponentID) (*check.Report, error) {
	return d.checker.Check(comp)
}

// Registry exposes the schema definitions.
func (d *Database) Registry() *schema.Registry {
	return d.registry
}

func (d *Database) component(comp types.ComponentID) *schema.Component {
	return d.registry.Components()[comp]
}
