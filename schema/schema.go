// Package schema owns archetype and component definitions: names, type
// descriptors, storage kinds, check configuration, and documentation
// strings. Definitions are append-only; a component's configuration is
// immutable once defined.
package schema

import (
	"github.com/rotisserie/eris"

	"github.com/axonlabs/simdb/types"
)

var (
	ErrDuplicateArchetype = eris.New("archetype with this name already defined")
	ErrDuplicateComponent = eris.New("component with this name already defined on archetype")
	ErrUnknownArchetype   = eris.New("archetype not found")
	ErrUnknownComponent   = eris.New("component not found")
	ErrBadTypeDescriptor  = eris.New("unsupported type descriptor")
	ErrBadCheckConfig     = eris.New("check configuration not applicable to component type")
)

// Component is the immutable definition of one component.
type Component struct {
	ID        types.ComponentID
	Archetype types.ArchetypeID
	Name      string
	Type      types.DataType
	Kind      types.StorageKind

	// Checks is the advisory validation configuration.
	Checks types.CheckConfig

	// Nullable applies to pointer-typed components. When false, destroying
	// the target of a stored pointer cascades to the pointer's owner at
	// commit time. When true, the stored pointer is rewritten to NULL
	// instead.
	Nullable bool

	Doc  string
	Unit string
}

// IsPointer reports whether the component stores row pointers, either as an
// attribute column or as sparse matrix targets.
func (c *Component) IsPointer() bool {
	return c.Type.Kind == types.KindPointer || c.Kind == types.SparseMatrix
}

// Target returns the archetype this component's pointers refer to. Only
// meaningful when IsPointer is true.
func (c *Component) Target() types.ArchetypeID {
	return c.Type.Target
}

// Archetype is the definition of one class of entity.
type Archetype struct {
	ID         types.ArchetypeID
	Name       string
	Components []*Component
}

// Component returns the archetype's component with the given name.
func (a *Archetype) Component(name string) (*Component, error) {
	for _, comp := range a.Components {
		if comp.Name == name {
			return comp, nil
		}
	}
	return nil, eris.Wrapf(ErrUnknownComponent, "%q on archetype %q", name, a.Name)
}

// Options carries the optional parts of a component definition.
type Options struct {
	Checks   types.CheckConfig
	Nullable bool
	Doc      string
	Unit     string
}

// Registry owns all archetype and component definitions.
type Registry struct {
	archetypes []*Archetype
	byName     map[string]types.ArchetypeID
	components []*Component
}

func NewRegistry() *Registry {
	return &Registry{
		archetypes: make([]*Archetype, 0, 16),
		byName:     map[string]types.ArchetypeID{},
		components: make([]*Component, 0, 64),
	}
}

// DefineArchetype registers a new archetype under the given name.
func (r *Registry) DefineArchetype(name string) (types.ArchetypeID, error) {
	if _, ok := r.byName[name]; ok {
		return 0, eris.Wrapf(ErrDuplicateArchetype, "%q", name)
	}
	id := types.ArchetypeID(len(r.archetypes))
	r.archetypes = append(r.archetypes, &Archetype{ID: id, Name: name})
	r.byName[name] = id
	return id, nil
}

// DefineComponent registers a new component on an existing archetype. The
// definition is validated here, at definition time: an unknown owning or
// target archetype, a descriptor outside the closed type set, or a check
// configuration that does not apply to the element type are all schema
// errors. Commit never re-validates the schema.
func (r *Registry) DefineComponent(
	archID types.ArchetypeID, name string, dt types.DataType, kind types.StorageKind, opts Options,
) (*Component, error) {
	arch, err := r.Archetype(archID)
	if err != nil {
		return nil, err
	}
	if _, err := arch.Component(name); err == nil {
		return nil, eris.Wrapf(ErrDuplicateComponent, "%q on archetype %q", name, arch.Name)
	}
	if !dt.Valid() {
		return nil, eris.Wrapf(ErrBadTypeDescriptor, "component %q", name)
	}
	if dt.Kind == types.KindPointer {
		if _, err := r.Archetype(dt.Target); err != nil {
			return nil, eris.Wrapf(err, "pointer component %q targets unknown archetype", name)
		}
	}
	if err := validateKind(dt, kind); err != nil {
		return nil, eris.Wrapf(err, "component %q", name)
	}
	if err := validateChecks(dt, kind, opts); err != nil {
		return nil, eris.Wrapf(err, "component %q", name)
	}

	comp := &Component{
		ID:        types.ComponentID(len(r.components)),
		Archetype: archID,
		Name:      name,
		Type:      dt,
		Kind:      kind,
		Checks:    opts.Checks,
		Nullable:  opts.Nullable,
		Doc:       opts.Doc,
		Unit:      opts.Unit,
	}
	r.components = append(r.components, comp)
	arch.Components = append(arch.Components, comp)
	return comp, nil
}

func validateKind(dt types.DataType, kind types.StorageKind) error {
	switch kind {
	case types.Attribute:
		return nil
	case types.GlobalConstant:
		// A shared pointer cell has no per-row owner to cascade to; the
		// commit protocol cannot give it a meaning.
		if dt.Kind == types.KindPointer {
			return eris.Wrap(ErrBadTypeDescriptor, "global constants cannot store pointers")
		}
		return nil
	case types.SparseMatrix:
		// Sparse rows are (target pointer, weight) pairs; the descriptor
		// declares the pointer part, weights are always float64.
		if dt.Kind != types.KindPointer {
			return eris.Wrap(ErrBadTypeDescriptor, "sparse matrix components must have a pointer descriptor")
		}
		if dt.Width != 4 {
			return eris.Wrap(ErrBadTypeDescriptor, "sparse matrix targets are 32-bit pointers")
		}
		return nil
	}
	return eris.Wrap(ErrBadTypeDescriptor, "unknown storage kind")
}

func validateChecks(dt types.DataType, kind types.StorageKind, opts Options) error {
	isFloat := dt.Kind == types.KindFloat || kind == types.SparseMatrix
	isPointer := dt.Kind == types.KindPointer
	if (opts.Checks.NaN || opts.Checks.Bounds != nil) && !isFloat {
		return eris.Wrap(ErrBadCheckConfig, "nan/bounds checks require a float element type")
	}
	if opts.Checks.Null && !isPointer {
		return eris.Wrap(ErrBadCheckConfig, "null check requires a pointer element type")
	}
	if opts.Nullable && !isPointer {
		return eris.Wrap(ErrBadCheckConfig, "nullable requires a pointer element type")
	}
	return nil
}

// Archetype returns the archetype with the given ID.
func (r *Registry) Archetype(id types.ArchetypeID) (*Archetype, error) {
	if id < 0 || int(id) >= len(r.archetypes) {
		return nil, eris.Wrapf(ErrUnknownArchetype, "id %d", id)
	}
	return r.archetypes[id], nil
}

// ArchetypeByName returns the archetype registered under the given name.
func (r *Registry) ArchetypeByName(name string) (*Archetype, error) {
	id, ok := r.byName[name]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownArchetype, "%q", name)
	}
	return r.archetypes[id], nil
}

// Component returns the component with the given ID.
func (r *Registry) Component(id types.ComponentID) (*Component, error) {
	if id < 0 || int(id) >= len(r.components) {
		return nil, eris.Wrapf(ErrUnknownComponent, "id %d", id)
	}
	return r.components[id], nil
}

// Archetypes returns all archetype definitions in definition order.
func (r *Registry) Archetypes() []*Archetype {
	return r.archetypes
}

// Components returns all component definitions in definition order.
func (r *Registry) Components() []*Component {
	return r.components
}

// MaxRowsFor returns the row cap for a table: one table may only grow as
// large as the narrowest pointer component targeting it can address without
// its NULL sentinel colliding with a valid row.
func (r *Registry) MaxRowsFor(archID types.ArchetypeID) int {
	maxRows := types.PointerTo64(archID).MaxRows()
	for _, comp := range r.components {
		if !comp.IsPointer() || comp.Target() != archID {
			continue
		}
		if n := comp.Type.MaxRows(); n < maxRows {
			maxRows = n
		}
	}
	return maxRows
}
