package simdb

import (
	"github.com/axonlabs/simdb/codec"
	"github.com/axonlabs/simdb/types"
)

// ComponentInfo describes one component for runtime introspection.
type ComponentInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Storage  string `json:"storage"`
	Type     string `json:"type"`
	Width    int    `json:"width"`
	Target   string `json:"target,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
	Doc      string `json:"doc,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// ArchetypeInfo describes one archetype for runtime introspection.
type ArchetypeInfo struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Count      int             `json:"count"`
	Components []ComponentInfo `json:"components"`
}

// Info is a snapshot of the database's schema and sizes.
type Info struct {
	InstanceID string          `json:"instance_id"`
	Entities   int             `json:"entities"`
	Archetypes []ArchetypeInfo `json:"archetypes"`
}

// Info returns a structured description of every archetype and component:
// names, storage kinds, types, units, documentation, and current counts.
func (d *Database) Info() Info {
	info := Info{
		InstanceID: d.id.String(),
		Entities:   d.index.Len(),
	}
	for _, arch := range d.registry.Archetypes() {
		ai := ArchetypeInfo{
			ID:    int(arch.ID),
			Name:  arch.Name,
			Count: d.tables[arch.ID].Count(),
		}
		for _, comp := range arch.Components {
			ci := ComponentInfo{
				ID:       int(comp.ID),
				Name:     comp.Name,
				Storage:  comp.Kind.String(),
				Type:     comp.Type.Kind.String(),
				Width:    comp.Type.Width,
				Nullable: comp.Nullable,
				Checked:  comp.Checks.Enabled(),
				Doc:      comp.Doc,
				Unit:     comp.Unit,
			}
			if comp.IsPointer() {
				if target, err := d.registry.Archetype(comp.Target()); err == nil {
					ci.Target = target.Name
				}
			}
			ai.Components = append(ai.Components, ci)
		}
		info.Archetypes = append(info.Archetypes, ai)
	}
	return info
}

// InfoJSON renders Info through the JSON codec.
func (d *Database) InfoJSON() ([]byte, error) {
	return codec.Encode(d.Info())
}

// ArchetypeByName resolves an archetype ID from its registered name.
func (d *Database) ArchetypeByName(name string) (types.ArchetypeID, error) {
	arch, err := d.registry.ArchetypeByName(name)
	if err != nil {
		return 0, err
	}
	return arch.ID, nil
}

// ComponentByName resolves a component ID from its archetype and name.
func (d *Database) ComponentByName(archID types.ArchetypeID, name string) (types.ComponentID, error) {
	arch, err := d.registry.Archetype(archID)
	if err != nil {
		return 0, err
	}
	comp, err := arch.Component(name)
	if err != nil {
		return 0, err
	}
	return comp.ID, nil
}
