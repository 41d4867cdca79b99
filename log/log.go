// Package log wraps zerolog with event helpers for the engine's lifecycle
// events: schema definitions, commits, and reorders.
package log

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/axonlabs/simdb/types"
)

type Logger struct {
	*zerolog.Logger
}

func New(logger *zerolog.Logger) *Logger {
	return &Logger{logger}
}

// Archetype logs the definition of a new archetype.
func (l *Logger) Archetype(level zerolog.Level, id types.ArchetypeID, name string) {
	l.WithLevel(level).
		Int("archetype_id", int(id)).
		Str("archetype_name", name).
		Msg("archetype defined")
}

// Component logs the definition of a new component.
func (l *Logger) Component(
	level zerolog.Level, id types.ComponentID, archID types.ArchetypeID, name string,
	kind types.StorageKind, dt types.DataType,
) {
	l.WithLevel(level).
		Int("component_id", int(id)).
		Int("archetype_id", int(archID)).
		Str("component_name", name).
		Str("storage_kind", kind.String()).
		Str("type_kind", dt.Kind.String()).
		Int("width", dt.Width).
		Msg("component defined")
}

// Commit logs the outcome of one destruction commit.
func (l *Logger) Commit(level zerolog.Level, destroyed, moved, archetypes int, elapsed time.Duration) {
	l.WithLevel(level).
		Int("destroyed", destroyed).
		Int("moved", moved).
		Int("affected_archetypes", archetypes).
		Dur("elapsed", elapsed).
		Msg("commit")
}

// Reorder logs the outcome of one reorder pass.
func (l *Logger) Reorder(level zerolog.Level, archID types.ArchetypeID, rows int, elapsed time.Duration) {
	l.WithLevel(level).
		Int("archetype_id", int(archID)).
		Int("rows", rows).
		Dur("elapsed", elapsed).
		Msg("reorder")
}
