package simdb

import (
	"github.com/rs/zerolog"

	"github.com/axonlabs/simdb/schema"
	"github.com/axonlabs/simdb/types"
)

// Option configures a Database.
type Option func(*Database)

// WithLogger replaces the database's logger. The default is the global
// zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Database) {
		d.zlog = logger
	}
}

// WithInitialCapacity pre-sizes new tables for the given row count.
func WithInitialCapacity(rows int) Option {
	return func(d *Database) {
		d.initialCapacity = rows
	}
}

// componentConfig collects the optional parts of a component definition.
type componentConfig struct {
	opts       schema.Options
	def        any
	hasDefault bool
}

// ComponentOption configures a component definition.
type ComponentOption func(*componentConfig)

// WithDoc attaches a documentation string to the component.
func WithDoc(doc string) ComponentOption {
	return func(c *componentConfig) {
		c.opts.Doc = doc
	}
}

// WithUnit declares the physical unit of the component's values, e.g. "mV".
func WithUnit(unit string) ComponentOption {
	return func(c *componentConfig) {
		c.opts.Unit = unit
	}
}

// WithChecks enables advisory validation checks for the component. The
// configuration is immutable after definition.
func WithChecks(cfg types.CheckConfig) ComponentOption {
	return func(c *componentConfig) {
		c.opts.Checks = cfg
	}
}

// WithNullable declares that this pointer component tolerates dangling
// references: when a target row is destroyed, the stored pointer is
// rewritten to NULL at commit instead of cascading destruction to the
// owner.
func WithNullable() ComponentOption {
	return func(c *componentConfig) {
		c.opts.Nullable = true
	}
}

// WithDefault declares the value new and backfilled rows start with.
// Required when the archetype already has rows.
func WithDefault(v any) ComponentOption {
	return func(c *componentConfig) {
		c.def = v
		c.hasDefault = true
	}
}
