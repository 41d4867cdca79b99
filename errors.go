package simdb

import (
	"github.com/rotisserie/eris"

	"github.com/axonlabs/simdb/schema"
	"github.com/axonlabs/simdb/store"
)

// Sentinel errors from the subpackages, re-exported so that callers only
// need to import simdb. Match with eris.Is(eris.Cause(err), ...).
var (
	ErrDuplicateArchetype   = schema.ErrDuplicateArchetype
	ErrDuplicateComponent   = schema.ErrDuplicateComponent
	ErrUnknownArchetype     = schema.ErrUnknownArchetype
	ErrUnknownComponent     = schema.ErrUnknownComponent
	ErrBadTypeDescriptor    = schema.ErrBadTypeDescriptor
	ErrBadCheckConfig       = schema.ErrBadCheckConfig
	ErrMalformedSparseInput = store.ErrMalformedSparseInput
	ErrTableFull            = store.ErrTableFull
	ErrInvalidHandle        = store.ErrInvalidHandle
	ErrBadValue             = store.ErrBadValue
)

var (
	// ErrMissingDefault is returned when a component is added to an
	// archetype that already has rows without declaring the value to
	// backfill them with.
	ErrMissingDefault = eris.New("adding a component to a populated archetype requires a default value")

	// ErrPointerWidthTooNarrow is returned when a new pointer component
	// cannot address the rows its target archetype already holds.
	ErrPointerWidthTooNarrow = eris.New("pointer width cannot address existing rows of target archetype")
)
