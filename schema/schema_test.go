package schema_test

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"

	"github.com/axonlabs/simdb/schema"
	"github.com/axonlabs/simdb/types"
)

func TestDefineArchetypeRejectsDuplicates(t *testing.T) {
	r := schema.NewRegistry()
	_, err := r.DefineArchetype("Neuron")
	require.NoError(t, err)
	_, err = r.DefineArchetype("Neuron")
	require.Error(t, err)
	require.True(t, eris.Is(eris.Cause(err), schema.ErrDuplicateArchetype))
}

func TestDefineComponentValidation(t *testing.T) {
	r := schema.NewRegistry()
	neuron, err := r.DefineArchetype("Neuron")
	require.NoError(t, err)

	_, err = r.DefineComponent(neuron, "voltage", types.Float64(), types.Attribute, schema.Options{})
	require.NoError(t, err)

	// Duplicate name on the same archetype.
	_, err = r.DefineComponent(neuron, "voltage", types.Float32(), types.Attribute, schema.Options{})
	require.True(t, eris.Is(eris.Cause(err), schema.ErrDuplicateComponent))

	// Unknown owning archetype.
	_, err = r.DefineComponent(99, "x", types.Float64(), types.Attribute, schema.Options{})
	require.True(t, eris.Is(eris.Cause(err), schema.ErrUnknownArchetype))

	// Malformed descriptor.
	_, err = r.DefineComponent(neuron, "bad", types.DataType{Kind: types.KindFloat, Width: 3}, types.Attribute, schema.Options{})
	require.True(t, eris.Is(eris.Cause(err), schema.ErrBadTypeDescriptor))

	// Pointer into a nonexistent archetype fails at definition time, not
	// at commit time.
	_, err = r.DefineComponent(neuron, "parent", types.PointerTo(42), types.Attribute, schema.Options{})
	require.True(t, eris.Is(eris.Cause(err), schema.ErrUnknownArchetype))

	// Global constants cannot hold pointers.
	_, err = r.DefineComponent(neuron, "gp", types.PointerTo(neuron), types.GlobalConstant, schema.Options{})
	require.True(t, eris.Is(eris.Cause(err), schema.ErrBadTypeDescriptor))

	// Sparse components need a 32-bit pointer descriptor.
	_, err = r.DefineComponent(neuron, "syn", types.Float64(), types.SparseMatrix, schema.Options{})
	require.True(t, eris.Is(eris.Cause(err), schema.ErrBadTypeDescriptor))
	_, err = r.DefineComponent(neuron, "syn", types.PointerTo(neuron), types.SparseMatrix, schema.Options{})
	require.NoError(t, err)
}

func TestCheckConfigApplicability(t *testing.T) {
	r := schema.NewRegistry()
	arch, err := r.DefineArchetype("Channel")
	require.NoError(t, err)

	// NaN check on an integer component.
	_, err = r.DefineComponent(arch, "count", types.Uint32(), types.Attribute,
		schema.Options{Checks: types.CheckConfig{NaN: true}})
	require.True(t, eris.Is(eris.Cause(err), schema.ErrBadCheckConfig))

	// Null check on a float component.
	_, err = r.DefineComponent(arch, "g", types.Float64(), types.Attribute,
		schema.Options{Checks: types.CheckConfig{Null: true}})
	require.True(t, eris.Is(eris.Cause(err), schema.ErrBadCheckConfig))

	// Nullable on a non-pointer component.
	_, err = r.DefineComponent(arch, "g", types.Float64(), types.Attribute,
		schema.Options{Nullable: true})
	require.True(t, eris.Is(eris.Cause(err), schema.ErrBadCheckConfig))
}

func TestComponentLookup(t *testing.T) {
	r := schema.NewRegistry()
	arch, _ := r.DefineArchetype("Segment")
	comp, err := r.DefineComponent(arch, "voltage", types.Float64(), types.Attribute,
		schema.Options{Doc: "membrane potential", Unit: "mV"})
	require.NoError(t, err)

	got, err := r.Component(comp.ID)
	require.NoError(t, err)
	assert.Equal(t, "voltage", got.Name)
	assert.Equal(t, "mV", got.Unit)

	a, err := r.ArchetypeByName("Segment")
	require.NoError(t, err)
	byName, err := a.Component("voltage")
	require.NoError(t, err)
	assert.Equal(t, comp.ID, byName.ID)

	_, err = a.Component("missing")
	require.True(t, eris.Is(eris.Cause(err), schema.ErrUnknownComponent))
}

func TestMaxRowsForTracksNarrowestPointer(t *testing.T) {
	r := schema.NewRegistry()
	seg, _ := r.DefineArchetype("Segment")
	chn, _ := r.DefineArchetype("Channel")

	wide := r.MaxRowsFor(seg)

	_, err := r.DefineComponent(chn, "target", types.PointerTo16(seg), types.Attribute, schema.Options{})
	require.NoError(t, err)
	assert.Equal(t, int(types.Null16), r.MaxRowsFor(seg))
	assert.Assert(t, r.MaxRowsFor(seg) < wide)
}
