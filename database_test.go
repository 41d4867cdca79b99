package simdb_test

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"

	"github.com/axonlabs/simdb"
	"github.com/axonlabs/simdb/store"
	"github.com/axonlabs/simdb/types"
)

func TestCreateAndRawAccess(t *testing.T) {
	db := simdb.NewDatabase()
	neuron, err := db.DefineArchetype("Neuron")
	require.NoError(t, err)
	voltage, err := db.DefineComponent(neuron, "voltage", types.Float64(), types.Attribute)
	require.NoError(t, err)

	ptrs, err := db.CreateMany(neuron, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, db.Count(neuron))
	assert.Equal(t, uint32(2), ptrs[2].Row)

	db.SetFloat64(ptrs[1], voltage, -70.0)
	assert.Equal(t, -70.0, db.Float64(ptrs[1], voltage))
	assert.Equal(t, 0.0, db.Float64(ptrs[0], voltage))
}

func TestPointerComponentDefaultsToNull(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	parent, err := db.DefineComponent(seg, "parent", types.PointerTo(seg), types.Attribute, simdb.WithNullable())
	require.NoError(t, err)

	p, err := db.Create(seg)
	require.NoError(t, err)
	// A fresh pointer cell must be NULL, never row 0.
	assert.Assert(t, db.Ptr(p, parent).IsNull())
}

func TestCompactionPreservesData(t *testing.T) {
	db := simdb.NewDatabase()
	neuron, _ := db.DefineArchetype("Neuron")
	voltage, _ := db.DefineComponent(neuron, "voltage", types.Float64(), types.Attribute)

	const n = 100
	handles := make(map[simdb.Handle]float64, n)
	ptrs, err := db.CreateMany(neuron, n)
	require.NoError(t, err)
	for i, p := range ptrs {
		db.SetFloat64(p, voltage, float64(i))
		if i%3 != 0 {
			handles[db.MakeHandle(p)] = float64(i)
		} else {
			db.MarkDestroy(p)
		}
	}

	stats := db.Commit()
	assert.Equal(t, 34, stats.Destroyed)
	assert.Equal(t, n-34, db.Count(neuron))

	for h, want := range handles {
		p, err := h.Resolve()
		require.NoError(t, err)
		assert.Equal(t, want, db.Float64(p, voltage))
	}
}

func TestCommitIsIdempotentWhenNothingIsMarked(t *testing.T) {
	db := simdb.NewDatabase()
	neuron, _ := db.DefineArchetype("Neuron")
	_, err := db.CreateMany(neuron, 5)
	require.NoError(t, err)

	gen := db.Generation(neuron)
	stats := db.Commit()
	assert.Equal(t, 0, stats.Destroyed)
	assert.Equal(t, 5, db.Count(neuron))
	assert.Equal(t, gen, db.Generation(neuron))
}

func TestMarkIsIdempotent(t *testing.T) {
	db := simdb.NewDatabase()
	neuron, _ := db.DefineArchetype("Neuron")
	ptrs, _ := db.CreateMany(neuron, 3)

	db.MarkDestroy(ptrs[1])
	db.MarkDestroy(ptrs[1])
	stats := db.Commit()
	assert.Equal(t, 1, stats.Destroyed)
	assert.Equal(t, 2, db.Count(neuron))
}

func TestMarkedRowsExcludedFromIteration(t *testing.T) {
	db := simdb.NewDatabase()
	neuron, _ := db.DefineArchetype("Neuron")
	ptrs, _ := db.CreateMany(neuron, 4)
	db.MarkDestroy(ptrs[2])

	var visited []uint32
	db.Each(neuron, func(p types.Pointer) {
		visited = append(visited, p.Row)
	})
	assert.DeepEqual(t, []uint32{0, 1, 3}, visited)
	// The marked row is still physically present until the commit.
	assert.Equal(t, 4, db.Count(neuron))
}

func TestCascadeOnNonNullablePointer(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	chn, _ := db.DefineArchetype("Channel")
	target, err := db.DefineComponent(chn, "target", types.PointerTo(seg), types.Attribute)
	require.NoError(t, err)

	segs, _ := db.CreateMany(seg, 2)
	chans, _ := db.CreateMany(chn, 2)
	db.SetPtr(chans[0], target, segs[0])
	db.SetPtr(chans[1], target, segs[1])

	chanHandle := db.MakeHandle(chans[0])
	db.MarkDestroy(segs[0])
	stats := db.Commit()

	// Destroying the segment takes its channel with it.
	assert.Equal(t, 2, stats.Destroyed)
	assert.Equal(t, 1, db.Count(seg))
	assert.Equal(t, 1, db.Count(chn))
	_, err = chanHandle.Resolve()
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrInvalidHandle))
}

func TestNullableTolerance(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	chn, _ := db.DefineArchetype("Channel")
	target, _ := db.DefineComponent(chn, "target", types.PointerTo(seg), types.Attribute, simdb.WithNullable())

	segs, _ := db.CreateMany(seg, 2)
	chans, _ := db.CreateMany(chn, 1)
	db.SetPtr(chans[0], target, segs[1])

	chanHandle := db.MakeHandle(chans[0])
	db.MarkDestroy(segs[1])
	db.Commit()

	// The channel survives with its pointer rewritten to NULL.
	assert.Equal(t, 1, db.Count(chn))
	p, err := chanHandle.Resolve()
	require.NoError(t, err)
	assert.Assert(t, db.Ptr(p, target).IsNull())
}

func TestCascadeTerminatesOnCycles(t *testing.T) {
	db := simdb.NewDatabase()
	node, _ := db.DefineArchetype("Node")
	next, _ := db.DefineComponent(node, "next", types.PointerTo(node), types.Attribute)

	// a -> b -> a, plus a bystander with a NULL-free self loop.
	ptrs, _ := db.CreateMany(node, 3)
	db.SetPtr(ptrs[0], next, ptrs[1])
	db.SetPtr(ptrs[1], next, ptrs[0])
	db.SetPtr(ptrs[2], next, ptrs[2])

	survivor := db.MakeHandle(ptrs[2])
	db.MarkDestroy(ptrs[0])
	stats := db.Commit()

	assert.Equal(t, 2, stats.Destroyed)
	assert.Equal(t, 1, db.Count(node))
	p, err := survivor.Resolve()
	require.NoError(t, err)
	// The self loop was rewritten to the survivor's new row.
	assert.Equal(t, p, db.Ptr(p, next))
}

func TestPointerRewriteAcrossArchetypes(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	chn, _ := db.DefineArchetype("Channel")
	voltage, _ := db.DefineComponent(seg, "voltage", types.Float64(), types.Attribute)
	target, _ := db.DefineComponent(chn, "target", types.PointerTo(seg), types.Attribute, simdb.WithNullable())

	segs, _ := db.CreateMany(seg, 5)
	for i, p := range segs {
		db.SetFloat64(p, voltage, float64(i))
	}
	chans, _ := db.CreateMany(chn, 1)
	db.SetPtr(chans[0], target, segs[4])

	db.MarkDestroy(segs[0])
	db.MarkDestroy(segs[2])
	db.Commit()

	// Row 4 shifted to row 2; the stored pointer must follow it.
	p := db.Ptr(types.Pointer{Archetype: chn, Row: 0}, target)
	assert.Equal(t, uint32(2), p.Row)
	assert.Equal(t, 4.0, db.Float64(p, voltage))
}

func TestSparseMatrixThroughCommit(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	syn, _ := db.DefineArchetype("Synapse")
	weights, err := db.DefineComponent(syn, "weights", types.PointerTo(seg), types.SparseMatrix, simdb.WithNullable())
	require.NoError(t, err)

	segs, _ := db.CreateMany(seg, 4)
	syns, _ := db.CreateMany(syn, 2)
	db.SetSparseRow(syns[0], weights, []store.Entry{
		{Target: segs[1].Row, Value: 0.5},
		{Target: segs[3].Row, Value: 0.25},
	})
	db.SetSparseRow(syns[1], weights, []store.Entry{
		{Target: segs[2].Row, Value: 1.0},
	})

	db.MarkDestroy(segs[1])
	db.Commit()

	// The dropped target's entry disappears; the surviving entry follows
	// its target to the new row (3 -> 2).
	row := db.SparseRow(syns[0], weights)
	require.Len(t, row, 1)
	assert.Equal(t, uint32(2), row[0].Target)
	assert.Equal(t, 0.25, row[0].Value)

	row = db.SparseRow(syns[1], weights)
	require.Len(t, row, 1)
	assert.Equal(t, uint32(1), row[0].Target)
}

func TestSparseNonNullableCascades(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	syn, _ := db.DefineArchetype("Synapse")
	weights, _ := db.DefineComponent(syn, "weights", types.PointerTo(seg), types.SparseMatrix)

	segs, _ := db.CreateMany(seg, 2)
	syns, _ := db.CreateMany(syn, 2)
	db.SetSparseRow(syns[0], weights, []store.Entry{{Target: segs[0].Row, Value: 1}})
	db.SetSparseRow(syns[1], weights, []store.Entry{{Target: segs[1].Row, Value: 1}})

	db.MarkDestroy(segs[0])
	stats := db.Commit()

	assert.Equal(t, 2, stats.Destroyed)
	assert.Equal(t, 1, db.Count(syn))
}

func TestReorderIsAPermutation(t *testing.T) {
	db := simdb.NewDatabase()
	neuron, _ := db.DefineArchetype("Neuron")
	voltage, _ := db.DefineComponent(neuron, "voltage", types.Float64(), types.Attribute)

	values := []float64{3, 1, 4, 1.5, 9, 2.6}
	ptrs, _ := db.CreateMany(neuron, len(values))
	byHandle := make(map[simdb.Handle]float64, len(values))
	for i, p := range ptrs {
		db.SetFloat64(p, voltage, values[i])
		byHandle[db.MakeHandle(p)] = values[i]
	}

	gen := db.Generation(neuron)
	err := db.Reorder(neuron, func(p types.Pointer) float64 {
		return db.Float64(p, voltage)
	})
	require.NoError(t, err)

	assert.Equal(t, len(values), db.Count(neuron))
	assert.Assert(t, db.Generation(neuron) > gen)

	// Rows are now sorted ascending by voltage.
	prev := db.Float64(types.Pointer{Archetype: neuron, Row: 0}, voltage)
	for row := uint32(1); int(row) < len(values); row++ {
		v := db.Float64(types.Pointer{Archetype: neuron, Row: row}, voltage)
		assert.Assert(t, v >= prev)
		prev = v
	}

	// Every identity survived and kept its value.
	for h, want := range byHandle {
		p, err := h.Resolve()
		require.NoError(t, err)
		assert.Equal(t, want, db.Float64(p, voltage))
	}
}

func TestReorderRewritesPointers(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	chn, _ := db.DefineArchetype("Channel")
	depth, _ := db.DefineComponent(seg, "depth", types.Float64(), types.Attribute)
	target, _ := db.DefineComponent(chn, "target", types.PointerTo(seg), types.Attribute)

	segs, _ := db.CreateMany(seg, 3)
	db.SetFloat64(segs[0], depth, 3)
	db.SetFloat64(segs[1], depth, 1)
	db.SetFloat64(segs[2], depth, 2)

	chans, _ := db.CreateMany(chn, 1)
	db.SetPtr(chans[0], target, segs[0]) // deepest segment, sorts last

	require.NoError(t, db.Reorder(seg, func(p types.Pointer) float64 {
		return db.Float64(p, depth)
	}))

	p := db.Ptr(chans[0], target)
	assert.Equal(t, uint32(2), p.Row)
	assert.Equal(t, 3.0, db.Float64(p, depth))
}

func TestHandleDestroyMarksEntity(t *testing.T) {
	db := simdb.NewDatabase()
	neuron, _ := db.DefineArchetype("Neuron")
	ptrs, _ := db.CreateMany(neuron, 2)

	h := db.MakeHandle(ptrs[0])
	require.NoError(t, h.Destroy())
	assert.Assert(t, h.Live()) // still live until the commit

	db.Commit()
	assert.Assert(t, !h.Live())
	err := h.Destroy()
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrInvalidHandle))
}

func TestSentinelSafetyAtMaximumCount(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	chn, _ := db.DefineArchetype("Channel")
	// A 16-bit pointer caps the segment table at 65535 rows.
	_, err := db.DefineComponent(chn, "target", types.PointerTo16(seg), types.Attribute, simdb.WithNullable())
	require.NoError(t, err)

	for i := 0; i < int(types.Null16); i++ {
		p, err := db.Create(seg)
		require.NoError(t, err)
		// No valid row ever equals the sentinel.
		assert.Assert(t, uint64(p.Row) != types.Null16)
	}
	_, err = db.Create(seg)
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrTableFull))
}

func TestNarrowPointerRejectedOnPopulatedTable(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	chn, _ := db.DefineArchetype("Channel")
	for i := 0; i < int(types.Null16)+1; i++ {
		_, err := db.Create(seg)
		require.NoError(t, err)
	}
	_, err := db.DefineComponent(chn, "target", types.PointerTo16(seg), types.Attribute)
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrPointerWidthTooNarrow))
}

func TestBackfillOnLateComponent(t *testing.T) {
	db := simdb.NewDatabase()
	neuron, _ := db.DefineArchetype("Neuron")
	ptrs, _ := db.CreateMany(neuron, 3)

	// Without a default the definition is rejected.
	_, err := db.DefineComponent(neuron, "threshold", types.Float64(), types.Attribute)
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrMissingDefault))

	threshold, err := db.DefineComponent(neuron, "threshold", types.Float64(), types.Attribute,
		simdb.WithDefault(-55.0))
	require.NoError(t, err)
	for _, p := range ptrs {
		assert.Equal(t, -55.0, db.Float64(p, threshold))
	}

	// New rows pick up the default too.
	p, _ := db.Create(neuron)
	assert.Equal(t, -55.0, db.Float64(p, threshold))
}

func TestGlobalConstantSharedByAllRows(t *testing.T) {
	db := simdb.NewDatabase()
	neuron, _ := db.DefineArchetype("Neuron")
	temp, err := db.DefineComponent(neuron, "temperature", types.Float64(), types.GlobalConstant,
		simdb.WithUnit("K"), simdb.WithDefault(310.0))
	require.NoError(t, err)

	_, _ = db.CreateMany(neuron, 10)
	assert.Equal(t, 310.0, db.GlobalFloat64(temp))
	db.SetGlobalFloat64(temp, 285.0)
	assert.Equal(t, 285.0, db.GlobalFloat64(temp))
}

func TestOpaquePayloadJSONRoundTrip(t *testing.T) {
	type tag struct {
		Label string `json:"label"`
		Seq   int    `json:"seq"`
	}

	db := simdb.NewDatabase()
	neuron, _ := db.DefineArchetype("Neuron")
	meta, err := db.DefineComponent(neuron, "meta", types.Opaque(64), types.Attribute)
	require.NoError(t, err)

	p, _ := db.Create(neuron)
	require.NoError(t, db.SetJSON(p, meta, tag{Label: "soma", Seq: 7}))

	var got tag
	require.NoError(t, db.JSON(p, meta, &got))
	assert.Equal(t, "soma", got.Label)
	assert.Equal(t, 7, got.Seq)

	// Payloads that do not fit are rejected.
	err = db.SetJSON(p, meta, tag{Label: string(make([]byte, 100))})
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrBadValue))
}

func TestInfoListsSchema(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	_, err := db.DefineComponent(seg, "voltage", types.Float64(), types.Attribute,
		simdb.WithDoc("membrane potential"), simdb.WithUnit("mV"))
	require.NoError(t, err)
	_, _ = db.CreateMany(seg, 2)

	info := db.Info()
	require.Len(t, info.Archetypes, 1)
	assert.Equal(t, "Segment", info.Archetypes[0].Name)
	assert.Equal(t, 2, info.Archetypes[0].Count)
	require.Len(t, info.Archetypes[0].Components, 1)
	assert.Equal(t, "mV", info.Archetypes[0].Components[0].Unit)

	bz, err := db.InfoJSON()
	require.NoError(t, err)
	assert.Assert(t, len(bz) > 0)

	id, err := db.ArchetypeByName("Segment")
	require.NoError(t, err)
	assert.Equal(t, seg, id)
}

// The worked end-to-end example: a non-nullable parent pointer cascades, and
// every survivor keeps its voltage when looked up through its handle.
func TestSegmentEndToEnd(t *testing.T) {
	db := simdb.NewDatabase()
	seg, err := db.DefineArchetype("Segment")
	require.NoError(t, err)
	voltage, err := db.DefineComponent(seg, "voltage", types.Float64(), types.Attribute)
	require.NoError(t, err)
	parent, err := db.DefineComponent(seg, "parent", types.PointerTo(seg), types.Attribute)
	require.NoError(t, err)

	segs, err := db.CreateMany(seg, 5)
	require.NoError(t, err)
	voltages := []float64{-65, -70, -55, -60, -75}
	handles := make([]simdb.Handle, 5)
	for i, p := range segs {
		db.SetFloat64(p, voltage, voltages[i])
		handles[i] = db.MakeHandle(p)
	}
	db.SetPtr(segs[3], parent, segs[1])

	db.MarkDestroy(segs[1])
	db.Commit()

	assert.Equal(t, 3, db.Count(seg))
	_, err = handles[1].Resolve()
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrInvalidHandle))
	_, err = handles[3].Resolve()
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrInvalidHandle))

	for _, i := range []int{0, 2, 4} {
		p, err := handles[i].Resolve()
		require.NoError(t, err)
		assert.Equal(t, voltages[i], db.Float64(p, voltage))
	}
}
