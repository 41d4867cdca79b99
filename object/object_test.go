package object_test

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"

	"github.com/axonlabs/simdb"
	"github.com/axonlabs/simdb/object"
	"github.com/axonlabs/simdb/store"
	"github.com/axonlabs/simdb/types"
)

func newSegmentDB(t *testing.T) (*simdb.Database, types.ArchetypeID) {
	t.Helper()
	db := simdb.NewDatabase()
	seg, err := db.DefineArchetype("Segment")
	require.NoError(t, err)
	_, err = db.DefineComponent(seg, "voltage", types.Float64(), types.Attribute,
		simdb.WithChecks(types.CheckConfig{NaN: true, Bounds: &types.Bounds{Min: -90, Max: 40}}))
	require.NoError(t, err)
	_, err = db.DefineComponent(seg, "parent", types.PointerTo(seg), types.Attribute, simdb.WithNullable())
	require.NoError(t, err)
	return db, seg
}

func TestViewGetAndSet(t *testing.T) {
	db, seg := newSegmentDB(t)
	ptrs, _ := db.CreateMany(seg, 2)

	v, err := object.Wrap(db, ptrs[0])
	require.NoError(t, err)

	require.NoError(t, v.Set("voltage", -70.0))
	got, err := v.Get("voltage")
	require.NoError(t, err)
	assert.Equal(t, -70.0, got)

	require.NoError(t, v.Set("parent", ptrs[1]))
	got, err = v.Get("parent")
	require.NoError(t, err)
	assert.Equal(t, ptrs[1], got)
}

func TestViewRejectsCheckedWrites(t *testing.T) {
	db, seg := newSegmentDB(t)
	p, _ := db.Create(seg)
	v, _ := object.Wrap(db, p)

	err := v.Set("voltage", math.NaN())
	require.True(t, eris.Is(eris.Cause(err), object.ErrCheckFailed))

	err = v.Set("voltage", -200.0)
	require.True(t, eris.Is(eris.Cause(err), object.ErrCheckFailed))

	// The rejected writes never reached storage.
	got, err := v.Get("voltage")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestViewUnknownComponent(t *testing.T) {
	db, seg := newSegmentDB(t)
	p, _ := db.Create(seg)
	v, _ := object.Wrap(db, p)

	_, err := v.Get("missing")
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrUnknownComponent))
}

func TestViewSurvivesCommit(t *testing.T) {
	db, seg := newSegmentDB(t)
	ptrs, _ := db.CreateMany(seg, 3)

	v, err := object.Wrap(db, ptrs[2])
	require.NoError(t, err)
	require.NoError(t, v.Set("voltage", -55.0))

	db.MarkDestroy(ptrs[0])
	db.Commit()

	// The view follows the entity to its new row.
	got, err := v.Get("voltage")
	require.NoError(t, err)
	assert.Equal(t, -55.0, got)
	p, err := v.Handle().Resolve()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), p.Row)
}

func TestViewFailsAfterDestroy(t *testing.T) {
	db, seg := newSegmentDB(t)
	p, _ := db.Create(seg)
	v, _ := object.Wrap(db, p)

	require.NoError(t, v.Destroy())
	db.Commit()

	_, err := v.Get("voltage")
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrInvalidHandle))
	err = v.Set("voltage", -70.0)
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrInvalidHandle))
}

func TestViewSparseRow(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	syn, _ := db.DefineArchetype("Synapse")
	_, err := db.DefineComponent(syn, "weights", types.PointerTo(seg), types.SparseMatrix,
		simdb.WithNullable(),
		simdb.WithChecks(types.CheckConfig{NaN: true, Null: true}))
	require.NoError(t, err)

	_, _ = db.CreateMany(seg, 2)
	p, _ := db.Create(syn)
	v, _ := object.Wrap(db, p)

	err = v.Set("weights", []store.Entry{{Target: 1, Value: math.NaN()}})
	require.True(t, eris.Is(eris.Cause(err), object.ErrCheckFailed))

	err = v.Set("weights", "not entries")
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrBadValue))

	require.NoError(t, v.Set("weights", []store.Entry{{Target: 1, Value: 0.5}}))
	got, err := v.Get("weights")
	require.NoError(t, err)
	row := got.([]store.Entry)
	require.Len(t, row, 1)
	assert.Equal(t, 0.5, row[0].Value)
}

func TestViewGlobalConstant(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	_, err := db.DefineComponent(seg, "temperature", types.Float64(), types.GlobalConstant,
		simdb.WithDefault(310.0))
	require.NoError(t, err)

	p, _ := db.Create(seg)
	v, _ := object.Wrap(db, p)

	got, err := v.Get("temperature")
	require.NoError(t, err)
	assert.Equal(t, 310.0, got)

	require.NoError(t, v.Set("temperature", 285.0))
	got, _ = v.Get("temperature")
	assert.Equal(t, 285.0, got)
}

func TestViewOpaquePayload(t *testing.T) {
	db := simdb.NewDatabase()
	seg, _ := db.DefineArchetype("Segment")
	_, err := db.DefineComponent(seg, "tag", types.Opaque(8), types.Attribute)
	require.NoError(t, err)

	p, _ := db.Create(seg)
	v, _ := object.Wrap(db, p)

	require.NoError(t, v.Set("tag", []byte("soma")))
	got, err := v.Get("tag")
	require.NoError(t, err)
	assert.DeepEqual(t, []byte{'s', 'o', 'm', 'a', 0, 0, 0, 0}, got.([]byte))

	err = v.Set("tag", []byte("far-too-long-payload"))
	require.True(t, eris.Is(eris.Cause(err), simdb.ErrBadValue))
}
