package counters

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/shardstat/internal/ctrerrors"
	"github.com/23skdu/shardstat/internal/ctrshard"
)

func mustSchema(t *testing.T) *Schema {
	s, err := NewSchema([]FieldDef{{Name: "a", Kind: KindNumeric}, {Name: "b", Kind: KindStopwatch}})
	require.NoError(t, err)
	return s
}

func TestCollectionAddAndRead(t *testing.T) {
	c, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)

	require.NoError(t, c.AddCount(0, 5))
	require.NoError(t, c.AddCount(0, -2))
	assert.Equal(t, int64(3), c.ReadCount(0))

	require.NoError(t, c.AddDuration(1, 100))
	assert.Equal(t, int64(100), c.ReadDuration(1))
}

func TestCollectionConcurrentAddIsLinearizableInSum(t *testing.T) {
	c, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)

	const goroutines = 32
	const perGoroutine = 2000
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_ = c.AddCount(0, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(goroutines*perGoroutine), c.ReadCount(0))
}

func TestCollectionPropagatesToParent(t *testing.T) {
	schema := mustSchema(t)
	parent, err := NewCollection(schema, nil)
	require.NoError(t, err)
	child, err := NewCollection(schema, parent)
	require.NoError(t, err)

	require.NoError(t, child.AddCount(0, 7))
	assert.Equal(t, int64(7), child.ReadCount(0))
	assert.Equal(t, int64(7), parent.ReadCount(0))
}

func TestNewCollectionRejectsMismatchedParentShape(t *testing.T) {
	parentSchema, err := NewSchema([]FieldDef{{Name: "a"}})
	require.NoError(t, err)
	childSchema, err := NewSchema([]FieldDef{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)

	parent, err := NewCollection(parentSchema, nil)
	require.NoError(t, err)

	_, err = NewCollection(childSchema, parent)
	require.Error(t, err)
	assert.True(t, ctrerrors.IsKind(err, ctrerrors.SchemaMismatch))
}

func TestCollectionAddCountDetectsOverflow(t *testing.T) {
	c, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)

	// Drive every shard's cell to the edge of int64 range so the add
	// overflows no matter which slot the caller resolves to.
	for slot := 0; slot < ctrshard.Slots; slot++ {
		c.counts.AddToSlot(slot, 0, math.MaxInt64)
	}
	err = c.AddCount(0, 1)
	require.Error(t, err)
	assert.True(t, ctrerrors.IsKind(err, ctrerrors.Overflow))
}

func TestCollectionCloneIsIndependent(t *testing.T) {
	c, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)
	require.NoError(t, c.AddCount(0, 5))

	clone := c.Clone()
	assert.Equal(t, int64(5), clone.ReadCount(0))

	require.NoError(t, c.AddCount(0, 100))
	assert.Equal(t, int64(5), clone.ReadCount(0))
}

func TestCollectionSnapshotIsIndependent(t *testing.T) {
	c, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)
	require.NoError(t, c.AddCount(0, 5))

	snap := c.Snapshot()
	assert.Equal(t, int64(5), snap.ReadCount(0))
	assert.Nil(t, snap.parent)

	require.NoError(t, c.AddCount(0, 100))
	assert.Equal(t, int64(5), snap.ReadCount(0))
}

func TestCollectionMergeFromRejectsShapeMismatch(t *testing.T) {
	a, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)
	otherSchema, err := NewSchema([]FieldDef{{Name: "only"}})
	require.NoError(t, err)
	b, err := NewCollection(otherSchema, nil)
	require.NoError(t, err)

	err = a.MergeFrom(b)
	require.Error(t, err)
	assert.True(t, ctrerrors.IsKind(err, ctrerrors.SchemaMismatch))
}

func TestCollectionDifference(t *testing.T) {
	schema := mustSchema(t)
	before, err := NewCollection(schema, nil)
	require.NoError(t, err)
	require.NoError(t, before.AddCount(0, 10))

	after := before.Clone()
	require.NoError(t, after.AddCount(0, 4))

	assert.Equal(t, int64(4), after.DifferenceCount(before, 0))
}

func TestSumCollections(t *testing.T) {
	schema := mustSchema(t)
	a, err := NewCollection(schema, nil)
	require.NoError(t, err)
	require.NoError(t, a.AddCount(0, 3))
	b, err := NewCollection(schema, nil)
	require.NoError(t, err)
	require.NoError(t, b.AddCount(0, 4))

	sum, err := Sum(a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sum.ReadCount(0))
}

func TestCollectionReadCountPanicsOnFoldOverflow(t *testing.T) {
	c, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)
	c.counts.AddToSlot(0, 0, math.MaxInt64)
	c.counts.AddToSlot(1, 0, math.MaxInt64)

	assert.Panics(t, func() {
		c.ReadCount(0)
	})
}

func TestAddZeroIsNoOpEvenNearMax(t *testing.T) {
	schema := mustSchema(t)
	parent, err := NewCollection(schema, nil)
	require.NoError(t, err)
	c, err := NewCollection(schema, parent)
	require.NoError(t, err)

	for slot := 0; slot < ctrshard.Slots; slot++ {
		c.counts.AddToSlot(slot, 0, math.MaxInt64)
	}
	require.NoError(t, c.AddCount(0, 0))
	assert.Equal(t, int64(0), parent.ReadCount(0))
}

func TestMergeFromEmptySnapshotIsNoOp(t *testing.T) {
	c, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)
	require.NoError(t, c.AddCount(0, 12))
	require.NoError(t, c.AddDuration(1, 34))

	empty, err := NewCollection(c.schema, nil)
	require.NoError(t, err)

	require.NoError(t, c.MergeFrom(empty))
	assert.Equal(t, int64(12), c.ReadCount(0))
	assert.Equal(t, int64(34), c.ReadDuration(1))
}

func TestSnapshotOfSnapshotIsIdentical(t *testing.T) {
	c, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)
	require.NoError(t, c.AddCount(0, 8))
	require.NoError(t, c.AddDuration(1, 90))

	first := c.Snapshot()
	second := first.Snapshot()
	assert.Equal(t, first.ReadCount(0), second.ReadCount(0))
	assert.Equal(t, first.ReadDuration(1), second.ReadDuration(1))
}

func TestDurationTicksRoundTripThroughCollection(t *testing.T) {
	c, err := NewCollection(mustSchema(t), nil)
	require.NoError(t, err)
	ticks := ctrshard.DurationToTicks(1500 * time.Millisecond)
	require.NoError(t, c.AddDuration(1, ticks))
	assert.Equal(t, ticks, c.ReadDuration(1))
}
