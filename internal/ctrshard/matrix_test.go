package ctrshard

import (
	"math"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixAddAndSum(t *testing.T) {
	m := NewMatrix(4)
	require.Equal(t, 4, m.Columns())

	m.AddToSlot(0, 0, 5)
	m.AddToSlot(1, 0, 7)
	m.AddToSlot(2, 0, -2)

	assert.Equal(t, int64(10), m.Sum(0))
	assert.Equal(t, int64(0), m.Sum(1))
}

func TestMatrixAddReportsOldAndNew(t *testing.T) {
	m := NewMatrix(1)
	old, updated := m.AddToSlot(3, 0, 5)
	assert.Equal(t, int64(0), old)
	assert.Equal(t, int64(5), updated)

	old, updated = m.AddToSlot(3, 0, 10)
	assert.Equal(t, int64(5), old)
	assert.Equal(t, int64(15), updated)
}

func TestMatrixConcurrentAdd(t *testing.T) {
	m := NewMatrix(1)
	const goroutines = 64
	const perGoroutine = 5000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Add(0, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*perGoroutine), m.Sum(0))
}

func TestMatrixAddFrom(t *testing.T) {
	a := NewMatrix(2)
	b := NewMatrix(2)

	a.AddToSlot(0, 0, 3)
	b.AddToSlot(0, 0, 4)
	b.AddToSlot(5, 1, 9)

	a.AddFrom(b)

	assert.Equal(t, int64(7), a.Sum(0))
	assert.Equal(t, int64(9), a.Sum(1))
	// other is untouched by AddFrom
	assert.Equal(t, int64(4), b.Sum(0))
}

func TestMatrixCopyFrom(t *testing.T) {
	a := NewMatrix(1)
	b := NewMatrix(1)
	b.AddToSlot(2, 0, 42)

	a.CopyFrom(b)
	assert.Equal(t, int64(42), a.Sum(0))

	// mutating the source after the copy does not affect the copy
	b.AddToSlot(2, 0, 1000)
	assert.Equal(t, int64(42), a.Sum(0))
}

func TestMatrixRowsDoNotShareCacheline(t *testing.T) {
	m := NewMatrix(1)
	// Every row's first cell must be at least cellsPerCacheline int64s
	// apart, which at 8 bytes/int64 is exactly one 64-byte cacheline.
	require.GreaterOrEqual(t, m.stride, cellsPerCacheline)
}

func TestCurrentSlotBounded(t *testing.T) {
	for i := 0; i < 1000; i++ {
		slot := CurrentSlot() % Slots
		assert.True(t, slot >= 0 && slot < Slots)
	}
}

func TestCurrentSlotUsableFromManyGoroutines(t *testing.T) {
	n := runtime.GOMAXPROCS(0) * 4
	results := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = CurrentSlot() % Slots
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.True(t, r >= 0 && r < Slots)
	}
}

func TestTickDurationRoundTrip(t *testing.T) {
	for _, d := range []int64{0, 1, 100, math.MaxInt32, 10_000_000_000} {
		ticks := DurationToTicks(TicksToDuration(d))
		assert.Equal(t, d, ticks)
	}
}
