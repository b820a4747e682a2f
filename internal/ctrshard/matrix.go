// Package ctrshard implements the low-level sharded counter matrix: a
// row-major table of atomic int64 cells where each row is cacheline-aligned
// and soft-owned by one logical CPU slot. It has no notion of counter
// names, types, or enums — that belongs to the counters package.
package ctrshard

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// cellsPerCacheline is the number of int64 cells that fit in a single
// typical 64-byte cacheline. Row strides are rounded up to a multiple of
// this so that two different CPU slots never share a cacheline within the
// same matrix.
const cellsPerCacheline = 8

// Slots is the fixed number of shard rows. It matches a common OS
// processor-group size: on machines with fewer cores some rows are wasted
// (never touched) but contention is lower; on machines with more cores the
// CPU->slot mapping becomes many-to-one, producing at most group-level
// contention rather than whole-machine contention.
const Slots = 64

// Matrix is an R x columns table of atomic int64 cells, row-major, with
// row strides padded to a cacheline multiple. All cells start at zero.
type Matrix struct {
	_       cpu.CacheLinePad
	cells   []atomic.Int64
	columns int
	stride  int
	_       cpu.CacheLinePad
}

// NewMatrix allocates a Matrix with the given number of columns. The
// backing slice is over-allocated and trimmed so that cells[0] itself
// starts on a cacheline boundary; Go offers no aligned-alloc primitive,
// so the slice start is adjusted by hand.
func NewMatrix(columns int) *Matrix {
	stride := (columns + cellsPerCacheline - 1) &^ (cellsPerCacheline - 1)
	if stride == 0 {
		stride = cellsPerCacheline
	}
	cells := make([]atomic.Int64, stride*Slots+cellsPerCacheline)
	if r := (uintptr(unsafe.Pointer(&cells[0])) / 8) & (cellsPerCacheline - 1); r != 0 {
		cells = cells[cellsPerCacheline-uintptr(r):]
	}
	return &Matrix{
		cells:   cells,
		columns: columns,
		stride:  stride,
	}
}

// Columns reports the number of logical columns (counters) the matrix was
// built with.
func (m *Matrix) Columns() int {
	return m.columns
}

func (m *Matrix) cell(row, col int) *atomic.Int64 {
	return &m.cells[row*m.stride+col]
}

// Add performs a relaxed atomic fetch-add on cell [row(CurrentSlot()), col]
// and returns that single cell's value before and after the add (not the
// folded sum across rows). Callers check for overflow themselves using the old/delta/new
// triple, since atomic.Int64.Add doesn't report the pre-add value directly.
func (m *Matrix) Add(col int, delta int64) (old, updated int64) {
	slot := CurrentSlot() % Slots
	cell := m.cell(slot, col)
	updated = cell.Add(delta)
	old = updated - delta
	return old, updated
}

// AddToSlot adds delta to an explicit row/column cell, bypassing CPU-slot
// resolution. Used by tests that need to pin writes to a specific shard
// (e.g. to manufacture an overflow condition deterministically).
func (m *Matrix) AddToSlot(slot, col int, delta int64) (old, updated int64) {
	cell := m.cell(slot%Slots, col)
	updated = cell.Add(delta)
	old = updated - delta
	return old, updated
}

// Load acquire-loads a single row's cell, used by the counters package's
// checked fold.
func (m *Matrix) Load(row, col int) int64 {
	return m.cell(row, col).Load()
}

// Sum folds column col across all rows with independent acquire loads. No
// per-row lock is taken: a concurrent writer may land its update before or
// after this traversal reads that row, so the result is a value between
// the sum observed at traversal start and the sum observed at traversal
// end, never a torn individual cell.
func (m *Matrix) Sum(col int) int64 {
	var sum int64
	for row := 0; row < Slots; row++ {
		sum += m.cell(row, col).Load()
	}
	return sum
}

// AddFrom atomically adds every cell of other into the matching cell of m.
// Both matrices must have been built with the same column count; the
// caller is responsible for checking that (Collection enforces it).
func (m *Matrix) AddFrom(other *Matrix) {
	for row := 0; row < Slots; row++ {
		for col := 0; col < m.columns; col++ {
			if v := other.cell(row, col).Load(); v != 0 {
				m.cell(row, col).Add(v)
			}
		}
	}
}

// CopyFrom performs a non-atomic bulk copy of other's cells into m. The
// caller accepts a fuzzy snapshot: concurrent writers to other during the
// copy may or may not be reflected, but no individual cell is ever torn
// since each copied cell is itself a single int64 load+store.
func (m *Matrix) CopyFrom(other *Matrix) {
	for row := 0; row < Slots; row++ {
		for col := 0; col < m.columns; col++ {
			m.cell(row, col).Store(other.cell(row, col).Load())
		}
	}
}
