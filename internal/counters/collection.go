package counters

import (
	"github.com/JohnCGriffin/overflow"

	"github.com/23skdu/shardstat/internal/ctrerrors"
	"github.com/23skdu/shardstat/internal/ctrshard"
)

// Collection is the untyped counter core: a pair of shard matrices (counts
// and durations, in raw ticks) bound to a Schema, with an optional parent
// Collection every successful add is also propagated into. It has no
// notion of enum members or display formatting — that is Typed's job.
type Collection struct {
	schema    *Schema
	counts    *ctrshard.Matrix
	durations *ctrshard.Matrix
	parent    *Collection
}

// NewCollection allocates a Collection of the given shape. If parent is
// non-nil its schema must have the same shape as schema.
func NewCollection(schema *Schema, parent *Collection) (*Collection, error) {
	if parent != nil && !parent.schema.SameShape(schema) {
		return nil, ctrerrors.New(ctrerrors.SchemaMismatch, "<collection>")
	}
	return &Collection{
		schema:    schema,
		counts:    ctrshard.NewMatrix(schema.Columns()),
		durations: ctrshard.NewMatrix(schema.Columns()),
		parent:    parent,
	}, nil
}

// Schema returns the shape this Collection was built with.
func (c *Collection) Schema() *Schema {
	return c.schema
}

// AddCount adds delta to column col's shard and propagates the same
// delta into the parent chain. The add always lands in this Collection's
// own shard regardless of whether the parent add later fails; a
// parent-side overflow is reported to the caller but the child's own
// committed add is not rolled back. Propagation is best-effort, not
// transactional.
func (c *Collection) AddCount(col int, delta int64) error {
	if delta == 0 {
		return nil
	}
	old, _ := c.counts.Add(col, delta)
	if _, ok := overflow.Add64(old, delta); !ok {
		return ctrerrors.NewWithDelta(ctrerrors.Overflow, c.schema.Name(col), delta)
	}
	if c.parent != nil {
		return c.parent.AddCount(col, delta)
	}
	return nil
}

// AddDuration adds delta raw ticks to column col's duration shard and
// propagates into the parent chain, mirroring AddCount.
func (c *Collection) AddDuration(col int, delta int64) error {
	if delta == 0 {
		return nil
	}
	old, _ := c.durations.Add(col, delta)
	if _, ok := overflow.Add64(old, delta); !ok {
		return ctrerrors.NewWithDelta(ctrerrors.Overflow, c.schema.Name(col), delta)
	}
	if c.parent != nil {
		return c.parent.AddDuration(col, delta)
	}
	return nil
}

// ReadCount folds column col's count shard across all shards with checked
// arithmetic. A fold-time overflow means a 64-bit signed counter was
// driven out of range despite every individual add being checked; that is
// an invariant violation, not a recoverable fault, so it panics rather
// than silently returning a wrapped value.
func (c *Collection) ReadCount(col int) int64 {
	return checkedSum(c.counts, col, c.schema.Name(col))
}

// ReadDuration folds column col's duration shard (raw ticks), same
// checked-arithmetic discipline as ReadCount.
func (c *Collection) ReadDuration(col int) int64 {
	return checkedSum(c.durations, col, c.schema.Name(col))
}

func checkedSum(m *ctrshard.Matrix, col int, name string) int64 {
	var sum int64
	for row := 0; row < ctrshard.Slots; row++ {
		next, ok := overflow.Add64(sum, m.Load(row, col))
		if !ok {
			panic(ctrerrors.New(ctrerrors.Overflow, name))
		}
		sum = next
	}
	return sum
}

// MergeFrom atomically adds every cell of other into the matching cell of
// c. Both collections must share shape; merge never touches either side's
// parent.
func (c *Collection) MergeFrom(other *Collection) error {
	if !c.schema.SameShape(other.schema) {
		return ctrerrors.New(ctrerrors.SchemaMismatch, "<collection>")
	}
	c.counts.AddFrom(other.counts)
	c.durations.AddFrom(other.durations)
	return nil
}

// Clone returns an independent, parentless copy of c via a non-atomic
// bulk copy: a fuzzy snapshot that accepts torn reads across columns under
// concurrent writers but never a torn individual cell.
func (c *Collection) Clone() *Collection {
	clone := &Collection{
		schema:    c.schema,
		counts:    ctrshard.NewMatrix(c.schema.Columns()),
		durations: ctrshard.NewMatrix(c.schema.Columns()),
	}
	clone.counts.CopyFrom(c.counts)
	clone.durations.CopyFrom(c.durations)
	return clone
}

// Snapshot returns an independent, parentless copy of c built by merging
// into a fresh zero Collection, one atomic add per nonzero cell rather
// than a bulk store.
func (c *Collection) Snapshot() *Collection {
	snap, _ := NewCollection(c.schema, nil)
	_ = snap.MergeFrom(c)
	return snap
}

// DifferenceCount returns c's column col count minus other's, both read
// with checked arithmetic.
func (c *Collection) DifferenceCount(other *Collection, col int) int64 {
	return c.ReadCount(col) - other.ReadCount(col)
}

// DifferenceDuration is DifferenceCount for the duration shard.
func (c *Collection) DifferenceDuration(other *Collection, col int) int64 {
	return c.ReadDuration(col) - other.ReadDuration(col)
}

// Sum returns a new, parentless Collection holding a+b, column by column.
// a and b must share shape.
func Sum(a, b *Collection) (*Collection, error) {
	if !a.schema.SameShape(b.schema) {
		return nil, ctrerrors.New(ctrerrors.SchemaMismatch, "<collection>")
	}
	out, err := NewCollection(a.schema, nil)
	if err != nil {
		return nil, err
	}
	_ = out.MergeFrom(a)
	_ = out.MergeFrom(b)
	return out, nil
}
