package counters

import (
	"time"

	"github.com/23skdu/shardstat/internal/ctrerrors"
)

// Typed is the enum-indexed overlay: a Collection whose columns are
// addressed by an application enum type E rather than by raw column
// index. Every Bind call builds its own Schema from the member table;
// per-scope instances chained under a parent come from
// Bind(members, parent).
type Typed[E Enum] struct {
	collection *Collection
	offset     int64
}

// Bind constructs a Typed[E] from an enum member table, optionally
// chained under a parent Typed[E] of the same enum binding. Every
// successful add against the returned Typed also propagates into
// parent's Collection.
func Bind[E Enum](members []Member[E], parent *Typed[E]) (*Typed[E], error) {
	schema, offset, err := BindSchema(members)
	if err != nil {
		return nil, err
	}
	var parentCollection *Collection
	if parent != nil {
		if parent.offset != offset {
			return nil, ctrerrors.New(ctrerrors.SchemaMismatch, "<typed>")
		}
		parentCollection = parent.collection
	}
	collection, err := NewCollection(schema, parentCollection)
	if err != nil {
		return nil, err
	}
	return &Typed[E]{collection: collection, offset: offset}, nil
}

func (t *Typed[E]) col(m E) int {
	return int(int64(m) - t.offset)
}

// Handle returns the Handle bound to enum member m.
func (t *Typed[E]) Handle(m E) Handle {
	col := t.col(m)
	schema := t.collection.schema
	return Handle{collection: t.collection, col: col, kind: schema.Kind(col), name: schema.Name(col)}
}

// Increment adds one to member m's counter.
func (t *Typed[E]) Increment(m E) error { return t.Handle(m).Increment() }

// Decrement subtracts one from member m's counter.
func (t *Typed[E]) Decrement(m E) error { return t.Handle(m).Decrement() }

// Add adds delta n to member m's counter.
func (t *Typed[E]) Add(m E, n int64) error { return t.Handle(m).Add(n) }

// Value reads member m's folded count.
func (t *Typed[E]) Value(m E) int64 { return t.Handle(m).Value() }

// Duration reads member m's accumulated stopwatch time.
func (t *Typed[E]) Duration(m E) time.Duration { return t.Handle(m).Duration() }

// AddDuration adds d to member m's accumulated stopwatch time.
func (t *Typed[E]) AddDuration(m E, d time.Duration) error { return t.Handle(m).AddDuration(d) }

// Start begins a Stopwatch scope on member m.
func (t *Typed[E]) Start(m E) (*Stopwatch, error) { return t.Handle(m).Start() }

// WithStopwatch runs fn under a Stopwatch scope on member m.
func (t *Typed[E]) WithStopwatch(m E, fn func()) error { return t.Handle(m).WithStopwatch(fn) }

// MergeFrom atomically adds other's counters into t's, member for member.
// Both must have been bound from members spanning the same offset.
func (t *Typed[E]) MergeFrom(other *Typed[E]) error {
	if t.offset != other.offset {
		return ctrerrors.New(ctrerrors.SchemaMismatch, "<typed>")
	}
	return t.collection.MergeFrom(other.collection)
}

// Clone returns an independent, parentless bulk copy of t.
func (t *Typed[E]) Clone() *Typed[E] {
	return &Typed[E]{collection: t.collection.Clone(), offset: t.offset}
}

// Snapshot returns an independent, parentless merge-copy of t.
func (t *Typed[E]) Snapshot() *Typed[E] {
	return &Typed[E]{collection: t.collection.Snapshot(), offset: t.offset}
}

// DifferenceCount returns t's count for member m minus other's.
func (t *Typed[E]) DifferenceCount(other *Typed[E], m E) int64 {
	return t.collection.DifferenceCount(other.collection, t.col(m))
}

// DifferenceDuration returns t's duration for member m minus other's.
func (t *Typed[E]) DifferenceDuration(other *Typed[E], m E) int64 {
	return t.collection.DifferenceDuration(other.collection, t.col(m))
}

// SumTyped returns a new, parentless Typed[E] holding a+b, member for
// member. a and b must share an offset.
func SumTyped[E Enum](a, b *Typed[E]) (*Typed[E], error) {
	if a.offset != b.offset {
		return nil, ctrerrors.New(ctrerrors.SchemaMismatch, "<typed>")
	}
	sum, err := Sum(a.collection, b.collection)
	if err != nil {
		return nil, err
	}
	return &Typed[E]{collection: sum, offset: a.offset}, nil
}

// Enumerate returns every bound Handle in column order.
func (t *Typed[E]) Enumerate() []Handle {
	schema := t.collection.schema
	n := schema.Columns()
	handles := make([]Handle, n)
	for col := 0; col < n; col++ {
		handles[col] = Handle{collection: t.collection, col: col, kind: schema.Kind(col), name: schema.Name(col)}
	}
	return handles
}

// ForEach invokes fn for every bound Handle without allocating the
// intermediate slice Enumerate returns.
func (t *Typed[E]) ForEach(fn func(Handle)) {
	schema := t.collection.schema
	n := schema.Columns()
	for col := 0; col < n; col++ {
		fn(Handle{collection: t.collection, col: col, kind: schema.Kind(col), name: schema.Name(col)})
	}
}
