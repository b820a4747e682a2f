// Package counters implements the shard-matrix-backed counter
// Collection with its add/read/merge/diff/snapshot algebra, the
// enum-indexed overlay that binds a dense set of named counters to column
// indices, and the public Handle/Stopwatch/Statistics facade on top.
//
// Go has no runtime reflection over const declarations, so the
// enum-indexed overlay takes a constructor-time table: callers pass a
// []Member[E] describing each enum value's Kind and display Name.
package counters

import (
	"fmt"
	"sort"

	"github.com/23skdu/shardstat/internal/ctrerrors"
)

// Kind tags a counter column as a plain additive accumulator or a
// stopwatch (tick accumulator with an implicit call-count companion).
type Kind uint8

const (
	KindNumeric Kind = iota
	KindStopwatch
)

func (k Kind) String() string {
	if k == KindStopwatch {
		return "stopwatch"
	}
	return "numeric"
}

// FieldDef names one column of an untyped Schema.
type FieldDef struct {
	Name string
	Kind Kind
}

// Schema is the immutable, process-wide-shareable pair of (names, kinds)
// tables bound once per enum type. Safe for concurrent use: it is never
// mutated after NewSchema/BindSchema returns.
type Schema struct {
	names []string
	kinds []Kind
}

// Counter ids are 16-bit, so a schema holds at most 65536 columns.
const maxColumns = 1 << 16

// NewSchema validates and builds a Schema from an explicit, already
// column-ordered list of field definitions.
func NewSchema(defs []FieldDef) (*Schema, error) {
	if len(defs) == 0 {
		return nil, ctrerrors.New(ctrerrors.InvalidCounterSchema, "<schema>")
	}
	if len(defs) > maxColumns {
		return nil, ctrerrors.New(ctrerrors.InvalidCounterSchema, "<schema>")
	}
	names := make([]string, len(defs))
	kinds := make([]Kind, len(defs))
	for i, d := range defs {
		if d.Name == "" {
			return nil, ctrerrors.New(ctrerrors.InvalidCounterSchema, fmt.Sprintf("<column %d>", i))
		}
		names[i] = d.Name
		kinds[i] = d.Kind
	}
	return &Schema{names: names, kinds: kinds}, nil
}

// Columns reports the number of counters in the schema.
func (s *Schema) Columns() int {
	return len(s.names)
}

// Name returns the display name bound to column col.
func (s *Schema) Name(col int) string {
	return s.names[col]
}

// Kind returns the type tag bound to column col.
func (s *Schema) Kind(col int) Kind {
	return s.kinds[col]
}

// SameShape reports whether two schemas have identical column counts and
// per-column kinds, the precondition for a parent/child link and for
// merge/diff/sum.
func (s *Schema) SameShape(other *Schema) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if len(s.kinds) != len(other.kinds) {
		return false
	}
	for i, k := range s.kinds {
		if other.kinds[i] != k {
			return false
		}
	}
	return true
}

// Member describes one enum value's counter metadata for BindSchema: the
// enum constant itself, its Kind, and its display Name (there is no
// runtime way to recover a Go const's identifier, so the name must be
// supplied explicitly rather than derived by reflection).
type Member[E Enum] struct {
	Value E
	Kind  Kind
	Name  string
}

// Enum constrains the set of underlying integer types BindSchema accepts
// as an enum representation.
type Enum interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// BindSchema builds a Schema from a caller-supplied enum member table,
// validating that the member values form a dense, gap-free, duplicate-free
// contiguous range, and returns the offset (the minimum member value)
// used to convert a member into a column index.
func BindSchema[E Enum](members []Member[E]) (schema *Schema, offset int64, err error) {
	if len(members) == 0 {
		return nil, 0, ctrerrors.New(ctrerrors.InvalidCounterSchema, "<schema>")
	}
	if len(members) > maxColumns {
		return nil, 0, ctrerrors.New(ctrerrors.InvalidCounterSchema, "<schema>")
	}

	values := make([]int64, len(members))
	for i, m := range members {
		values[i] = int64(m.Value)
	}
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	minV := sorted[0]
	for i, v := range sorted {
		if v != minV+int64(i) {
			return nil, 0, ctrerrors.New(ctrerrors.InvalidCounterSchema, "<schema>")
		}
	}

	names := make([]string, len(members))
	kinds := make([]Kind, len(members))
	filled := make([]bool, len(members))
	for i, m := range members {
		col := int(values[i] - minV)
		if filled[col] {
			return nil, 0, ctrerrors.New(ctrerrors.InvalidCounterSchema, "<schema>")
		}
		if m.Name == "" {
			return nil, 0, ctrerrors.New(ctrerrors.InvalidCounterSchema, fmt.Sprintf("<member %d>", i))
		}
		filled[col] = true
		names[col] = m.Name
		kinds[col] = m.Kind
	}

	return &Schema{names: names, kinds: kinds}, minV, nil
}
