// Package ctrerrors defines the structured error kinds the counters
// package can raise: a typed Kind, an Error()/Unwrap() implementation,
// and constructors that take a Kind. No stack trace is captured; every fault
// here is raised synchronously from the call that triggered it, so the
// caller's own stack is already the useful one.
package ctrerrors

import (
	"errors"
	"fmt"
)

// Kind identifies which failure mode produced a Fault.
type Kind string

const (
	// Overflow: a 64-bit add would wrap past the sign boundary.
	Overflow Kind = "overflow"
	// InvalidCounterSchema: an enum/table is non-dense, its cardinality
	// exceeds 16 bits, or its metadata is malformed.
	InvalidCounterSchema Kind = "invalid_counter_schema"
	// WrongCounterType: AddDuration or Start on a non-stopwatch counter.
	// Reading a non-stopwatch counter's duration never raises it.
	WrongCounterType Kind = "wrong_counter_type"
	// SchemaMismatch: merge/diff/sum on collections of differing shape.
	SchemaMismatch Kind = "schema_mismatch"
)

// Fault is the error type every synchronous counters operation returns on
// failure. It reports the counter name, the failure kind, and the
// attempted delta.
type Fault struct {
	Kind        Kind
	CounterName string
	Delta       int64
	Cause       error
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("[%s] counter %q (delta=%d): %v", f.Kind, f.CounterName, f.Delta, f.Cause)
	}
	return fmt.Sprintf("[%s] counter %q (delta=%d)", f.Kind, f.CounterName, f.Delta)
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// New builds a Fault with no delta context (schema/type faults).
func New(kind Kind, counterName string) *Fault {
	return &Fault{Kind: kind, CounterName: counterName}
}

// NewWithDelta builds a Fault carrying the attempted delta (overflow
// faults).
func NewWithDelta(kind Kind, counterName string, delta int64) *Fault {
	return &Fault{Kind: kind, CounterName: counterName, Delta: delta}
}

// Wrap builds a Fault that wraps an underlying cause.
func Wrap(kind Kind, counterName string, cause error) *Fault {
	return &Fault{Kind: kind, CounterName: counterName, Cause: cause}
}

// IsKind reports whether err is a *Fault of the given kind, unwrapping as
// needed.
func IsKind(err error, kind Kind) bool {
	var f *Fault
	return errors.As(err, &f) && f.Kind == kind
}
