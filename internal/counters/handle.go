package counters

import (
	"time"

	"github.com/23skdu/shardstat/internal/ctrerrors"
	"github.com/23skdu/shardstat/internal/ctrshard"
)

// Handle is a cheap, copyable reference to a single bound counter column.
// It carries no state of its own beyond its column, kind and name — every
// operation reads or writes straight through to the owning Collection.
type Handle struct {
	collection *Collection
	col        int
	kind       Kind
	name       string
}

// Name returns the counter's display name.
func (h Handle) Name() string {
	return h.name
}

// Kind returns whether this counter is a plain accumulator or a
// stopwatch.
func (h Handle) Kind() Kind {
	return h.kind
}

// Increment adds one to the counter.
func (h Handle) Increment() error {
	return h.Add(1)
}

// Decrement subtracts one from the counter.
func (h Handle) Decrement() error {
	return h.Add(-1)
}

// Add adds an arbitrary delta to the counter. Valid on any Kind; a
// stopwatch's count column is just another int64 accumulator from the
// add side, the type restriction only applies to AddDuration/Start.
func (h Handle) Add(n int64) error {
	return h.collection.AddCount(h.col, n)
}

// Value reads the counter's current folded sum.
func (h Handle) Value() int64 {
	return h.collection.ReadCount(h.col)
}

// Duration reads the accumulated stopwatch time. Meaningful only on a
// KindStopwatch counter; on a plain numeric counter it reads back
// whatever (normally zero) the duration shard happens to hold.
func (h Handle) Duration() time.Duration {
	return ctrshard.TicksToDuration(h.collection.ReadDuration(h.col))
}

// AddDuration adds d directly to the stopwatch's accumulated time,
// without touching its count column. Returns WrongCounterType on a
// non-stopwatch counter.
func (h Handle) AddDuration(d time.Duration) error {
	if h.kind != KindStopwatch {
		return ctrerrors.New(ctrerrors.WrongCounterType, h.name)
	}
	return h.collection.AddDuration(h.col, ctrshard.DurationToTicks(d))
}

// Start begins a Stopwatch scope against this counter. Returns
// WrongCounterType if the counter was not bound as KindStopwatch: timing
// a plain numeric counter would silently grow a duration shard nothing
// ever reads back.
func (h Handle) Start() (*Stopwatch, error) {
	if h.kind != KindStopwatch {
		return nil, ctrerrors.New(ctrerrors.WrongCounterType, h.name)
	}
	return newStopwatch(h.collection, h.col, h.name), nil
}

// WithStopwatch runs fn under a Stopwatch scope on this counter and
// releases it on return, including on panic, propagating any fault from
// the release itself if fn didn't already panic.
func (h Handle) WithStopwatch(fn func()) (err error) {
	sw, err := h.Start()
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := sw.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()
	fn()
	return nil
}
