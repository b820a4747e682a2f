package counters

import (
	"sync/atomic"
	"time"

	"github.com/23skdu/shardstat/internal/ctrshard"
)

// Stopwatch is an acquired timing scope against one stopwatch counter.
// The zero value is not usable; obtain one via Handle.Start. Release must
// be called exactly once to commit the elapsed time and bump the call
// count; a second call is a harmless no-op rather than a double-add,
// since Go has no destructor to rely on for enforcing "exactly once" and
// a silently-ignored repeat release is safer than a silently-doubled one.
type Stopwatch struct {
	collection *Collection
	col        int
	name       string
	start      time.Time
	released   atomic.Bool
}

func newStopwatch(c *Collection, col int, name string) *Stopwatch {
	return &Stopwatch{collection: c, col: col, name: name, start: time.Now()}
}

// ElapsedSoFar returns the time elapsed since Start without releasing the
// scope, using the monotonic reading time.Since carries.
func (s *Stopwatch) ElapsedSoFar() time.Duration {
	return time.Since(s.start)
}

// Release commits the elapsed time (converted to ticks) into the
// counter's duration shard and adds one to its count shard, even if the
// elapsed time rounds to zero ticks — the call itself always counts.
func (s *Stopwatch) Release() error {
	if !s.released.CompareAndSwap(false, true) {
		return nil
	}
	elapsed := time.Since(s.start)
	var first error
	if elapsed > 0 {
		if err := s.collection.AddDuration(s.col, ctrshard.DurationToTicks(elapsed)); err != nil {
			first = err
		}
	}
	if err := s.collection.AddCount(s.col, 1); err != nil && first == nil {
		first = err
	}
	return first
}
