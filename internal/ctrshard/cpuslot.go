package ctrshard

import (
	"runtime"
	"sync/atomic"
	_ "unsafe" // for go:linkname
)

// runtime_procPin/runtime_procUnpin give us the current P's id, which is a
// cheap best-effort "which logical CPU am I on" primitive: migration
// between the call and the subsequent atomic add is safe because the add
// itself is atomic. Same pin/unpin pair sync.Pool uses internally for its
// per-P private pools.
//
//go:linkname runtime_procPin runtime.procPin
func runtime_procPin() int

//go:linkname runtime_procUnpin runtime.procUnpin
func runtime_procUnpin()

// fallbackCounter drives the degraded slot-selection path used if procPin
// ever returns a value wildly out of range.
var fallbackCounter atomic.Uint64

// CurrentSlot returns a best-effort logical-CPU-derived index. The value is
// advisory only: callers always reduce it modulo Slots before indexing,
// and correctness never depends on two calls from the same goroutine
// returning the same slot.
func CurrentSlot() int {
	pid := runtime_procPin()
	runtime_procUnpin()
	if pid < 0 || pid >= 1<<20 {
		// Platforms/runtimes where procPin's contract changes under us:
		// degrade to a round-robin counter bounded by GOMAXPROCS. This
		// biases distribution (many callers may land on the same slot)
		// but every add is still a single atomic fetch-add, so the sum
		// stays exact and only contention gets worse.
		n := uint64(runtime.GOMAXPROCS(0))
		if n == 0 {
			n = 1
		}
		return int(fallbackCounter.Add(1) % n)
	}
	return pid
}
