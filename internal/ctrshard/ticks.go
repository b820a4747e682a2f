package ctrshard

import "time"

// A tick is one unit of time.Duration's underlying nanosecond clock. Go's
// monotonic clock (time.Since/time.Time.Sub) is already nanosecond
// resolution, so unlike platforms with a separate hardware tick counter,
// ticksPerNanosecond is trivially 1 here — but we keep the conversion as
// an explicit, named pair of pure functions rather than scattering int64(d)
// casts through the package, so a future platform-specific clock source
// could be dropped in without touching callers.
const ticksPerNanosecond = 1

// TicksToDuration converts a raw accumulated tick count into a
// nanosecond-precision Duration. Pure; used only at the reporting edge.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks / ticksPerNanosecond)
}

// DurationToTicks is the inverse of TicksToDuration. Callers measure
// elapsed time with time.Since(start) (which uses the monotonic reading
// embedded in a time.Time, never wall-clock) and convert the result here
// before handing it to a Matrix.
func DurationToTicks(d time.Duration) int64 {
	return int64(d) * ticksPerNanosecond
}
