package counters

import (
	"fmt"
	"strings"
	"time"
)

// String renders every bound counter as one line of
// "name: value  HH:MM:SS.mmm" (the time column only present on
// stopwatches), for ad hoc debug dumps.
func (t *Typed[E]) String() string {
	var b strings.Builder
	for _, h := range t.Enumerate() {
		fmt.Fprintf(&b, "%-50s: %8d", h.name, h.Value())
		if h.kind == KindStopwatch {
			fmt.Fprintf(&b, "  %s", formatHMS(h.Duration()))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
