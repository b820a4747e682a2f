package counters

import "strings"

// Statistics flattens t into a plain name->value map suitable for
// embedding into a log line or a JSON response. Stopwatch columns are
// reported in milliseconds with an "Ms" suffix appended to their name;
// plain columns are reported as-is. If prefix is non-blank every key is
// "<prefix>.<name>" (or "<prefix>.<name>Ms").
func (t *Typed[E]) Statistics(prefix string) map[string]int64 {
	prefix = strings.TrimSpace(prefix)
	handles := t.Enumerate()
	out := make(map[string]int64, len(handles))
	for _, h := range handles {
		key := h.name
		if prefix != "" {
			key = prefix + "." + key
		}
		if h.kind == KindStopwatch {
			out[key+"Ms"] = h.Duration().Milliseconds()
		} else {
			out[key] = h.Value()
		}
	}
	return out
}
