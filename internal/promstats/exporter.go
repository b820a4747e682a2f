// Package promstats exports a counters.Typed[E] snapshot as Prometheus
// gauges whose names aren't known until Bind time. Rather than creating
// and caching one promauto Gauge per counter name the first time it's
// seen (which needs its own series map and staleness sweep, because
// Prometheus client-side metrics are normally created once and mutated
// in place), Exporter implements prometheus.Collector directly and
// re-derives the full metric set on every scrape from a caller-supplied
// snapshot function. That sidesteps ever needing to register or
// unregister a metric as the counter set changes shape between Bind
// calls.
package promstats

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter is a prometheus.Collector over a Statistics-shaped snapshot
// function. It is an "unchecked" collector: Describe intentionally sends
// nothing, which tells client_golang's registry to defer consistency
// checking to Collect time, since the metric names aren't fixed.
type Exporter struct {
	namespace string
	source    func() map[string]int64
}

var _ prometheus.Collector = (*Exporter)(nil)

// NewExporter builds an Exporter. namespace is prefixed onto every metric
// name after "shardstat_" (pass "" for none); source is called once per
// scrape and should be cheap — typically a Typed[E].Statistics(prefix)
// call.
func NewExporter(namespace string, source func() map[string]int64) *Exporter {
	return &Exporter{namespace: namespace, source: source}
}

// Describe intentionally sends no descriptors; see the package doc.
func (e *Exporter) Describe(chan<- *prometheus.Desc) {}

// Collect renders the current snapshot as gauge metrics.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	for name, value := range e.source() {
		desc := prometheus.NewDesc(e.metricName(name), "shardstat counter "+name, nil, nil)
		metric, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, float64(value))
		if err != nil {
			continue
		}
		ch <- metric
	}
}

func (e *Exporter) metricName(name string) string {
	sanitized := sanitizeMetricName(name)
	if e.namespace == "" {
		return "shardstat_" + sanitized
	}
	return "shardstat_" + sanitizeMetricName(e.namespace) + "_" + sanitized
}

func sanitizeMetricName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Handler returns an http.Handler serving e on a dedicated registry,
// isolated from the process-wide default registry so a scrape of
// counters never collides with ambient metrics like those in
// internal/snapshotstore.
func (e *Exporter) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(e)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
