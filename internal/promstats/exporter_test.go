package promstats

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporterSanitizesDynamicMetricNames(t *testing.T) {
	exp := NewExporter("build", func() map[string]int64 {
		return map[string]int64{
			"Compile.CacheHit": 7,
			"LinkMs":           120,
		}
	})

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(exp))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			names[mf.GetName()] = m.GetGauge().GetValue()
		}
	}

	assert.Equal(t, float64(7), names["shardstat_build_compile_cachehit"])
	assert.Equal(t, float64(120), names["shardstat_build_linkms"])
}

func TestExporterHandlerServesMetrics(t *testing.T) {
	exp := NewExporter("", func() map[string]int64 {
		return map[string]int64{"Widgets": 3}
	})

	srv := httptest.NewServer(exp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
