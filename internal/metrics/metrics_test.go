package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_CacheLookups(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWithRegistry(reg)

	rec.RecordCacheLookup("svg", true)
	rec.RecordCacheLookup("svg", true)
	rec.RecordCacheLookup("png", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.cacheLookupsTotal.WithLabelValues("svg", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.cacheLookupsTotal.WithLabelValues("png", "miss")))
}

func TestPrometheusRecorder_Renders(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWithRegistry(reg)

	rec.RecordRender("svg", true, true, 10*time.Millisecond)
	rec.RecordRender("png", false, false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.rendersTotal.WithLabelValues("svg", "yes", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.rendersTotal.WithLabelValues("png", "no", "failure")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "qrblock_render_duration_seconds")
}

func TestPrometheusRecorder_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusRecorderWithRegistry(reg)
	assert.Panics(t, func() { NewPrometheusRecorderWithRegistry(reg) })
}

func TestNoopRecorder(t *testing.T) {
	rec := NewNoopRecorder()
	rec.RecordCacheLookup("svg", true)
	rec.RecordRender("svg", false, true, time.Second)
}
