package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder records metrics using Prometheus.
type PrometheusRecorder struct {
	cacheLookupsTotal *prometheus.CounterVec
	rendersTotal      *prometheus.CounterVec
	renderDuration    *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the collectors on the default registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	return NewPrometheusRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusRecorderWithRegistry registers the collectors on reg. Use this for testing.
func NewPrometheusRecorderWithRegistry(reg prometheus.Registerer) *PrometheusRecorder {
	cacheLookupsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qrblock_cache_lookups_total",
		Help: "Total cache path lookups",
	}, []string{"format", "result"})

	rendersTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qrblock_renders_total",
		Help: "Total QR code renders",
	}, []string{"format", "logo", "result"})

	renderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qrblock_render_duration_seconds",
		Help:    "Time spent rendering a QR code on a cache miss",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	reg.MustRegister(cacheLookupsTotal, rendersTotal, renderDuration)

	return &PrometheusRecorder{
		cacheLookupsTotal: cacheLookupsTotal,
		rendersTotal:      rendersTotal,
		renderDuration:    renderDuration,
	}
}

// RecordCacheLookup records a cache hit or miss.
func (p *PrometheusRecorder) RecordCacheLookup(format string, hit bool) {
	p.cacheLookupsTotal.WithLabelValues(format, result(hit, "hit", "miss")).Inc()
}

// RecordRender records a render attempt and its duration.
func (p *PrometheusRecorder) RecordRender(format string, withLogo bool, success bool, elapsed time.Duration) {
	p.rendersTotal.WithLabelValues(format, result(withLogo, "yes", "no"), result(success, "success", "failure")).Inc()
	p.renderDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

var _ Recorder = (*PrometheusRecorder)(nil)
