// Package metrics records cache and render activity.
package metrics

import "time"

// Recorder is the port the renderer reports to. Implementations are
// PrometheusRecorder for production and NoopRecorder when metrics are disabled.
type Recorder interface {
	// RecordCacheLookup records whether a cache path already existed.
	RecordCacheLookup(format string, hit bool)

	// RecordRender records a completed or failed render.
	RecordRender(format string, withLogo bool, success bool, elapsed time.Duration)
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
