package metrics

import "time"

// NoopRecorder is used when metrics are disabled.
type NoopRecorder struct{}

// NewNoopRecorder creates a new no-op recorder.
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) RecordCacheLookup(format string, hit bool) {}

func (n *NoopRecorder) RecordRender(format string, withLogo bool, success bool, elapsed time.Duration) {
}

var _ Recorder = (*NoopRecorder)(nil)
