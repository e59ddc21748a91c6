package respool

import "time"

// MetricsRecorder is the pool's metrics sink: nine hooks covering every
// latency and counter surfaced by the drain loop and the release path.
// poolmetrics.PrometheusRecorder is the production implementation; tests
// typically use a small fake that counts calls.
type MetricsRecorder interface {
	RecordAllocationSuccess(d time.Duration)
	RecordAllocationFailure(d time.Duration)
	RecordReset(d time.Duration)
	RecordDestroy(d time.Duration)
	RecordLifetimeOnDestroy(d time.Duration)
	RecordIdleDurationOnRecycle(d time.Duration)
	RecordRecycled()
	RecordFastPath()
	RecordSlowPath()
}

type noopRecorder struct{}

func (noopRecorder) RecordAllocationSuccess(time.Duration)    {}
func (noopRecorder) RecordAllocationFailure(time.Duration)    {}
func (noopRecorder) RecordReset(time.Duration)                {}
func (noopRecorder) RecordDestroy(time.Duration)              {}
func (noopRecorder) RecordLifetimeOnDestroy(time.Duration)    {}
func (noopRecorder) RecordIdleDurationOnRecycle(time.Duration) {}
func (noopRecorder) RecordRecycled()                          {}
func (noopRecorder) RecordFastPath()                          {}
func (noopRecorder) RecordSlowPath()                          {}

// NoopMetrics discards every recorded event. It is the default recorder
// when a Config leaves Metrics nil.
var NoopMetrics MetricsRecorder = noopRecorder{}
