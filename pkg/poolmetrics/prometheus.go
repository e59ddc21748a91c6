// Package poolmetrics provides a Prometheus-backed implementation of
// respool.MetricsRecorder, registering the nine pool sink metrics through
// promauto the way this codebase's other collectors register theirs.
package poolmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder satisfies respool.MetricsRecorder by recording every
// pool lifecycle event into one of nine Prometheus collectors, namespaced
// per pool instance so multiple pools in one process don't collide.
type PrometheusRecorder struct {
	allocationSuccessLatency prometheus.Histogram
	allocationFailureLatency prometheus.Histogram
	resetLatency             prometheus.Histogram
	destroyLatency           prometheus.Histogram
	resourceLifetime         prometheus.Histogram
	idleDuration             prometheus.Histogram
	recycledTotal            prometheus.Counter
	fastPathTotal            prometheus.Counter
	slowPathTotal            prometheus.Counter
}

var latencyBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// NewPrometheusRecorder registers and returns a recorder for the named
// pool. namespace typically mirrors the pool's name (e.g. "pgpool",
// "s3pool") so metrics from distinct pools remain distinguishable.
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	return &PrometheusRecorder{
		allocationSuccessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "allocation_success_latency_seconds",
			Help:      "Latency of allocator calls that returned a resource.",
			Buckets:   latencyBuckets,
		}),
		allocationFailureLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "allocation_failure_latency_seconds",
			Help:      "Latency of allocator calls that returned an error.",
			Buckets:   latencyBuckets,
		}),
		resetLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "reset_latency_seconds",
			Help:      "Latency of the release handler invoked on every release.",
			Buckets:   latencyBuckets,
		}),
		destroyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "destroy_latency_seconds",
			Help:      "Latency of the destroy handler invoked on eviction or shutdown.",
			Buckets:   latencyBuckets,
		}),
		resourceLifetime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "resource_lifetime_seconds",
			Help:      "Age of a resource, from allocation to destroy.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
		idleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "idle_duration_seconds",
			Help:      "Time a resource spent idle before being recycled to a new borrower.",
			Buckets:   latencyBuckets,
		}),
		recycledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "recycled_total",
			Help:      "Idle resources handed to a waiting borrower without reallocation.",
		}),
		fastPathTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "fast_path_total",
			Help:      "Recycles matched to a borrower by affinity key.",
		}),
		slowPathTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "slow_path_total",
			Help:      "Recycles matched to a borrower with no affinity match.",
		}),
	}
}

func (r *PrometheusRecorder) RecordAllocationSuccess(d time.Duration) {
	r.allocationSuccessLatency.Observe(d.Seconds())
}

func (r *PrometheusRecorder) RecordAllocationFailure(d time.Duration) {
	r.allocationFailureLatency.Observe(d.Seconds())
}

func (r *PrometheusRecorder) RecordReset(d time.Duration) {
	r.resetLatency.Observe(d.Seconds())
}

func (r *PrometheusRecorder) RecordDestroy(d time.Duration) {
	r.destroyLatency.Observe(d.Seconds())
}

func (r *PrometheusRecorder) RecordLifetimeOnDestroy(d time.Duration) {
	r.resourceLifetime.Observe(d.Seconds())
}

func (r *PrometheusRecorder) RecordIdleDurationOnRecycle(d time.Duration) {
	r.idleDuration.Observe(d.Seconds())
}

func (r *PrometheusRecorder) RecordRecycled() { r.recycledTotal.Inc() }
func (r *PrometheusRecorder) RecordFastPath() { r.fastPathTotal.Inc() }
func (r *PrometheusRecorder) RecordSlowPath() { r.slowPathTotal.Inc() }
