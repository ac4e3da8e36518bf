package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatio_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// SideEffectFailures counts detached notification and audit writes that failed.
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatio_side_effect_failures_total",
		Help: "Total number of failed best-effort side effects by kind",
	}, []string{"kind"})

	// CachePurgeErrors counts cache invalidations that could not be applied.
	CachePurgeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avatio_cache_purge_errors_total",
		Help: "Total number of failed cache purges",
	})

	// SweepObjects counts reconciled objects by namespace and outcome.
	SweepObjects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatio_sweep_objects_total",
		Help: "Objects examined by the unused-image sweep by namespace and outcome",
	}, []string{"namespace", "outcome"})

	// SweepDuration records how long a sweep run took.
	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "avatio_sweep_duration_seconds",
		Help:    "Duration of unused-image sweep runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	// WebSocketConnectionsTotal is the gauge of open notification streams.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "avatio_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatio_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// ObserveSweep records the duration of a sweep started at start.
func ObserveSweep(dryRun bool, start time.Time) {
	mode := "delete"
	if dryRun {
		mode = "dry_run"
	}
	SweepDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
