// package telemetry exposes Prometheus instrumentation for the sequencing engine.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	SortsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mixflow_sorts_total",
		Help: "Completed smart sorts by method tag",
	}, []string{"method"})

	QueueSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mixflow_queue_submitted_total",
		Help: "Verification tasks submitted to the queue",
	})
	QueueRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mixflow_queue_rejected_total",
		Help: "Queue admission rejections by reason",
	}, []string{"reason"})
	QueueDepthGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mixflow_queue_depth",
		Help: "Tasks waiting for a queue slot",
	})
	QueueRunningGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mixflow_queue_running",
		Help: "Tasks currently holding a queue slot",
	})
	QueueStressGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mixflow_queue_stress",
		Help: "1 while the queue is in stress mode",
	})

	VerificationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mixflow_verification_failures_total",
		Help: "Verification provider failures by class",
	}, []string{"class"})

	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mixflow_cache_hits_total",
		Help: "Identity cache hits by tier",
	}, []string{"tier"})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mixflow_cache_misses_total",
		Help: "Identity cache misses across both tiers",
	})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			SortsTotal,
			QueueSubmitted,
			QueueRejected,
			QueueDepthGauge,
			QueueRunningGauge,
			QueueStressGauge,
			VerificationFailures,
			CacheHits,
			CacheMisses,
		)
	})
	return promhttp.Handler()
}
