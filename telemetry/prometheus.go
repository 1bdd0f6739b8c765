package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter is a Sink backed by Prometheus counters, labeled per
// cache name so one exporter serves every cache in the process.
type PrometheusExporter struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	sets      *prometheus.CounterVec
	evictions *prometheus.CounterVec
}

// NewPrometheusExporter creates an exporter and registers its collectors
// with reg.
func NewPrometheusExporter(reg prometheus.Registerer) *PrometheusExporter {
	e := &PrometheusExporter{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
		sets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_sets_total",
				Help: "Total number of cache writes",
			},
			[]string{"cache"},
		),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_evictions_total",
				Help: "Total number of cache evictions",
			},
			[]string{"cache", "reason"},
		),
	}

	reg.MustRegister(e.hits, e.misses, e.sets, e.evictions)
	return e
}

// Record implements Sink.
func (e *PrometheusExporter) Record(event Event) {
	switch event.Operation {
	case OpHit:
		e.hits.WithLabelValues(event.CacheName).Inc()
	case OpMiss:
		e.misses.WithLabelValues(event.CacheName).Inc()
	case OpSet:
		e.sets.WithLabelValues(event.CacheName).Inc()
	case OpEvict:
		e.evictions.WithLabelValues(event.CacheName, string(event.Reason)).Inc()
	}
}
