// Package metrics bundles the Prometheus instruments for the geofence
// service and provides nil-safe recording helpers so instrumented code
// never has to branch on whether metrics are wired.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/freshkart/geofence/internal/model"
)

// Collector holds the service's Prometheus instruments.
type Collector struct {
	ReadinessChecks *prometheus.CounterVec
	CheckDuration   prometheus.Histogram
	ZoneCacheHits   prometheus.Counter
	ZoneCacheMisses prometheus.Counter
}

// New registers the geofence metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		ReadinessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readiness_checks_total",
			Help: "Total readiness checks, labeled by terminal status.",
		}, []string{"status"}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "readiness_check_duration_seconds",
			Help:    "End-to-end readiness check latency in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		}),
		ZoneCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zone_cache_hits_total",
			Help: "Active-zone snapshot reads served from Redis.",
		}),
		ZoneCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zone_cache_misses_total",
			Help: "Active-zone snapshot reads that fell through to PostgreSQL.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.ReadinessChecks, c.CheckDuration, c.ZoneCacheHits, c.ZoneCacheMisses,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveCheck records one finished readiness check. Safe on a nil receiver.
func (c *Collector) ObserveCheck(status model.ReadinessStatus, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.ReadinessChecks.WithLabelValues(string(status)).Inc()
	c.CheckDuration.Observe(elapsed.Seconds())
}

// CacheHit records a zone-snapshot cache hit. Safe on a nil receiver.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.ZoneCacheHits.Inc()
}

// CacheMiss records a zone-snapshot cache miss. Safe on a nil receiver.
func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.ZoneCacheMisses.Inc()
}
