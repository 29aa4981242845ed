// Package promstats exports Reader metrics to Prometheus.
package promstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/sctable"
)

// Collector implements sctable.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency *prometheus.HistogramVec
	accesses  *prometheus.CounterVec
	loadBytes prometheus.Counter
	evictions prometheus.Counter
}

var _ sctable.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
// A nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sctable_operation_latency_seconds",
			Help:    "Latency of table operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		accesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sctable_table_accesses_total",
			Help: "Table acquisitions by cache outcome",
		}, []string{"result"}),
		loadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sctable_load_bytes_total",
			Help: "Raw bytes of successfully loaded tables",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sctable_evictions_total",
			Help: "Tables removed from the cache",
		}),
	}
	for _, m := range []prometheus.Collector{c.opLatency, c.accesses, c.loadBytes, c.evictions} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordTableAccess implements sctable.MetricsCollector.
func (c *Collector) RecordTableAccess(hit bool, d time.Duration, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	c.accesses.WithLabelValues(result).Inc()
	c.opLatency.WithLabelValues("table", status(err)).Observe(d.Seconds())
}

// RecordLoad implements sctable.MetricsCollector.
func (c *Collector) RecordLoad(size int, d time.Duration, err error) {
	if err == nil {
		c.loadBytes.Add(float64(size))
	}
	c.opLatency.WithLabelValues("load", status(err)).Observe(d.Seconds())
}

// RecordLookup implements sctable.MetricsCollector.
func (c *Collector) RecordLookup(found bool, d time.Duration) {
	s := "found"
	if !found {
		s = "not_found"
	}
	c.opLatency.WithLabelValues("lookup", s).Observe(d.Seconds())
}

// RecordEviction implements sctable.MetricsCollector.
func (c *Collector) RecordEviction() {
	c.evictions.Inc()
}
