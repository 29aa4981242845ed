package sctable

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// promstats provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordTableAccess is called after each table acquisition. hit is false
	// when the table was not resident, including callers that waited on a
	// load started by another caller.
	RecordTableAccess(hit bool, duration time.Duration, err error)

	// RecordLoad is called after each table read and parse.
	// size is the raw table size in bytes.
	RecordLoad(size int, duration time.Duration, err error)

	// RecordLookup is called after each point lookup.
	RecordLookup(found bool, duration time.Duration)

	// RecordEviction is called when a table leaves the cache.
	RecordEviction()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTableAccess(bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordLookup(bool, time.Duration)             {}
func (NoopMetricsCollector) RecordEviction()                              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AccessCount     atomic.Int64
	AccessHits      atomic.Int64
	AccessErrors    atomic.Int64
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	LoadBytes       atomic.Int64
	LoadTotalNanos  atomic.Int64
	LookupCount     atomic.Int64
	LookupFound     atomic.Int64
	LookupTotalNano atomic.Int64
	EvictionCount   atomic.Int64
}

// RecordTableAccess implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTableAccess(hit bool, _ time.Duration, err error) {
	b.AccessCount.Add(1)
	if hit {
		b.AccessHits.Add(1)
	}
	if err != nil {
		b.AccessErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(size int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadBytes.Add(int64(size))
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(found bool, duration time.Duration) {
	b.LookupCount.Add(1)
	b.LookupTotalNano.Add(duration.Nanoseconds())
	if found {
		b.LookupFound.Add(1)
	}
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction() {
	b.EvictionCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AccessCount:    b.AccessCount.Load(),
		AccessHits:     b.AccessHits.Load(),
		AccessErrors:   b.AccessErrors.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadBytes:      b.LoadBytes.Load(),
		LoadAvgNanos:   avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		LookupCount:    b.LookupCount.Load(),
		LookupFound:    b.LookupFound.Load(),
		LookupAvgNanos: avg(b.LookupTotalNano.Load(), b.LookupCount.Load()),
		EvictionCount:  b.EvictionCount.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AccessCount    int64
	AccessHits     int64
	AccessErrors   int64
	LoadCount      int64
	LoadErrors     int64
	LoadBytes      int64
	LoadAvgNanos   int64
	LookupCount    int64
	LookupFound    int64
	LookupAvgNanos int64
	EvictionCount  int64
}
