// Package metrics provides application-level metrics collection using
// atomic counters. An instance is constructed per process and passed into
// the components that record to it; there is no global instance.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds run counters. Safe for concurrent use.
type Metrics struct {
	// Remote API metrics
	apiCallsTotal   atomic.Int64
	apiErrorsTotal  atomic.Int64
	apiLatencyNanos atomic.Int64

	// Per-provider API calls
	engineCalls    atomic.Int64
	condenserCalls atomic.Int64
	coingeckoCalls atomic.Int64

	// Cache metrics
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	// Snapshot metrics
	snapshotsWritten atomic.Int64
	snapshotsSkipped atomic.Int64
	snapshotsFailed  atomic.Int64
}

// Provider names accepted by RecordAPICall.
const (
	ProviderEngine    = "engine"
	ProviderCondenser = "condenser"
	ProviderCoinGecko = "coingecko"
)

// New returns a zeroed metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// RecordAPICall records a remote call with its duration and outcome.
func (m *Metrics) RecordAPICall(provider string, duration time.Duration, err error) {
	m.apiCallsTotal.Add(1)
	m.apiLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.apiErrorsTotal.Add(1)
	}

	switch provider {
	case ProviderEngine:
		m.engineCalls.Add(1)
	case ProviderCondenser:
		m.condenserCalls.Add(1)
	case ProviderCoinGecko:
		m.coingeckoCalls.Add(1)
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordSnapshot records a snapshot store outcome.
func (m *Metrics) RecordSnapshot(written, failed bool) {
	switch {
	case failed:
		m.snapshotsFailed.Add(1)
	case written:
		m.snapshotsWritten.Add(1)
	default:
		m.snapshotsSkipped.Add(1)
	}
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	APICallsTotal    int64
	APIErrorsTotal   int64
	EngineCalls      int64
	CondenserCalls   int64
	CoinGeckoCalls   int64
	CacheHits        int64
	CacheMisses      int64
	SnapshotsWritten int64
	SnapshotsSkipped int64
	SnapshotsFailed  int64
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		APICallsTotal:    m.apiCallsTotal.Load(),
		APIErrorsTotal:   m.apiErrorsTotal.Load(),
		EngineCalls:      m.engineCalls.Load(),
		CondenserCalls:   m.condenserCalls.Load(),
		CoinGeckoCalls:   m.coingeckoCalls.Load(),
		CacheHits:        m.cacheHits.Load(),
		CacheMisses:      m.cacheMisses.Load(),
		SnapshotsWritten: m.snapshotsWritten.Load(),
		SnapshotsSkipped: m.snapshotsSkipped.Load(),
		SnapshotsFailed:  m.snapshotsFailed.Load(),
	}
}

// APILatencyAvgMs returns the average remote call latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) APILatencyAvgMs() float64 {
	calls := m.apiCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.apiLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
// Returns 0 if no cache operations have occurred.
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
