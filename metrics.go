package refarena

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAlloc is called after each object construction.
	// bytes is the total carved or heap-allocated size (header included),
	// arena reports whether the object was placed in a scoped arena,
	// err is nil if successful.
	RecordAlloc(bytes int, arena bool, err error)

	// RecordRelease is called after a decrement-to-zero cascade completes.
	// reaped is the number of instances whose count reached zero in the
	// cascade, arena reports the tag of the instance that triggered it.
	RecordRelease(reaped int, arena bool)

	// RecordScopeEnter is called after a scope is opened.
	RecordScopeEnter(capacity int64)

	// RecordScopeExit is called after a scope is closed.
	// live is the number of instances still alive at exit,
	// duration is the time taken by the bulk release.
	RecordScopeExit(live int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAlloc(int, bool, error)                {}
func (NoopMetricsCollector) RecordRelease(int, bool)                     {}
func (NoopMetricsCollector) RecordScopeEnter(int64)                      {}
func (NoopMetricsCollector) RecordScopeExit(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AllocCount      atomic.Int64
	AllocBytes      atomic.Int64
	AllocErrors     atomic.Int64
	ArenaAllocs     atomic.Int64
	ReleaseCount    atomic.Int64
	ReleaseReaped   atomic.Int64
	ScopeEnters     atomic.Int64
	ScopeExits      atomic.Int64
	ScopeExitErrors atomic.Int64
	ScopeExitNanos  atomic.Int64
	LiveAtExit      atomic.Int64
}

// RecordAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlloc(bytes int, arena bool, err error) {
	b.AllocCount.Add(1)
	if err != nil {
		b.AllocErrors.Add(1)
		return
	}
	b.AllocBytes.Add(int64(bytes))
	if arena {
		b.ArenaAllocs.Add(1)
	}
}

// RecordRelease implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRelease(reaped int, arena bool) {
	b.ReleaseCount.Add(1)
	b.ReleaseReaped.Add(int64(reaped))
}

// RecordScopeEnter implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScopeEnter(capacity int64) {
	b.ScopeEnters.Add(1)
}

// RecordScopeExit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScopeExit(live int64, duration time.Duration, err error) {
	b.ScopeExits.Add(1)
	b.ScopeExitNanos.Add(duration.Nanoseconds())
	b.LiveAtExit.Add(live)
	if err != nil {
		b.ScopeExitErrors.Add(1)
	}
}
