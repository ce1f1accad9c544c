package refarena

import (
	"github.com/hupe1980/refarena/internal/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	chunkSize        int
	memoryLimit      int64
	controller       *resource.Controller
}

// Option configures Allocator construction.
type Option func(*options)

// WithLogger configures the logger used for scope lifecycle events and
// leak warnings. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// allocations and scope lifecycle. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithChunkSize configures the chunk size used by scope regions.
// Larger chunks mean fewer mmap calls for big graphs; smaller chunks waste
// less tail slack for small scopes. Values <= 0 keep the default (1 MiB).
func WithChunkSize(size int) Option {
	return func(o *options) {
		o.chunkSize = size
	}
}

// WithMemoryLimit enforces a hard byte limit across every scope opened by
// this allocator. Chunk reservations beyond the limit fail with
// ErrMemoryBudget. A limit of 0 disables enforcement.
func WithMemoryLimit(limitBytes int64) Option {
	return func(o *options) {
		o.memoryLimit = limitBytes
	}
}

// WithSharedBudget makes this allocator draw chunk reservations from a
// budget shared with other allocators (one allocator per goroutine, one
// budget per process). Use NewBudget to create one.
func WithSharedBudget(b *Budget) Option {
	return func(o *options) {
		if b != nil {
			o.controller = b.ctrl
		}
	}
}

// Budget is a process-wide memory budget shared by multiple allocators.
type Budget struct {
	ctrl *resource.Controller
}

// NewBudget creates a shared memory budget with a hard byte limit.
// If limitBytes is 0, the budget only tracks usage.
func NewBudget(limitBytes int64) *Budget {
	return &Budget{ctrl: resource.NewController(limitBytes)}
}

// InUse returns the bytes currently reserved against the budget.
func (b *Budget) InUse() int64 {
	return b.ctrl.MemoryUsage()
}

// Limit returns the configured hard limit (0 if tracking only).
func (b *Budget) Limit() int64 {
	return b.ctrl.MemoryLimit()
}
