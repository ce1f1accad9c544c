package refarena

import (
	"errors"
	"unsafe"

	"github.com/hupe1980/refarena/internal/conv"
	"github.com/hupe1980/refarena/internal/region"
	"github.com/hupe1980/refarena/internal/resource"
)

// Allocator owns a stack of open scopes and the live set that pins
// heap-tagged instances until their reference count reaches zero.
//
// An Allocator is confined to one goroutine: none of its operations are
// synchronized, and a scope is a single-owner resource. Create one
// Allocator per goroutine; a shared memory Budget can bound them jointly.
type Allocator struct {
	stack []*Scope

	// live pins heap-tagged cells for the garbage collector. Arena memory
	// is invisible to the GC, so a heap instance referenced only from a
	// Ref field inside a region would otherwise be collected while its
	// reference count is still positive.
	live map[*header]any

	logger    *Logger
	metrics   MetricsCollector
	chunkSize int
	ctrl      *resource.Controller
	closed    bool
}

// New creates an Allocator with an empty scope stack.
func New(opts ...Option) *Allocator {
	o := options{
		logger:           NewLogger(nil),
		metricsCollector: NoopMetricsCollector{},
	}

	for _, opt := range opts {
		opt(&o)
	}

	ctrl := o.controller
	if ctrl == nil && o.memoryLimit > 0 {
		ctrl = resource.NewController(o.memoryLimit)
	}

	return &Allocator{
		live:      map[*header]any{},
		logger:    o.logger,
		metrics:   o.metricsCollector,
		chunkSize: o.chunkSize,
		ctrl:      ctrl,
	}
}

// Active returns the scope at the top of the stack, or nil when no scope
// is open. The top scope is the unique allocation target for registered
// types.
func (a *Allocator) Active() *Scope {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

// Depth returns the number of currently open scopes.
func (a *Allocator) Depth() int {
	return len(a.stack)
}

// Close tears down the allocator. Every scope must have been exited;
// otherwise a *ScopesOpenError is returned and nothing is released.
// Heap-tagged instances still alive are logged and unpinned, making them
// collectible. Close is idempotent.
func (a *Allocator) Close() error {
	if a.closed {
		return nil
	}
	if len(a.stack) > 0 {
		return &ScopesOpenError{Open: len(a.stack)}
	}
	if n := len(a.live); n > 0 {
		a.logger.Warn("heap objects still alive at allocator close", "live", n)
	}
	a.live = nil
	a.closed = true
	return nil
}

// Alloc constructs one instance of the registered type t. While a scope is
// open the instance is carved from the top region and tagged Arena; with an
// empty stack it is an ordinary heap allocation tagged Heap. The routing
// decision is made once, here, and is immutable for the instance's lifetime.
//
// The instance starts with a reference count of 1, owned by the caller.
// The returned pointer addresses the zeroed payload for initialization.
//
// A request that would exceed the active scope's capacity fails with
// ErrArenaOverflow; it is never silently redirected to the heap.
func Alloc[T any, PT Allocatable[T]](a *Allocator, t Type[T]) (Ref, *T, error) {
	if a.closed {
		return Ref{}, nil, ErrAllocatorClosed
	}
	if t.info == nil {
		return Ref{}, nil, ErrUnregistered
	}
	info := t.info

	if sc := a.Active(); sc != nil {
		total, err := conv.UintptrToInt(info.footprint())
		if err != nil {
			return Ref{}, nil, err
		}

		align := int(info.align)
		if align < region.DefaultAlignment {
			align = region.DefaultAlignment // header holds a pointer
		}

		b, err := sc.reg.Allocate(total, align)
		if err != nil {
			err = translateError(err)
			a.metrics.RecordAlloc(total, true, err)
			if errors.Is(err, ErrArenaOverflow) {
				a.logger.LogOverflow(sc.depth, err)
			}
			return Ref{}, nil, err
		}

		hdr := (*header)(unsafe.Pointer(&b[0]))
		hdr.ti = info
		hdr.refs = 1
		hdr.flags = tagArena
		sc.reg.NoteLive()

		a.metrics.RecordAlloc(total, true, nil)
		return Ref{hdr: hdr, reg: sc.reg}, (*T)(hdr.payload()), nil
	}

	c := &cell[T]{hdr: header{ti: info, refs: 1}}
	a.live[&c.hdr] = c

	a.metrics.RecordAlloc(int(unsafe.Sizeof(*c)), false, nil)
	return Ref{hdr: &c.hdr}, &c.val, nil
}

// Retain increments the instance's strong reference count.
func (a *Allocator) Retain(r Ref) error {
	if err := r.check(); err != nil {
		return err
	}
	r.hdr.refs++
	return nil
}

// Assign stores a strong reference to target in *field, retaining target
// and releasing the previous referent. Passing the nil Ref clears the
// field. Retain-before-release makes self-assignment safe.
func (a *Allocator) Assign(field *Ref, target Ref) error {
	if !target.IsNil() {
		if err := a.Retain(target); err != nil {
			return err
		}
	}

	old := *field
	*field = target

	if !old.IsNil() {
		return a.Release(old)
	}
	return nil
}
