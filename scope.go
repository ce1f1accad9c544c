package refarena

import (
	"time"

	"github.com/hupe1980/refarena/internal/region"
)

// Scope is a handle to an open arena, bound to its depth on the stack.
// While it is the top of the stack, every Alloc of a registered type is
// carved from its region. After Exit the handle is permanently invalid for
// allocation and access, but the read-only accessors keep working.
type Scope struct {
	reg   *region.Region
	depth int
	alloc *Allocator
}

// ScopeStats is a snapshot of a scope's region usage.
type ScopeStats struct {
	Capacity int64  // fixed capacity in bytes
	Reserved int64  // bytes mapped from the OS
	Used     int64  // bytes carved, including alignment padding
	Padding  int64  // alignment padding share of Used
	Chunks   int    // chunks currently mapped
	Allocs   uint64 // cumulative allocation count
	Live     int64  // instances whose reference count is still positive
}

// Enter opens a scope with a fixed capacity in bytes and pushes it onto the
// stack. Chunk memory is mapped lazily as allocations arrive.
func (a *Allocator) Enter(capacity int64) (*Scope, error) {
	if a.closed {
		return nil, ErrAllocatorClosed
	}

	reg, err := region.New(capacity,
		region.WithChunkSize(a.chunkSize),
		region.WithController(a.ctrl),
	)
	if err != nil {
		return nil, translateError(err)
	}

	sc := &Scope{
		reg:   reg,
		depth: len(a.stack) + 1,
		alloc: a,
	}
	a.stack = append(a.stack, sc)

	a.metrics.RecordScopeEnter(capacity)
	a.logger.LogScopeEnter(sc.depth, capacity)

	return sc, nil
}

// Exit closes the scope and releases its chunks in one bulk operation,
// without visiting individual instances. The handle must be the current top
// of the stack: exiting an outer scope while an inner one is open is a
// *ScopeNestingError. Exiting a scope twice returns ErrScopeClosed.
//
// Arena-tagged instances whose reference count never reached zero are
// reported through the logger: any heap references they still hold were
// never released.
func (a *Allocator) Exit(sc *Scope) error {
	if sc == nil {
		return ErrNilScope
	}
	if sc.reg.Closed() {
		return ErrScopeClosed
	}
	if n := len(a.stack); n == 0 || a.stack[n-1] != sc {
		top := 0
		if n > 0 {
			top = a.stack[n-1].depth
		}
		return &ScopeNestingError{Depth: sc.depth, Top: top}
	}

	a.stack = a.stack[:len(a.stack)-1]

	live := sc.reg.LiveObjects()
	stats := sc.reg.Stats()

	start := time.Now()
	err := sc.reg.Close()

	a.metrics.RecordScopeExit(live, time.Since(start), err)
	a.logger.LogScopeExit(sc.depth, live, stats.Used, stats.Chunks, err)

	return err
}

// Do runs fn inside a freshly entered scope and guarantees the scope is
// exited on every path out of fn, including panics. The first error of
// fn and Exit wins.
func (a *Allocator) Do(capacity int64, fn func(*Scope) error) (err error) {
	sc, err := a.Enter(capacity)
	if err != nil {
		return err
	}

	defer func() {
		if eerr := a.Exit(sc); eerr != nil && err == nil {
			err = eerr
		}
	}()

	return fn(sc)
}

// Depth returns the scope's 1-based depth on the stack.
func (s *Scope) Depth() int {
	return s.depth
}

// Closed reports whether the scope has been exited.
func (s *Scope) Closed() bool {
	return s.reg.Closed()
}

// Capacity returns the fixed capacity in bytes.
func (s *Scope) Capacity() int64 {
	return s.reg.Capacity()
}

// Used returns the bytes carved so far, including alignment padding.
func (s *Scope) Used() int64 {
	return s.reg.Used()
}

// Remaining returns the bytes still available.
func (s *Scope) Remaining() int64 {
	return s.reg.Remaining()
}

// Chunks returns the number of chunks currently mapped.
func (s *Scope) Chunks() int {
	return s.reg.Chunks()
}

// LiveObjects returns the number of instances in this scope whose reference
// count has not reached zero.
func (s *Scope) LiveObjects() int64 {
	return s.reg.LiveObjects()
}

// Stats returns a snapshot of the scope's region usage.
func (s *Scope) Stats() ScopeStats {
	st := s.reg.Stats()
	return ScopeStats{
		Capacity: st.Capacity,
		Reserved: st.Reserved,
		Used:     st.Used,
		Padding:  st.Padding,
		Chunks:   st.Chunks,
		Allocs:   st.Allocs,
		Live:     st.Live,
	}
}

func (s *Scope) String() string {
	return s.reg.String()
}
