package region

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/refarena/internal/conv"
	"github.com/hupe1980/refarena/internal/mmap"
	"github.com/hupe1980/refarena/internal/resource"
)

const (
	// DefaultChunkSize is the default size of a chunk (1 MiB).
	DefaultChunkSize = 1024 * 1024
	// DefaultAlignment is the default memory alignment (8 bytes).
	DefaultAlignment = 8
)

var (
	// ErrClosed is returned when allocating from a closed region.
	ErrClosed = errors.New("region: closed")
	// ErrInvalidCapacity is returned when a region is created with a
	// non-positive capacity.
	ErrInvalidCapacity = errors.New("region: capacity must be positive")
	// ErrInvalidSize is returned for non-positive allocation sizes.
	ErrInvalidSize = errors.New("region: size must be positive")
	// ErrInvalidAlignment is returned when align is not a power of two.
	ErrInvalidAlignment = errors.New("region: alignment must be a power of two")
)

// OverflowError is returned when an allocation would exceed the region's
// fixed capacity. The region remains usable; the failed call leaves the
// used-bytes counter unchanged.
type OverflowError struct {
	Requested int64
	Used      int64
	Capacity  int64
}

func (e *OverflowError) Error() string {
	reqU64, _ := conv.Int64ToUint64(e.Requested)
	usedU64, _ := conv.Int64ToUint64(e.Used)
	capU64, _ := conv.Int64ToUint64(e.Capacity)
	return fmt.Sprintf("region: overflow: requested %s with %s of %s used",
		humanize.IBytes(reqU64), humanize.IBytes(usedU64), humanize.IBytes(capU64))
}

// Stats tracks region memory usage.
//
// Note on semantics:
//   - Reserved: total memory mapped from the OS
//   - Used: bytes handed out to allocations, including alignment padding
//   - Padding: the alignment padding share of Used
//   - Chunks: number of chunks currently mapped
//   - Allocs: cumulative allocation count
//   - Live: objects allocated minus objects marked dead (see NoteLive/NoteDead)
type Stats struct {
	Capacity int64
	Reserved int64
	Used     int64
	Padding  int64
	Chunks   int
	Allocs   uint64
	Live     int64
}

type chunk struct {
	mapping *mmap.Mapping
	data    []byte
	off     int
}

func (c *chunk) remaining() int {
	return len(c.data) - c.off
}

// Region owns a fixed-capacity sequence of mmap-backed chunks.
// It is not safe for concurrent use.
type Region struct {
	capacity  int64
	chunkSize int

	chunks  []*chunk
	used    int64
	padding int64
	allocs  uint64
	live    int64
	closed  bool

	reserved int64
	ctrl     *resource.Controller
}

// Option is a configuration option for a Region.
type Option func(*Region)

// WithChunkSize sets the chunk size. Values <= 0 keep the default.
func WithChunkSize(size int) Option {
	return func(r *Region) {
		if size > 0 {
			r.chunkSize = size
		}
	}
}

// WithController sets the process-wide memory budget controller.
// Chunk mappings are reserved against it and released on Close.
func WithController(ctrl *resource.Controller) Option {
	return func(r *Region) {
		r.ctrl = ctrl
	}
}

// New creates a Region with the given fixed capacity in bytes.
// No memory is mapped until the first allocation.
func New(capacity int64, opts ...Option) (*Region, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	r := &Region{
		capacity:  capacity,
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Allocate carves size bytes, aligned to align, from the region.
// If align <= 0, DefaultAlignment is used.
//
// A request that would push cumulative usage past the capacity fails with
// an *OverflowError and leaves the region unchanged; it never falls back to
// the general heap. The returned slice is zero-filled.
func (r *Region) Allocate(size, align int) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if align <= 0 {
		align = DefaultAlignment
	}
	if align&(align-1) != 0 {
		return nil, ErrInvalidAlignment
	}

	// Try the tail chunk first. Chunk bases are page-aligned, so aligning
	// the cursor aligns the address. When padding would break the capacity
	// bound, fall through: a fresh chunk needs no padding.
	if tail := r.tail(); tail != nil {
		pad := (align - tail.off%align) % align
		need := int64(pad) + int64(size)
		if tail.off+pad+size <= len(tail.data) && r.used+need <= r.capacity {
			out := tail.data[tail.off+pad : tail.off+pad+size : tail.off+pad+size]
			tail.off += pad + size
			r.used += need
			r.padding += int64(pad)
			r.allocs++
			return out, nil
		}
	}

	// A fresh chunk starts page-aligned, so no padding is needed.
	if r.used+int64(size) > r.capacity {
		return nil, &OverflowError{Requested: int64(size), Used: r.used, Capacity: r.capacity}
	}

	c, err := r.grow(size)
	if err != nil {
		return nil, err
	}

	out := c.data[:size:size]
	c.off = size
	r.used += int64(size)
	r.allocs++
	return out, nil
}

// grow maps a new chunk large enough for size bytes, bounded by the
// remaining capacity. The caller has already checked the capacity bound.
func (r *Region) grow(size int) (*chunk, error) {
	remaining := r.capacity - r.used

	chunkLen := int64(r.chunkSize)
	if chunkLen > remaining {
		chunkLen = remaining
	}
	if chunkLen < int64(size) {
		chunkLen = int64(size)
	}

	if err := r.ctrl.AcquireMemory(chunkLen); err != nil {
		return nil, fmt.Errorf("region: reserving chunk: %w", err)
	}

	m, err := mmap.MapAnon(int(chunkLen))
	if err != nil {
		r.ctrl.ReleaseMemory(chunkLen)
		return nil, fmt.Errorf("region: mapping chunk: %w", err)
	}

	// Allocation walks the chunk front to back exactly once.
	_ = m.Advise(mmap.AccessSequential)

	c := &chunk{mapping: m, data: m.Bytes()}
	r.chunks = append(r.chunks, c)
	r.reserved += chunkLen

	return c, nil
}

func (r *Region) tail() *chunk {
	if len(r.chunks) == 0 {
		return nil
	}
	return r.chunks[len(r.chunks)-1]
}

// Close releases every chunk's backing memory in one bulk pass and marks
// the region closed. It never visits individual allocations. Close is
// idempotent; the first error encountered while unmapping is returned.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	for _, c := range r.chunks {
		if err := c.mapping.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.data = nil
	}
	r.chunks = nil

	if r.reserved > 0 {
		r.ctrl.ReleaseMemory(r.reserved)
		r.reserved = 0
	}

	return firstErr
}

// Closed reports whether the region has been closed.
func (r *Region) Closed() bool {
	return r.closed
}

// Capacity returns the fixed capacity in bytes.
func (r *Region) Capacity() int64 {
	return r.capacity
}

// Used returns the bytes handed out, including alignment padding.
func (r *Region) Used() int64 {
	return r.used
}

// Remaining returns the bytes still available for allocation.
func (r *Region) Remaining() int64 {
	return r.capacity - r.used
}

// Chunks returns the number of chunks currently mapped.
func (r *Region) Chunks() int {
	return len(r.chunks)
}

// NoteLive records that an object was placed in the region.
func (r *Region) NoteLive() {
	r.live++
}

// NoteDead records that a region-resident object's reference count reached
// zero. Its storage stays mapped until Close.
func (r *Region) NoteDead() {
	r.live--
}

// LiveObjects returns the number of region-resident objects whose reference
// count has not reached zero.
func (r *Region) LiveObjects() int64 {
	return r.live
}

// Stats returns the current region statistics.
func (r *Region) Stats() Stats {
	return Stats{
		Capacity: r.capacity,
		Reserved: r.reserved,
		Used:     r.used,
		Padding:  r.padding,
		Chunks:   len(r.chunks),
		Allocs:   r.allocs,
		Live:     r.live,
	}
}

func (r *Region) String() string {
	capU64, _ := conv.Int64ToUint64(r.capacity)
	usedU64, _ := conv.Int64ToUint64(r.used)
	return fmt.Sprintf("Region{capacity: %s, used: %s, chunks: %d, allocs: %d, live: %d}",
		humanize.IBytes(capU64), humanize.IBytes(usedU64), len(r.chunks), r.allocs, r.live)
}
