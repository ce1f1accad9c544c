package refarena

import (
	"reflect"
	"sync"
	"unsafe"
)

// Allocatable is the capability a type opts into to become eligible for
// arena placement. Edges must report every strong reference held in the
// value's fields; the allocator calls it during decrement-to-zero teardown
// to release the ownership edges of the dying instance.
//
// Values of an allocatable type may be placed in off-heap arena memory,
// which the Go garbage collector does not scan. They must therefore not
// contain Go pointers (strings, slices, maps, pointers) — references to
// other managed objects are held as Ref fields and reported via Edges.
type Allocatable[T any] interface {
	*T

	Edges() []Ref
}

// Type describes a registered allocatable type. The zero value is invalid;
// obtain one from Register.
type Type[T any] struct {
	info *typeInfo
}

// typeInfo is the immutable per-type record captured at registration.
// Headers placed in off-heap memory point at it, and off-heap pointers are
// invisible to the garbage collector, so every typeInfo is interned in the
// package registry and lives for the lifetime of the process.
type typeInfo struct {
	name  string
	size  uintptr
	align uintptr
	edges func(unsafe.Pointer) []Ref
}

var (
	registryMu sync.Mutex
	registry   = map[reflect.Type]*typeInfo{}
)

// Register declares T allocatable, capturing its size and alignment once.
// Registering the same type again returns the same Type value. Typical use
// is a package-level variable next to the type definition:
//
//	type node struct {
//	    next refarena.Ref
//	    data [56]byte
//	}
//
//	func (n *node) Edges() []refarena.Ref { return []refarena.Ref{n.next} }
//
//	var nodeType = refarena.Register[node]()
func Register[T any, PT Allocatable[T]]() Type[T] {
	rt := reflect.TypeOf((*T)(nil)).Elem()

	registryMu.Lock()
	defer registryMu.Unlock()

	if info, ok := registry[rt]; ok {
		return Type[T]{info: info}
	}

	info := &typeInfo{
		name:  rt.String(),
		size:  rt.Size(),
		align: uintptr(rt.Align()),
		edges: func(p unsafe.Pointer) []Ref {
			return PT((*T)(p)).Edges()
		},
	}
	registry[rt] = info

	return Type[T]{info: info}
}

// Name returns the registered type's name.
func (t Type[T]) Name() string {
	if t.info == nil {
		return ""
	}
	return t.info.name
}

// Size returns the instance size in bytes (header excluded).
func (t Type[T]) Size() uintptr {
	if t.info == nil {
		return 0
	}
	return t.info.size
}

// Align returns the instance alignment in bytes.
func (t Type[T]) Align() uintptr {
	if t.info == nil {
		return 0
	}
	return t.info.align
}

// Value returns a pointer to the payload of r, validating that r is live,
// its scope (if any) is still open, and it refers to an instance of T.
// Access through a closed scope's handle or to a released instance is a
// detected error, never silent memory reuse.
func (t Type[T]) Value(r Ref) (*T, error) {
	if t.info == nil {
		return nil, ErrUnregistered
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	if r.hdr.ti != t.info {
		return nil, &TypeMismatchError{Want: t.info.name, Got: r.hdr.ti.name}
	}
	return (*T)(r.hdr.payload()), nil
}

// header precedes every instance's payload, both for heap cells and for
// region placements. The tag is fixed at construction and never changes.
type header struct {
	ti    *typeInfo
	refs  int32
	flags uint32
}

const (
	tagArena uint32 = 1 << 0 // storage carved from a scoped region
	flagDead uint32 = 1 << 1 // reference count reached zero
)

var headerSize = unsafe.Sizeof(header{})

func (h *header) payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(h), h.ti.payloadOffset())
}

// payloadOffset returns the payload's offset from the header, matching the
// field offset Go computes for cell[T] so that heap and arena placements
// share one layout.
func (ti *typeInfo) payloadOffset() uintptr {
	return alignUp(headerSize, ti.align)
}

// footprint returns the total carve size for one instance.
func (ti *typeInfo) footprint() uintptr {
	return ti.payloadOffset() + ti.size
}

func alignUp(n, a uintptr) uintptr {
	if a == 0 {
		return n
	}
	return (n + a - 1) &^ (a - 1)
}

// cell is the heap-path placement: an ordinary Go allocation pinned in the
// allocator's live set until its reference count reaches zero.
type cell[T any] struct {
	hdr header
	val T
}
