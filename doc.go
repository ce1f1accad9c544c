// Package refarena provides a dual-mode memory allocator for
// reference-counted object graphs.
//
// Objects of registered types normally live on the Go heap and are torn
// down individually when their strong reference count reaches zero. Inside
// an open, capacity-bounded scope, construction is instead redirected to a
// region of pre-reserved mmap-backed chunks; when the scope exits, the
// whole region is released in one bulk operation, regardless of how many
// objects it holds or how deeply they reference each other. This makes
// deallocation of large, deeply-chained object graphs cheap and bounded.
//
// # Quick Start
//
//	type node struct {
//	    next refarena.Ref
//	    data [56]byte
//	}
//
//	func (n *node) Edges() []refarena.Ref { return []refarena.Ref{n.next} }
//
//	var nodeType = refarena.Register[node]()
//
//	a := refarena.New()
//	defer a.Close()
//
//	err := a.Do(64<<20, func(sc *refarena.Scope) error {
//	    head, _, err := refarena.Alloc(a, nodeType) // carved from the scope
//	    if err != nil {
//	        return err
//	    }
//	    // ... build the graph, then drop the last external reference:
//	    return a.Release(head)
//	}) // scope exit releases every chunk at once
//
// # Allocation Routing
//
// Alloc consults the scope stack exactly once, at construction: a non-empty
// stack routes the instance to the top scope's region (tag Arena), an empty
// stack falls through to an ordinary heap allocation (tag Heap). The tag is
// immutable. Types that never call Register cannot be routed to a region at
// all. An allocation that would exceed the scope's fixed capacity fails
// with ErrArenaOverflow — it is never silently redirected to the heap, so
// one bulk release reclaims every byte the scope owns.
//
// # Reference Counting
//
// Retain and Release adjust an instance's strong count. On decrement to
// zero, a heap-tagged instance releases its ownership edges and returns its
// storage to the general allocator; an arena-tagged instance releases its
// edges too (so heap-tagged targets are reclaimed promptly) but keeps its
// storage until the scope's bulk release. Teardown uses an explicit work
// list, so dropping a chain of any depth never exhausts the call stack.
//
// An arena-tagged instance must not hold a surviving strong reference to a
// heap-tagged instance past its scope's exit: bulk release never visits
// per-object fields, so such a heap instance stays pinned forever. Exit
// logs a warning when instances with positive counts remain.
//
// # Concurrency Model
//
// An Allocator (and every scope it opens) belongs to one goroutine; no
// operation is synchronized and reference counts are not atomic. Create one
// Allocator per goroutine. A shared Budget (WithSharedBudget) bounds the
// chunk memory of many allocators jointly.
//
// # Failure Detection
//
// Use of a closed scope's handle — allocation, Retain/Release, or payload
// access through Type.Value — is detected deterministically and returns
// ErrScopeClosed; reclaimed memory is never silently reused. Access to an
// individually released instance returns ErrReleased.
package refarena
