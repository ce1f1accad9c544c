// Package region implements the Region Manager: a capacity-bounded memory
// region that hands out aligned slices from mmap-backed chunks and releases
// every chunk in one bulk operation on Close.
//
// # Concurrency Model
//
// A Region belongs to exactly one goroutine. None of its methods are
// synchronized; a scoped arena is a single-owner resource and sharing one
// across goroutines requires external synchronization. This is a deliberate
// departure from lock-free multi-writer arenas: the scope discipline makes
// the owner unique, so synchronization would only add cost.
//
// # Memory Management
//
// Chunks are mapped lazily, sized min(chunkSize, remaining capacity), and
// never reused for new allocations once abandoned. Allocation never falls
// back to the general heap: a request that would push cumulative usage past
// the fixed capacity fails with an OverflowError, preserving the invariant
// that every byte owned by the region is reclaimed by one bulk release.
package region
