// Package mmap provides anonymous memory mappings for off-heap allocation.
//
// Region chunks are backed by anonymous mappings so that arena memory lives
// outside the Go garbage collector's view and can be returned to the
// operating system in a single unmap per chunk, independent of how many
// objects were carved from it.
//
// # Platform Support
//
// The package provides a unified API across platforms:
//
//   - Unix (Linux, macOS, BSD): Uses mmap(2) with madvise(2) for access hints
//   - Windows: Uses VirtualAlloc/VirtualFree (madvise is a no-op)
//
// # Thread Safety
//
// A Mapping is safe for concurrent read access. Close() is idempotent and
// protected by atomic operations. Callers must ensure no goroutines access
// Bytes() after Close() returns.
package mmap
