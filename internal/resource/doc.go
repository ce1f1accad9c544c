// Package resource implements a process-wide memory budget controller.
//
// Scoped arenas reserve their chunk memory against a shared Controller so
// that many allocators (one per goroutine) can be held to a single hard
// limit. Acquisition is non-blocking and fail-fast: callers receive
// ErrMemoryLimitExceeded immediately instead of waiting, because an arena
// allocation site has no sensible way to block.
//
//	rc := resource.NewController(1 << 30) // 1 GiB limit
//
//	if err := rc.AcquireMemory(1024 * 1024); err != nil {
//	    // ErrMemoryLimitExceeded - caller decides retry/backoff
//	}
//	defer rc.ReleaseMemory(1024 * 1024)
//
// A nil *Controller is valid and enforces nothing, so callers never need a
// nil check before use.
package resource
