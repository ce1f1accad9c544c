package refarena

import (
	"errors"
	"fmt"

	"github.com/hupe1980/refarena/internal/region"
	"github.com/hupe1980/refarena/internal/resource"
)

var (
	// ErrArenaOverflow is returned when an allocation would exceed the
	// active scope's fixed capacity. The scope remains open; the caller can
	// release references and exit, or fall back to heap construction
	// outside the scope.
	ErrArenaOverflow = errors.New("arena capacity exceeded")

	// ErrMemoryBudget is returned when the memory budget configured via
	// WithMemoryLimit or WithSharedBudget would be exceeded.
	ErrMemoryBudget = errors.New("memory budget exceeded")

	// ErrScopeClosed is returned when a handle to a closed scope is used
	// for allocation, reference-count changes, or payload access.
	ErrScopeClosed = errors.New("scope is closed")

	// ErrReleased is returned when a reference to an already-released
	// object is used.
	ErrReleased = errors.New("object already released")

	// ErrNilRef is returned when a nil reference is used.
	ErrNilRef = errors.New("nil reference")

	// ErrNilScope is returned when a nil scope handle is exited.
	ErrNilScope = errors.New("nil scope")

	// ErrAllocatorClosed is returned when a closed Allocator is used.
	ErrAllocatorClosed = errors.New("allocator is closed")

	// ErrUnregistered is returned when a zero Type value is used.
	ErrUnregistered = errors.New("type not registered")
)

// ScopeNestingError indicates that a scope was exited out of order.
// An inner scope must close before an outer one; this is a programming
// error and is not recoverable automatically.
type ScopeNestingError struct {
	Depth int // depth of the scope being exited
	Top   int // depth of the current top of the stack
}

func (e *ScopeNestingError) Error() string {
	return fmt.Sprintf("scope nesting violation: exiting depth %d while depth %d is open", e.Depth, e.Top)
}

// ScopesOpenError indicates that an Allocator was closed while scopes were
// still open.
type ScopesOpenError struct {
	Open int
}

func (e *ScopesOpenError) Error() string {
	return fmt.Sprintf("allocator closed with %d scope(s) still open", e.Open)
}

// TypeMismatchError indicates that a typed accessor was used on a reference
// to an instance of a different registered type.
type TypeMismatchError struct {
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
}

// translateError maps internal package errors onto the public error surface.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var oe *region.OverflowError
	if errors.As(err, &oe) {
		return fmt.Errorf("%w: %w", ErrArenaOverflow, err)
	}
	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryBudget, err)
	}
	if errors.Is(err, region.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrScopeClosed, err)
	}

	return err
}
