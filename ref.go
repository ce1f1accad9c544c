package refarena

import (
	"github.com/hupe1980/refarena/internal/region"
)

// Ref is a handle to a reference-counted instance. The zero value is the
// nil reference.
//
// A Ref carries the owning region pointer outside arena memory, so validity
// checks against a closed scope never dereference reclaimed bytes.
type Ref struct {
	hdr *header
	reg *region.Region // nil for heap-tagged instances
}

// IsNil reports whether r is the nil reference.
func (r Ref) IsNil() bool {
	return r.hdr == nil
}

// InArena reports whether the instance was carved from a scoped arena.
// The tag is fixed at construction.
func (r Ref) InArena() bool {
	return r.reg != nil
}

// Live reports whether the instance can still be accessed: non-nil, its
// scope (if any) is open, and its reference count has not reached zero.
func (r Ref) Live() bool {
	return r.check() == nil
}

// check validates r for access. The closed-scope test must come first:
// after bulk release the header memory is unmapped.
func (r Ref) check() error {
	if r.hdr == nil {
		return ErrNilRef
	}
	if r.reg != nil && r.reg.Closed() {
		return ErrScopeClosed
	}
	if r.hdr.flags&flagDead != 0 {
		return ErrReleased
	}
	return nil
}
