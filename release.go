package refarena

// Release decrements the instance's strong reference count. On decrement to
// zero the two allocation paths diverge:
//
//   - Heap-tagged: the instance's ownership edges are released and its
//     storage is returned to the general allocator immediately.
//   - Arena-tagged: the instance's storage stays mapped until the owning
//     scope's bulk release, but its ownership edges are still released now.
//     A bulk release never visits per-object fields, so this is the only
//     point where a heap-tagged target referenced from arena memory can be
//     reclaimed.
func (a *Allocator) Release(r Ref) error {
	if err := r.check(); err != nil {
		return err
	}

	r.hdr.refs--
	if r.hdr.refs > 0 {
		return nil
	}

	a.reap(r)
	return nil
}

// reap runs the decrement-to-zero cascade. It uses an explicit work list
// rather than recursion, so dropping a chain of any depth is stack-safe.
func (a *Allocator) reap(root Ref) {
	arena := root.InArena()
	reaped := 0

	work := []Ref{root}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		hdr := cur.hdr
		hdr.flags |= flagDead
		reaped++

		for _, e := range hdr.ti.edges(hdr.payload()) {
			if e.hdr == nil {
				continue
			}
			// Targets in an already-closed scope were reclaimed in bulk.
			if e.reg != nil && e.reg.Closed() {
				continue
			}
			if e.hdr.flags&flagDead != 0 {
				continue
			}
			e.hdr.refs--
			if e.hdr.refs == 0 {
				work = append(work, e)
			}
		}

		if hdr.flags&tagArena != 0 {
			// Storage is reclaimed by the owning scope's bulk release.
			cur.reg.NoteDead()
		} else {
			// Unpin: the cell becomes collectible.
			delete(a.live, hdr)
		}
	}

	a.metrics.RecordRelease(reaped, arena)
}
