package refarena

import (
	"testing"
)

func benchBuildChain(b *testing.B, a *Allocator, depth int) Ref {
	b.Helper()

	head, hv, err := Alloc(a, chainNodeType)
	if err != nil {
		b.Fatal(err)
	}

	prev := hv
	for i := 1; i < depth; i++ {
		cur, cv, err := Alloc(a, chainNodeType)
		if err != nil {
			b.Fatal(err)
		}
		if err := a.Assign(&prev.next, cur); err != nil {
			b.Fatal(err)
		}
		if err := a.Release(cur); err != nil {
			b.Fatal(err)
		}
		prev = cv
	}

	return head
}

// BenchmarkChainTeardown compares tearing down a linked chain via a single
// bulk release against individual reference-count-driven deallocation.
func BenchmarkChainTeardown(b *testing.B) {
	const depth = 10000

	b.Run("arena", func(b *testing.B) {
		a := New(WithLogger(NoopLogger()))
		defer a.Close()

		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			err := a.Do(16<<20, func(sc *Scope) error {
				head := benchBuildChain(b, a, depth)
				return a.Release(head)
			})
			if err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("heap", func(b *testing.B) {
		a := New(WithLogger(NoopLogger()))
		defer a.Close()

		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			head := benchBuildChain(b, a, depth)
			if err := a.Release(head); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkAlloc measures single-object construction on both paths.
func BenchmarkAlloc(b *testing.B) {
	b.Run("arena", func(b *testing.B) {
		a := New(WithLogger(NoopLogger()))
		defer a.Close()

		sc, err := a.Enter(1 << 30)
		if err != nil {
			b.Fatal(err)
		}
		defer func() { _ = a.Exit(sc) }()

		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, _, err := Alloc(a, leafType); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("heap", func(b *testing.B) {
		a := New(WithLogger(NoopLogger()))
		defer a.Close()

		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, _, err := Alloc(a, leafType); err != nil {
				b.Fatal(err)
			}
		}
	})
}
