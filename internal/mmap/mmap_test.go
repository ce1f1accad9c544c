package mmap

import (
	"errors"
	"testing"
)

func TestMapAnon(t *testing.T) {
	t.Run("basic mapping", func(t *testing.T) {
		m, err := MapAnon(4096)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer m.Close()

		if m.Size() != 4096 {
			t.Errorf("expected size=4096, got %d", m.Size())
		}

		b := m.Bytes()
		if len(b) != 4096 {
			t.Fatalf("expected length=4096, got %d", len(b))
		}

		// Anonymous mappings are zero-filled and writable.
		for i := range b {
			if b[i] != 0 {
				t.Fatalf("byte at index %d not zero: %d", i, b[i])
			}
		}
		b[0] = 0xAA
		if m.Bytes()[0] != 0xAA {
			t.Error("write did not stick")
		}
	})

	t.Run("invalid size", func(t *testing.T) {
		for _, size := range []int{0, -1} {
			if _, err := MapAnon(size); !errors.Is(err, ErrInvalidSize) {
				t.Errorf("size=%d: expected ErrInvalidSize, got %v", size, err)
			}
		}
	})

	t.Run("close idempotent", func(t *testing.T) {
		m, err := MapAnon(4096)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := m.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := m.Close(); err != nil {
			t.Fatalf("second close should be a no-op, got %v", err)
		}
		if m.Bytes() != nil {
			t.Error("expected nil bytes after close")
		}
	})

	t.Run("advise", func(t *testing.T) {
		m, err := MapAnon(4096)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer m.Close()

		if err := m.Advise(AccessSequential); err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		_ = m.Close()
		if err := m.Advise(AccessRandom); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}
