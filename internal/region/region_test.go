package region

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/hupe1980/refarena/internal/resource"
)

func TestRegion_New(t *testing.T) {
	t.Run("valid capacity", func(t *testing.T) {
		r, err := New(4096)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer r.Close()

		if r.Capacity() != 4096 {
			t.Errorf("expected capacity=4096, got %d", r.Capacity())
		}
		if r.Chunks() != 0 {
			t.Errorf("expected no chunks before first allocation, got %d", r.Chunks())
		}
	})

	t.Run("invalid capacity", func(t *testing.T) {
		for _, capacity := range []int64{0, -1} {
			if _, err := New(capacity); !errors.Is(err, ErrInvalidCapacity) {
				t.Errorf("capacity=%d: expected ErrInvalidCapacity, got %v", capacity, err)
			}
		}
	})
}

func TestRegion_Allocate(t *testing.T) {
	t.Run("basic allocation", func(t *testing.T) {
		r, err := New(4096)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer r.Close()

		b, err := r.Allocate(100, 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(b) != 100 {
			t.Errorf("expected length=100, got %d", len(b))
		}

		// Verify zero-initialization
		for i, v := range b {
			if v != 0 {
				t.Fatalf("byte at index %d not zero: %d", i, v)
			}
		}

		if r.Used() != 100 {
			t.Errorf("expected used=100, got %d", r.Used())
		}
	})

	t.Run("invalid size", func(t *testing.T) {
		r, _ := New(4096)
		defer r.Close()

		for _, size := range []int{0, -1} {
			if _, err := r.Allocate(size, 8); !errors.Is(err, ErrInvalidSize) {
				t.Errorf("size=%d: expected ErrInvalidSize, got %v", size, err)
			}
		}
	})

	t.Run("invalid alignment", func(t *testing.T) {
		r, _ := New(4096)
		defer r.Close()

		if _, err := r.Allocate(8, 3); !errors.Is(err, ErrInvalidAlignment) {
			t.Errorf("expected ErrInvalidAlignment, got %v", err)
		}
	})

	t.Run("alignment", func(t *testing.T) {
		r, _ := New(4096)
		defer r.Close()

		for _, size := range []int{1, 3, 5, 7, 9, 15, 17} {
			b, err := r.Allocate(size, 8)
			if err != nil {
				t.Fatalf("allocation failed for size=%d: %v", size, err)
			}

			ptr := uintptr(unsafe.Pointer(&b[0]))
			if ptr%8 != 0 {
				t.Errorf("size=%d ptr=%x not aligned", size, ptr)
			}
		}
	})

	t.Run("fill to capacity", func(t *testing.T) {
		r, _ := New(1024, WithChunkSize(256))
		defer r.Close()

		for i := 0; i < 16; i++ {
			if _, err := r.Allocate(64, 8); err != nil {
				t.Fatalf("allocation %d failed: %v", i, err)
			}
		}
		if r.Used() != 1024 {
			t.Errorf("expected used=1024, got %d", r.Used())
		}
		if r.Remaining() != 0 {
			t.Errorf("expected remaining=0, got %d", r.Remaining())
		}
	})

	t.Run("multiple chunks", func(t *testing.T) {
		r, _ := New(4096, WithChunkSize(256))
		defer r.Close()

		for i := 0; i < 10; i++ {
			if _, err := r.Allocate(128, 8); err != nil {
				t.Fatalf("allocation %d failed: %v", i, err)
			}
		}
		if r.Chunks() <= 1 {
			t.Errorf("expected multiple chunks, got %d", r.Chunks())
		}
	})

	t.Run("oversize request spans its own chunk", func(t *testing.T) {
		r, _ := New(1<<20, WithChunkSize(256))
		defer r.Close()

		b, err := r.Allocate(1024, 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(b) != 1024 {
			t.Errorf("expected length=1024, got %d", len(b))
		}
	})
}

func TestRegion_Overflow(t *testing.T) {
	r, _ := New(256, WithChunkSize(128))
	defer r.Close()

	// Allocations 1..k-1 succeed.
	for i := 0; i < 4; i++ {
		if _, err := r.Allocate(64, 8); err != nil {
			t.Fatalf("allocation %d failed: %v", i, err)
		}
	}
	usedBefore := r.Used()

	// Allocation k exceeds the fixed capacity.
	_, err := r.Allocate(64, 8)

	var oe *OverflowError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OverflowError, got %v", err)
	}
	if oe.Requested != 64 || oe.Used != 256 || oe.Capacity != 256 {
		t.Errorf("unexpected overflow fields: %+v", oe)
	}

	// The failed call leaves the used-bytes counter unchanged.
	if r.Used() != usedBefore {
		t.Errorf("used changed across failed allocation: %d != %d", r.Used(), usedBefore)
	}

	// The region remains valid: close still succeeds.
	if err := r.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestRegion_Close(t *testing.T) {
	t.Run("bulk release", func(t *testing.T) {
		r, _ := New(4096, WithChunkSize(256))

		for i := 0; i < 10; i++ {
			if _, err := r.Allocate(128, 8); err != nil {
				t.Fatalf("allocation %d failed: %v", i, err)
			}
		}

		if err := r.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Closed() {
			t.Error("expected region to be closed")
		}
		if r.Chunks() != 0 {
			t.Errorf("expected no chunks after close, got %d", r.Chunks())
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		r, _ := New(4096)
		if _, err := r.Allocate(8, 8); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := r.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("second close should be a no-op, got %v", err)
		}
	})

	t.Run("allocate after close", func(t *testing.T) {
		r, _ := New(4096)
		_ = r.Close()

		if _, err := r.Allocate(8, 8); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}

func TestRegion_Controller(t *testing.T) {
	t.Run("budget enforced", func(t *testing.T) {
		ctrl := resource.NewController(1024)

		r, _ := New(1<<20, WithChunkSize(1024), WithController(ctrl))
		defer r.Close()

		if _, err := r.Allocate(512, 8); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ctrl.MemoryUsage() != 1024 {
			t.Errorf("expected 1024 reserved, got %d", ctrl.MemoryUsage())
		}

		// Second chunk would exceed the budget.
		if _, err := r.Allocate(1024, 8); !errors.Is(err, resource.ErrMemoryLimitExceeded) {
			t.Errorf("expected ErrMemoryLimitExceeded, got %v", err)
		}
	})

	t.Run("budget released on close", func(t *testing.T) {
		ctrl := resource.NewController(4096)

		r, _ := New(4096, WithChunkSize(1024), WithController(ctrl))
		if _, err := r.Allocate(512, 8); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := r.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ctrl.MemoryUsage() != 0 {
			t.Errorf("expected budget released, got %d", ctrl.MemoryUsage())
		}
	})
}

func TestRegion_LiveObjects(t *testing.T) {
	r, _ := New(4096)
	defer r.Close()

	r.NoteLive()
	r.NoteLive()
	r.NoteDead()

	if got := r.LiveObjects(); got != 1 {
		t.Errorf("expected 1 live object, got %d", got)
	}
}

func TestRegion_Stats(t *testing.T) {
	r, _ := New(4096, WithChunkSize(1024))
	defer r.Close()

	if _, err := r.Allocate(100, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Allocate(100, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := r.Stats()
	if stats.Allocs != 2 {
		t.Errorf("expected 2 allocs, got %d", stats.Allocs)
	}
	// Second allocation needs 4 bytes of padding to realign the cursor.
	if stats.Used != 204 {
		t.Errorf("expected used=204, got %d", stats.Used)
	}
	if stats.Padding != 4 {
		t.Errorf("expected padding=4, got %d", stats.Padding)
	}
	if stats.Reserved != 1024 {
		t.Errorf("expected reserved=1024, got %d", stats.Reserved)
	}
	if stats.Chunks != 1 {
		t.Errorf("expected 1 chunk, got %d", stats.Chunks)
	}
}
