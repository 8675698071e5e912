package pmm

import "testing"

func newTestAllocator() *Allocator {
	a := &Allocator{}
	a.Init(func(visit func(base, length uint64) bool) {
		visit(0, 64*1024*1024)
	}, 0, 0)
	return a
}

func TestAllocFreeRoundTrip(t *testing.T) {
	a := newTestAllocator()
	before := a.FreeFrames()

	f, err := a.Alloc(4, 1)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	if f == 0 {
		t.Fatalf("frame zero must never be allocated")
	}
	if a.FreeFrames() != before-4 {
		t.Fatalf("free count did not decrease by 4")
	}

	if err := a.Free(f, 4); err != nil {
		t.Fatalf("free failed: %v", err)
	}
	if a.FreeFrames() != before {
		t.Fatalf("post-free state does not equal pre-alloc state: got %d want %d", a.FreeFrames(), before)
	}
}

func TestDoubleFreeFails(t *testing.T) {
	a := newTestAllocator()
	f, err := a.Alloc(1, 1)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	if err := a.Free(f, 1); err != nil {
		t.Fatalf("first free failed: %v", err)
	}
	if err := a.Free(f, 1); err == nil {
		t.Fatalf("expected InvalidFree on double-free")
	}
}

func TestAllocAlignment(t *testing.T) {
	a := newTestAllocator()
	f, err := a.Alloc(2, 4)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	if uint64(f)%4 != 0 {
		t.Fatalf("frame %d is not 4-frame aligned", f)
	}
}

func TestNullFrameNeverAllocated(t *testing.T) {
	a := newTestAllocator()
	for i := 0; i < 1000; i++ {
		f, err := a.Alloc(1, 1)
		if err != nil {
			t.Fatalf("alloc %d failed: %v", i, err)
		}
		if f == 0 {
			t.Fatalf("frame zero was allocated")
		}
	}
}

func TestOutOfMemory(t *testing.T) {
	a := &Allocator{}
	a.Init(func(visit func(base, length uint64) bool) {
		visit(1<<20, 4096) // one page available, just above the force-reserved low 1 MiB
	}, 0, 0)

	if _, err := a.Alloc(1, 1); err != nil {
		t.Fatalf("expected the single free frame to be allocatable: %v", err)
	}
	if _, err := a.Alloc(1, 1); err == nil {
		t.Fatalf("expected OutOfMemory once the pool is exhausted")
	}
}

func TestKernelRangeReserved(t *testing.T) {
	a := &Allocator{}
	a.Init(func(visit func(base, length uint64) bool) {
		visit(0, 64*1024*1024)
	}, 10, 20)

	for f := Frame(10); f <= 20; f++ {
		if !a.bitSet(uint64(f)) {
			t.Fatalf("kernel frame %d was not reserved", f)
		}
	}
}
