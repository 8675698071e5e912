package kmalloc

import (
	"testing"
	"unsafe"

	"minios/kernel/mem"
)

func newTestHeap(t *testing.T, size mem.Size) *Heap {
	t.Helper()
	backing := make([]byte, size+64) // slack for alignment rounding
	h := &Heap{}
	h.Init(uintptr(unsafe.Pointer(&backing[0])), size)
	return h
}

func TestAllocReturnsAlignedNonOverlappingBlocks(t *testing.T) {
	h := newTestHeap(t, 4*mem.Kb)

	a, err := h.Alloc(32, 8)
	if err != nil {
		t.Fatalf("alloc a: %v", err)
	}
	b, err := h.Alloc(32, 8)
	if err != nil {
		t.Fatalf("alloc b: %v", err)
	}

	if a%MinAlign != 0 || b%MinAlign != 0 {
		t.Fatalf("blocks not aligned to %d: a=%x b=%x", MinAlign, a, b)
	}
	if a == b {
		t.Fatalf("alloc returned the same address twice")
	}
	if b >= a && b < a+32 {
		t.Fatalf("blocks overlap: a=%x b=%x", a, b)
	}
}

func TestFreeRecyclesBlock(t *testing.T) {
	h := newTestHeap(t, 4*mem.Kb)

	a, err := h.Alloc(64, 16)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	h.Free(a)

	b, err := h.Alloc(64, 16)
	if err != nil {
		t.Fatalf("realloc: %v", err)
	}
	if a != b {
		t.Fatalf("free did not recycle the block: first=%x second=%x", a, b)
	}
}

func TestAllocFailsOnceHeapExhausted(t *testing.T) {
	h := newTestHeap(t, 256)

	for i := 0; i < 1000; i++ {
		if _, err := h.Alloc(64, 16); err != nil {
			return
		}
	}
	t.Fatalf("expected OutOfMemory before 1000 allocations of a 256-byte heap")
}

func TestStatsReflectUsage(t *testing.T) {
	h := newTestHeap(t, 4*mem.Kb)
	capBefore, usedBefore := h.Stats()
	if capBefore != 4*mem.Kb {
		t.Fatalf("capacity = %d, want %d", capBefore, 4*mem.Kb)
	}

	if _, err := h.Alloc(100, 16); err != nil {
		t.Fatalf("alloc: %v", err)
	}
	_, usedAfter := h.Stats()
	if usedAfter <= usedBefore {
		t.Fatalf("used did not increase after alloc")
	}
}
