// Package kmalloc implements the Heap component (spec §4.7): a small-object
// allocator above the page allocator. The policy is deliberately simple —
// bump allocation with a singly-linked free list recycling freed blocks —
// spec §4.7 only asks for correct alignment, no overlap, and bounds
// checking from the core implementation.
package kmalloc

import (
	"minios/kernel/kerror"
	"minios/kernel/mem"
	"minios/kernel/sync"
)

// MinAlign is the floor every returned pointer is aligned to, regardless of
// what the caller asks for. Spec §9/§4.7: ARM64's `str q` (128-bit NEON
// store) faults on anything less than 16-byte alignment, and that bug was
// real enough during early boot on one port to become a hard invariant
// rather than a tunable default.
const MinAlign = 16

// blockHeader precedes every block this allocator hands out (allocated or
// free). size is the usable size above the header; the free-list uses this
// memory itself to store the intrusive `next` pointer while a block is
// free, so Free never needs a separate bookkeeping allocation of its own.
type blockHeader struct {
	size uint64
	next uintptr // valid only while this block is in the free list
}

const headerSize = mem.Size(16) // keeps payloads starting at a 16-byte boundary given an aligned base

// Heap is a bump-with-free-list allocator over a single contiguous backing
// region reserved from the physical allocator at init.
type Heap struct {
	lock sync.Spinlock

	base, end, bump uintptr
	freeList        uintptr // address of the first free blockHeader, or 0
}

var (
	errOutOfMemory = kerror.FromErrno("kmalloc", kerror.ENOMEM)
)

// Init configures the heap to carve allocations out of [base, base+size).
// The caller (kernel/kmain) is responsible for having already mapped that
// range RW-NX via kernel/mem/vmm before calling this.
func (h *Heap) Init(base uintptr, size mem.Size) {
	h.base = alignUp(base, MinAlign)
	h.end = base + uintptr(size)
	h.bump = h.base
	h.freeList = 0
}

func alignUp(v uintptr, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}

// Alloc returns a pointer to a block of at least size bytes, aligned to
// max(align, MinAlign).
func (h *Heap) Alloc(size mem.Size, align uintptr) (uintptr, *kerror.Error) {
	if align < MinAlign {
		align = MinAlign
	}
	if size == 0 {
		size = 1
	}

	h.lock.Acquire()
	defer h.lock.Release()

	if ptr, ok := h.allocFromFreeList(size, align); ok {
		return ptr, nil
	}

	payloadAddr := alignUp(h.bump+uintptr(headerSize), align)
	headerAddr := payloadAddr - uintptr(headerSize)
	newBump := payloadAddr + uintptr(size)
	if newBump > h.end {
		return 0, errOutOfMemory
	}

	hdr := (*blockHeader)(ptrAt(headerAddr))
	hdr.size = uint64(size)
	h.bump = newBump

	return payloadAddr, nil
}

// allocFromFreeList performs a first-fit scan of the free list; a block
// bigger than requested is handed out whole rather than split, keeping
// this allocator's invariants (no overlap, correct alignment) trivial to
// maintain at the cost of some internal fragmentation, which is an
// acceptable trade for kernel-object-sized allocations.
func (h *Heap) allocFromFreeList(size mem.Size, align uintptr) (uintptr, bool) {
	var prev uintptr
	cur := h.freeList
	for cur != 0 {
		hdr := (*blockHeader)(ptrAt(cur))
		payloadAddr := cur + uintptr(headerSize)
		next := hdr.next

		if payloadAddr%align == 0 && mem.Size(hdr.size) >= size {
			if prev == 0 {
				h.freeList = next
			} else {
				(*blockHeader)(ptrAt(prev)).next = next
			}
			return payloadAddr, true
		}

		prev = cur
		cur = next
	}
	return 0, false
}

// Free returns the block starting at ptr (as returned by Alloc) to the free
// list.
func (h *Heap) Free(ptr uintptr) {
	if ptr == 0 {
		return
	}

	h.lock.Acquire()
	defer h.lock.Release()

	headerAddr := ptr - uintptr(headerSize)
	hdr := (*blockHeader)(ptrAt(headerAddr))
	hdr.next = h.freeList
	h.freeList = headerAddr
}

// Stats reports coarse usage for the `free` shell built-in.
func (h *Heap) Stats() (capacity, used mem.Size) {
	h.lock.Acquire()
	defer h.lock.Release()
	return mem.Size(h.end - h.base), mem.Size(h.bump - h.base)
}
