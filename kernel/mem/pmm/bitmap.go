package pmm

import (
	"minios/kernel/kerror"
	"minios/kernel/mem"
	"minios/kernel/sync"
)

// maxFrames bounds the pool this allocator can address. 4 GiB of physical
// memory at 4 KiB pages is 1Mi frames; QEMU's virt/q35 machines used for
// teaching rarely exceed that, and a fixed bound keeps the bitmap itself in
// statically-reserved storage rather than a runtime-sized allocation (spec
// §4.1: "a small bookkeeping header reside in statically-reserved storage").
const maxFrames = 1 << 20

// bitmapWords is maxFrames worth of single-bit-per-frame state packed into
// 64-bit words.
const bitmapWords = maxFrames / 64

// Allocator is the bitmap-managed physical frame allocator described in spec
// §4.1. The zero value is not usable; call Init first.
type Allocator struct {
	lock sync.Spinlock

	// bitmap is pre-initialized to "all used" (every bit set) so that any
	// frame Init never hears about from an Available region stays
	// permanently reserved.
	bitmap [bitmapWords]uint64

	frameCount uint64
	freeCount  uint64
}

// errOutOfMemory/errInvalidFree are package-level so callers can compare
// against them without an allocation on the error path.
var (
	errOutOfMemory = kerror.FromErrno("pmm", kerror.ENOMEM)
	errInvalidFree = &kerror.Error{Module: "pmm", Message: "invalid free"}
)

// below1MiBFrames and the kernel image's own frame range are force-reserved
// per spec §4.1 regardless of what the memory map claims, since some x86-64
// boot paths hand off with those regions still marked Available.
const below1MiBFrames = (1 << 20) >> mem.PageShift

// Init prepares the allocator: every bit starts used, then the supplied
// Available regions are cleared to free, and finally the low-1MiB range and
// the kernel image's own frames are force-reserved again.
//
// kernelStartFrame/kernelEndFrame (inclusive) describe the frames occupied
// by the running kernel image; the caller computes these from linker
// symbols before calling Init.
func (a *Allocator) Init(visitAvailable func(func(base, length uint64) bool), kernelStartFrame, kernelEndFrame Frame) {
	for i := range a.bitmap {
		a.bitmap[i] = ^uint64(0)
	}

	visitAvailable(func(base, length uint64) bool {
		start := Frame(base >> mem.PageShift)
		end := Frame((base + length) >> mem.PageShift)
		for f := start; f < end && uint64(f) < maxFrames; f++ {
			a.clearBit(uint64(f))
		}
		return true
	})

	for f := Frame(0); f < below1MiBFrames; f++ {
		a.setBit(uint64(f))
	}
	for f := kernelStartFrame; f <= kernelEndFrame; f++ {
		a.setBit(uint64(f))
	}
	// Frame zero is never handed out (null-frame guard), independent of
	// whether the boot memory map happens to mark it Available.
	a.setBit(0)

	a.frameCount = maxFrames
	a.freeCount = a.countFree()
}

func (a *Allocator) countFree() uint64 {
	var free uint64
	for _, word := range a.bitmap {
		free += uint64(64 - popcount(word))
	}
	return free
}

func popcount(w uint64) int {
	n := 0
	for w != 0 {
		w &= w - 1
		n++
	}
	return n
}

func (a *Allocator) bitSet(i uint64) bool {
	return a.bitmap[i/64]&(1<<(i%64)) != 0
}

func (a *Allocator) setBit(i uint64) {
	a.bitmap[i/64] |= 1 << (i % 64)
}

func (a *Allocator) clearBit(i uint64) {
	a.bitmap[i/64] &^= 1 << (i % 64)
}

// Alloc reserves a contiguous run of pages frames aligned to alignment
// (expressed in frames; 1 means no alignment constraint beyond frame size).
// Ties are broken by lowest address, per spec §4.1.
func (a *Allocator) Alloc(pages uint32, alignment uint64) (Frame, *kerror.Error) {
	if pages == 0 {
		pages = 1
	}
	if alignment == 0 {
		alignment = 1
	}

	var found Frame
	var ok bool
	a.lock.Acquire()
	found, ok = a.findRun(pages, alignment)
	if ok {
		for f := found; f < found+Frame(pages); f++ {
			a.setBit(uint64(f))
		}
		a.freeCount -= uint64(pages)
	}
	a.lock.Release()

	if !ok {
		return InvalidFrame, errOutOfMemory
	}
	return found, nil
}

func (a *Allocator) findRun(pages uint32, alignment uint64) (Frame, bool) {
	run := uint64(0)
	runStart := uint64(0)
	for f := uint64(1); f < a.frameCount; f++ {
		if a.bitSet(f) {
			run = 0
			continue
		}
		if run == 0 {
			if f%alignment != 0 {
				continue
			}
			runStart = f
		}
		run++
		if run == uint64(pages) {
			return Frame(runStart), true
		}
	}
	return InvalidFrame, false
}

// Free returns a run of pages frames starting at frame to the pool. Freeing
// any frame not currently marked used fails with InvalidFree, including
// double-frees.
func (a *Allocator) Free(frame Frame, pages uint32) *kerror.Error {
	if pages == 0 {
		pages = 1
	}

	a.lock.Acquire()
	defer a.lock.Release()

	for f := frame; f < frame+Frame(pages); f++ {
		if uint64(f) >= a.frameCount || !a.bitSet(uint64(f)) {
			return errInvalidFree
		}
	}
	for f := frame; f < frame+Frame(pages); f++ {
		a.clearBit(uint64(f))
	}
	a.freeCount += uint64(pages)
	return nil
}

// AllocZeroed behaves like Alloc but additionally zeroes the returned run.
// The caller supplies toVirt to translate the physical frame to a currently
// mapped virtual address (the allocator has no mapping of its own); zeroing
// is opt-in per spec §4.1 ("zeroed only when the caller requests zeroing").
func (a *Allocator) AllocZeroed(pages uint32, alignment uint64, toVirt func(Frame) uintptr) (Frame, *kerror.Error) {
	f, err := a.Alloc(pages, alignment)
	if err != nil {
		return InvalidFrame, err
	}
	if toVirt != nil {
		mem.Memset(toVirt(f), 0, mem.PageSize*mem.Size(pages))
	}
	return f, nil
}

// FreeFrames returns the number of currently-unallocated frames.
func (a *Allocator) FreeFrames() uint64 {
	a.lock.Acquire()
	defer a.lock.Release()
	return a.freeCount
}

// TotalFrames returns the size of the addressable pool.
func (a *Allocator) TotalFrames() uint64 {
	return a.frameCount
}
