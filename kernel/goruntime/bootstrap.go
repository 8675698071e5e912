// Package goruntime redirects the Go runtime's low-level memory allocator
// entry points (runtime.sysReserve/sysMap/sysAlloc) onto kernel/mem/vmm and
// kernel/mem/pmm, the same way the platform-specific mmap/VirtualAlloc
// backends would on a hosted Go program. Without this, the runtime has no
// address space to allocate the Go heap from once it initializes.
package goruntime

import (
	"unsafe"

	"minios/kernel/kerror"
	"minios/kernel/mem"
	"minios/kernel/mem/pmm"
	"minios/kernel/mem/vmm"
)

// MapFn, FrameAllocFn are seams kernel/kmain sets once the address space and
// physical allocator it owns are up, mirroring the teacher's package-level
// `mapFn = vmm.Map` substitution — here as function-variable seams rather
// than direct package funcs, since kernel/mem/vmm's Map is a method on a
// caller-owned *AddressSpace instance, not a package-level function.
var (
	MapFn        func(page vmm.Page, frame pmm.Frame, flags vmm.PageTableEntryFlag) *kerror.Error
	FrameAllocFn func() (pmm.Frame, *kerror.Error)
)

// regionBase is the fixed virtual offset the runtime's own reservations are
// carved out of, kept well clear of kmain's directMapBase identity range so
// the two bump allocators can never collide.
const regionBase = 0xFFFF_C000_0000_0000

var reserveCursor uintptr = regionBase

// reserveRegion hands back size (rounded up to a page) bytes of unique,
// currently-unmapped virtual address space. It never maps anything; sysMap
// does that lazily once the runtime actually touches the pages.
func reserveRegion(size mem.Size) (uintptr, *kerror.Error) {
	aligned := mem.Size(size.Pages()) * mem.PageSize
	start := reserveCursor
	reserveCursor += uintptr(aligned)
	return start, nil
}

//go:linkname mSysStatInc runtime.mSysStatInc
func mSysStatInc(*uint64, uintptr)

// sysReserve reserves address space without allocating any memory or
// establishing any page mappings.
//
//go:redirect-from runtime.sysReserve
//go:nosplit
func sysReserve(_ unsafe.Pointer, size uintptr, reserved *bool) unsafe.Pointer {
	regionSize := (mem.Size(size) + mem.PageSize - 1) &^ (mem.PageSize - 1)
	start, err := reserveRegion(regionSize)
	if err != nil {
		panic(err)
	}

	*reserved = true
	return unsafe.Pointer(start)
}

// sysMap establishes a mapping for a region previously handed out by
// sysReserve. Unlike the teacher's copy-on-write zero-page trick (gopher-os
// ran entirely without a kernel heap underneath the Go allocator at this
// point in boot), MiniOS's kernel/kmalloc.Heap is already live by the time
// the Go runtime needs more address space, so sysMap maps real, immediately
// writable frames rather than a shared CoW zero page.
//
//go:redirect-from runtime.sysMap
//go:nosplit
func sysMap(virtAddr unsafe.Pointer, size uintptr, reserved bool, sysStat *uint64) unsafe.Pointer {
	if !reserved {
		panic("goruntime: sysMap called with reserved=false")
	}

	start := (uintptr(virtAddr) + uintptr(mem.PageSize-1)) &^ uintptr(mem.PageSize-1)
	regionSize := (mem.Size(size) + mem.PageSize - 1) &^ (mem.PageSize - 1)
	pages := regionSize.Pages()

	for i := uint32(0); i < pages; i++ {
		frame, err := FrameAllocFn()
		if err != nil {
			return unsafe.Pointer(uintptr(0))
		}
		page := vmm.PageFromAddress(start + uintptr(i)*uintptr(mem.PageSize))
		if err := MapFn(page, frame, vmm.FlagRW|vmm.FlagNoExecute); err != nil {
			return unsafe.Pointer(uintptr(0))
		}
	}

	mSysStatInc(sysStat, uintptr(regionSize))
	return unsafe.Pointer(start)
}

// sysAlloc reserves and maps a fresh region in one step, for callers (early
// runtime init) that have no previously-reserved region to grow into.
//
//go:redirect-from runtime.sysAlloc
//go:nosplit
func sysAlloc(size uintptr, sysStat *uint64) unsafe.Pointer {
	regionSize := (mem.Size(size) + mem.PageSize - 1) &^ (mem.PageSize - 1)
	start, err := reserveRegion(regionSize)
	if err != nil {
		return unsafe.Pointer(uintptr(0))
	}

	pages := regionSize.Pages()
	for i := uint32(0); i < pages; i++ {
		frame, ferr := FrameAllocFn()
		if ferr != nil {
			return unsafe.Pointer(uintptr(0))
		}
		page := vmm.PageFromAddress(start + uintptr(i)*uintptr(mem.PageSize))
		if err := MapFn(page, frame, vmm.FlagRW|vmm.FlagNoExecute); err != nil {
			return unsafe.Pointer(uintptr(0))
		}
	}

	mSysStatInc(sysStat, uintptr(regionSize))
	return unsafe.Pointer(start)
}
