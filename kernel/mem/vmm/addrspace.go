package vmm

import (
	"minios/kernel/kerror"
	"minios/kernel/mem"
	"minios/kernel/mem/pmm"
)

// FrameAllocatorFn allocates a single physical frame, used when Map needs to
// instantiate an intermediate table that does not yet exist.
type FrameAllocatorFn func() (pmm.Frame, *kerror.Error)

var (
	// ErrAlreadyMapped is returned by Map when the target range overlaps
	// an existing mapping and the caller did not request Replace.
	ErrAlreadyMapped = &kerror.Error{Module: "vmm", Message: "already mapped"}
	// ErrNotMapped is returned by Unmap/Protect/Translate for a virtual
	// address with no current mapping.
	ErrNotMapped = &kerror.Error{Module: "vmm", Message: "not mapped"}
	// ErrHugePage is returned when a walk encounters a huge-page leaf at
	// an intermediate level; this core does not install them (spec
	// §4.2 scopes huge pages out) but must fail cleanly if it meets one.
	ErrHugePage = &kerror.Error{Module: "vmm", Message: "huge pages unsupported"}

	// physToVirt translates a physical frame into a virtual address this
	// code can dereference, backed by the direct map kmain establishes
	// during early boot (see package doc in page.go). Defaults to an
	// identity function so unit tests can exercise table walking against
	// plain heap-allocated "frames".
	physToVirt = func(f pmm.Frame) uintptr { return f.Address() }
)

// SetPhysToVirt installs the direct-map translation function. Called once
// by kmain after the direct map is established.
func SetPhysToVirt(fn func(pmm.Frame) uintptr) {
	physToVirt = fn
}

func tableEntry(tableFrame pmm.Frame, index uintptr) *pageTableEntry {
	base := physToVirt(tableFrame)
	return (*pageTableEntry)(unsafePointerAdd(base, index*8))
}

// AddressSpace is one architecture page table hierarchy: the kernel's own,
// or one per task's user half. Per spec §3, the kernel half is mapped
// identically in every AddressSpace; only the user half differs.
type AddressSpace struct {
	root pmm.Frame
}

// New allocates and zeroes a fresh top-level table, ready to receive
// mappings.
func New(alloc FrameAllocatorFn) (*AddressSpace, *kerror.Error) {
	root, err := alloc()
	if err != nil {
		return nil, err
	}
	mem.Memset(physToVirt(root), 0, mem.PageSize)
	return &AddressSpace{root: root}, nil
}

// FromActive wraps the currently active root table (used once at boot to
// describe the page tables the platform stub already installed).
func FromActive(root pmm.Frame) *AddressSpace {
	return &AddressSpace{root: root}
}

// Root returns the physical frame of this address space's top-level table.
func (as *AddressSpace) Root() pmm.Frame { return as.root }

// walk descends the table hierarchy for virtAddr, calling visit at every
// level. If create is true, missing intermediate tables are allocated and
// zeroed; if false, the walk stops (returning ErrNotMapped) the first time
// it meets an absent entry above the leaf level. visit returning false
// aborts the walk early without error.
func (as *AddressSpace) walk(virtAddr uintptr, create bool, alloc FrameAllocatorFn, visit func(level uint, pte *pageTableEntry) bool) *kerror.Error {
	tableFrame := as.root
	for level := uint(0); level < pageLevels; level++ {
		shift := pageLevelShifts[level]
		bits := pageLevelBits[level]
		index := (virtAddr >> shift) & ((1 << bits) - 1)
		pte := tableEntry(tableFrame, index)

		if !visit(level, pte) {
			return nil
		}

		if level == pageLevels-1 {
			break
		}

		if !pte.HasFlags(FlagPresent) {
			if !create {
				return ErrNotMapped
			}
			newFrame, err := alloc()
			if err != nil {
				return err
			}
			mem.Memset(physToVirt(newFrame), 0, mem.PageSize)
			*pte = 0
			pte.SetFrame(newFrame)
			pte.SetFlags(FlagPresent | FlagRW)
		} else if pte.HasFlags(FlagHugePage) {
			return ErrHugePage
		}

		tableFrame = pte.Frame()
	}

	return nil
}

// Map installs a mapping from page to frame with the given permissions.
// Overlapping an existing present mapping fails with ErrAlreadyMapped unless
// replace is true.
func (as *AddressSpace) Map(page Page, frame pmm.Frame, flags PageTableEntryFlag, alloc FrameAllocatorFn, replace bool) *kerror.Error {
	var conflict *kerror.Error
	err := as.walk(page.Address(), true, alloc, func(level uint, pte *pageTableEntry) bool {
		if level != pageLevels-1 {
			return true
		}
		if pte.HasFlags(FlagPresent) && !replace {
			conflict = ErrAlreadyMapped
			return false
		}
		*pte = 0
		pte.SetFrame(frame)
		pte.SetFlags(FlagPresent | flags)
		return true
	})
	if conflict != nil {
		return conflict
	}
	if err != nil {
		return err
	}
	flushTLBEntry(page.Address())
	return nil
}

// Unmap removes the mapping for page, invalidating the TLB for that range.
func (as *AddressSpace) Unmap(page Page) *kerror.Error {
	var notMapped *kerror.Error
	err := as.walk(page.Address(), false, nil, func(level uint, pte *pageTableEntry) bool {
		if level != pageLevels-1 {
			return true
		}
		if !pte.HasFlags(FlagPresent) {
			notMapped = ErrNotMapped
			return false
		}
		pte.ClearFlags(FlagPresent)
		return true
	})
	if notMapped != nil {
		return notMapped
	}
	if err != nil {
		return err
	}
	flushTLBEntry(page.Address())
	return nil
}

// Protect changes the permission bits of an existing mapping without
// unmapping it. FlagPresent is preserved regardless of whether the caller
// includes it in flags.
func (as *AddressSpace) Protect(page Page, flags PageTableEntryFlag) *kerror.Error {
	var notMapped *kerror.Error
	err := as.walk(page.Address(), false, nil, func(level uint, pte *pageTableEntry) bool {
		if level != pageLevels-1 {
			return true
		}
		if !pte.HasFlags(FlagPresent) {
			notMapped = ErrNotMapped
			return false
		}
		frame := pte.Frame()
		*pte = 0
		pte.SetFrame(frame)
		pte.SetFlags(FlagPresent | flags)
		return true
	})
	if notMapped != nil {
		return notMapped
	}
	if err != nil {
		return err
	}
	flushTLBEntry(page.Address())
	return nil
}

// Translate returns the physical address virtAddr currently maps to.
func (as *AddressSpace) Translate(virtAddr uintptr) (uintptr, *kerror.Error) {
	var phys uintptr
	var notMapped *kerror.Error
	err := as.walk(virtAddr, false, nil, func(level uint, pte *pageTableEntry) bool {
		if level != pageLevels-1 {
			return true
		}
		if !pte.HasFlags(FlagPresent) {
			notMapped = ErrNotMapped
			return false
		}
		offset := virtAddr & (uintptr(mem.PageSize) - 1)
		phys = pte.Frame().Address() + offset
		return true
	})
	if notMapped != nil {
		return 0, notMapped
	}
	if err != nil {
		return 0, err
	}
	return phys, nil
}

// Activate switches the CPU to this address space and flushes the TLB.
// Activation is atomic with respect to TLB state: switchAddressSpace (the
// arch-specific CR3/TTBR0 write) is itself the barrier.
func (as *AddressSpace) Activate() {
	switchAddressSpace(as.root.Address())
}

// IsActive reports whether this address space is the one currently loaded
// on the CPU.
func (as *AddressSpace) IsActive() bool {
	return activeAddressSpace() == as.root.Address()
}
