package vmm

import "minios/kernel/mem/pmm"

// pageTableEntry is one raw 64-bit slot in any level of the page table,
// addressed directly through the direct physical map (see page.go). Bit
// layout is architecture-specific; frameMask/encodeFlags/decodeFlags below
// are provided by entry_amd64.go or entry_arm64.go depending on build
// target.
type pageTableEntry uint64

// SetFrame installs frame as the physical target this entry points to
// (either a next-level table, or on a leaf entry, the mapped page),
// preserving any already-set flag bits.
func (pte *pageTableEntry) SetFrame(frame pmm.Frame) {
	*pte = (*pte &^ pageTableEntry(frameMask)) | pageTableEntry(uint64(frame)<<pageShift&frameMask)
}

// Frame returns the physical frame this entry points to.
func (pte pageTableEntry) Frame() pmm.Frame {
	return pmm.Frame((uint64(pte) & frameMask) >> pageShift)
}

// SetFlags ORs the hardware-encoded form of flags into the entry.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte |= pageTableEntry(encodeFlags(flags))
}

// ClearFlags clears the hardware-encoded form of flags from the entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte &^= pageTableEntry(encodeFlags(flags))
}

// HasFlags reports whether every bit of flags is set on this entry.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	want := encodeFlags(flags)
	return uint64(pte)&want == want
}

// Flags decodes the full architecture-agnostic flag set currently set on
// this entry.
func (pte pageTableEntry) Flags() PageTableEntryFlag {
	return decodeFlags(uint64(pte))
}

const pageShift = 12
