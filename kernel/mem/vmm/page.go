// Package vmm implements the Address Space component (spec §4.2): 4-level,
// 4 KiB-granule page tables on both amd64 and arm64, with per-architecture
// encodings of the permission and cacheability bits hidden behind a common
// pageTableEntry abstraction (kernel/mem/vmm/entry_$GOARCH.go).
//
// Rather than gopher-os's x86-only recursive self-mapping trick (the last
// PML4 entry points back at the PML4 itself, giving every table a
// predictable virtual address without a physical-to-virtual map), MiniOS
// keeps a simple direct physical map: kmain identity-maps all of physical
// memory at a fixed offset during early boot (see kernel/kmain), and this
// package is handed that offset via SetPhysToVirt. A recursive mapping is
// an amd64-specific property of the top-level-table format; ARM64's
// TTBR0/TTBR1 split does not admit the same trick uniformly across both
// supported architectures, so a direct map is the one approach that is
// actually shared. This is a conscious deviation from the teacher,
// recorded in DESIGN.md.
package vmm

import "minios/kernel/mem"

// Page identifies a virtual page by index; page i covers
// [i*PageSize, (i+1)*PageSize).
type Page uintptr

// Address returns the virtual address this page starts at.
func (p Page) Address() uintptr {
	return uintptr(p) << mem.PageShift
}

// PageFromAddress returns the Page containing virtAddr, rounding down to the
// containing page if virtAddr is not page-aligned.
func PageFromAddress(virtAddr uintptr) Page {
	return Page(virtAddr >> mem.PageShift)
}
