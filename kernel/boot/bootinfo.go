// Package boot implements the Boot Handoff component (spec §4.0/§6): it
// receives the architecture-agnostic BootInfo structure produced by the
// platform stub (Multiboot2 on x86-64, a UEFI stub on ARM64 — see
// kernel/hal/multiboot and kernel/hal/fdt for the adapters that translate
// each firmware's native format into this layout) and validates/normalizes
// it before anything else in the kernel runs.
package boot

import (
	"reflect"
	"unsafe"

	"minios/kernel/kerror"
)

// Magic is the required BootInfo.Magic value, the ASCII bytes "MiniOS\0\0"
// packed little-endian into a uint64.
const Magic uint64 = 0x00_00_53_4F_69_6E_69_4D

// SupportedVersion is the only BootInfo layout version this kernel accepts.
const SupportedVersion uint16 = 1

// Kind classifies a MemoryRegion.
type Kind uint32

// Region kinds, matching spec §3's MemoryRegion.kind enumeration.
const (
	Available Kind = iota
	Reserved
	AcpiReclaim
	BootloaderCode
	Framebuffer
)

func (k Kind) String() string {
	switch k {
	case Available:
		return "available"
	case Reserved:
		return "reserved"
	case AcpiReclaim:
		return "acpi-reclaim"
	case BootloaderCode:
		return "bootloader-code"
	case Framebuffer:
		return "framebuffer"
	default:
		return "unknown"
	}
}

// MemoryRegion describes one contiguous span of the physical address space.
type MemoryRegion struct {
	PhysBase uint64
	Length   uint64
	Kind     Kind
	Attr     uint32
}

// End returns the exclusive end address of the region.
func (r MemoryRegion) End() uint64 {
	return r.PhysBase + r.Length
}

// FramebufferDesc describes the optional linear framebuffer handed off by
// the platform stub.
type FramebufferDesc struct {
	PhysAddr uint64
	Width    uint32
	Height   uint32
	Pitch    uint32
	BPP      uint8
}

// rawHeader mirrors spec §6's wire layout exactly: it is the struct the
// platform stub writes before jumping to the kernel entry point.
type rawHeader struct {
	Magic             uint64
	Version           uint16
	Flags             uint16
	Reserved          uint32
	MemoryMapOffset   uint64
	MemoryMapLen      uint32
	MemoryMapStride   uint32
	FramebufferPhys   uint64
	FramebufferWidth  uint32
	FramebufferHeight uint32
	FramebufferPitch  uint32
	FramebufferBPP    uint8
	_                 [3]byte // padding to keep the struct naturally aligned
	CommandLineOffset uint64
	CommandLineLen    uint32
}

const flagHasFramebuffer = 1 << 0

// rawRegion mirrors spec §6's MemoryRegion wire entry.
type rawRegion struct {
	PhysBase uint64
	Length   uint64
	Kind     uint32
	Attr     uint32
}

// Info is the validated, normalized view of BootInfo the rest of the kernel
// codes against.
type Info struct {
	Version     uint16
	Regions     []MemoryRegion
	Framebuffer *FramebufferDesc
	CmdLine     string
}

var (
	errBadMagic    = &kerror.Error{Module: "boot", Message: "bad BootInfo magic"}
	errBadVersion  = &kerror.Error{Module: "boot", Message: "unsupported BootInfo version"}
	errBadOrdering = &kerror.Error{Module: "boot", Message: "memory map not sorted/overlapping"}
)

// Parse reads a BootInfo structure starting at ptr and validates it. A
// non-nil error here is, per spec §6, a reason to panic: a malformed
// BootInfo means the platform stub and kernel disagree about the ABI and
// nothing downstream can be trusted.
func Parse(ptr uintptr) (*Info, *kerror.Error) {
	hdr := (*rawHeader)(unsafe.Pointer(ptr))

	if hdr.Magic != Magic {
		return nil, errBadMagic
	}
	if hdr.Version != SupportedVersion {
		return nil, errBadVersion
	}

	info := &Info{Version: hdr.Version}

	if hdr.MemoryMapLen > 0 {
		regions := make([]MemoryRegion, 0, hdr.MemoryMapLen)
		base := ptr + uintptr(hdr.MemoryMapOffset)
		stride := uintptr(hdr.MemoryMapStride)
		for i := uint32(0); i < hdr.MemoryMapLen; i++ {
			raw := (*rawRegion)(unsafe.Pointer(base + uintptr(i)*stride))
			regions = append(regions, MemoryRegion{
				PhysBase: raw.PhysBase,
				Length:   raw.Length,
				Kind:     Kind(raw.Kind),
				Attr:     raw.Attr,
			})
		}

		if err := validateOrdering(regions); err != nil {
			return nil, err
		}
		info.Regions = regions
	}

	if hdr.Flags&flagHasFramebuffer != 0 {
		info.Framebuffer = &FramebufferDesc{
			PhysAddr: hdr.FramebufferPhys,
			Width:    hdr.FramebufferWidth,
			Height:   hdr.FramebufferHeight,
			Pitch:    hdr.FramebufferPitch,
			BPP:      hdr.FramebufferBPP,
		}
	}

	if hdr.CommandLineLen > 0 {
		cmdPtr := ptr + uintptr(hdr.CommandLineOffset)
		src := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
			Data: cmdPtr,
			Len:  int(hdr.CommandLineLen),
			Cap:  int(hdr.CommandLineLen),
		}))
		buf := make([]byte, hdr.CommandLineLen)
		copy(buf, src)
		info.CmdLine = string(buf)
	}

	return info, nil
}

// validateOrdering enforces spec §3's invariant: regions sorted ascending,
// non-overlapping.
func validateOrdering(regions []MemoryRegion) *kerror.Error {
	for i := 1; i < len(regions); i++ {
		prev, cur := regions[i-1], regions[i]
		if cur.PhysBase < prev.End() {
			return errBadOrdering
		}
	}
	return nil
}

// VisitAvailable calls fn for every Available region, in ascending address
// order, stopping early if fn returns false.
func (info *Info) VisitAvailable(fn func(MemoryRegion) bool) {
	for _, r := range info.Regions {
		if r.Kind != Available {
			continue
		}
		if !fn(r) {
			return
		}
	}
}
