// Package multiboot adapts the Multiboot2 information structure GRUB leaves
// behind on x86-64 into the architecture-agnostic kernel/boot.Info the rest
// of the kernel codes against (spec §6: "a thin per-bootloader adapter
// translates its native format into BootInfo before the generic kernel path
// ever runs").
package multiboot

import (
	"reflect"
	"unsafe"

	"minios/kernel/boot"
	"minios/kernel/kerror"
)

// Multiboot2 tag types this adapter understands; see the Multiboot2
// specification §3.6 for the full list.
const (
	tagEnd          = 0
	tagCmdLine      = 1
	tagMemoryMap    = 6
	tagFramebuffer  = 8
	mmapEntryAvail  = 1
	mmapEntryAcpiRc = 3
)

type tagHeader struct {
	Type uint32
	Size uint32
}

type mmapTag struct {
	tagHeader
	EntrySize    uint32
	EntryVersion uint32
}

type mmapEntry struct {
	BaseAddr uint64
	Length   uint64
	Type     uint32
	Reserved uint32
}

type framebufferTag struct {
	tagHeader
	Addr      uint64
	Pitch     uint32
	Width     uint32
	Height    uint32
	BPP       uint8
	FBType    uint8
	_         uint8
}

var errBadTotalSize = &kerror.Error{Module: "multiboot", Message: "multiboot2 info total_size is implausible"}

// Parse walks the Multiboot2 info structure at addr (the physical address
// GRUB leaves in EBX at kernel entry) and produces a normalized boot.Info.
func Parse(addr uintptr) (*boot.Info, *kerror.Error) {
	totalSize := *(*uint32)(unsafe.Pointer(addr))
	if totalSize < 8 || totalSize > 16*1024*1024 {
		return nil, errBadTotalSize
	}

	info := &boot.Info{Version: boot.SupportedVersion}

	// Tags begin 8 bytes in (total_size + reserved), each 8-byte aligned.
	cur := addr + 8
	end := addr + uintptr(totalSize)
	for cur < end {
		hdr := (*tagHeader)(unsafe.Pointer(cur))
		if hdr.Type == tagEnd {
			break
		}

		switch hdr.Type {
		case tagCmdLine:
			info.CmdLine = readCString(cur+uintptr(unsafe.Sizeof(tagHeader{})), hdr.Size-uint32(unsafe.Sizeof(tagHeader{})))
		case tagMemoryMap:
			info.Regions = parseMemoryMap(cur)
		case tagFramebuffer:
			fb := (*framebufferTag)(unsafe.Pointer(cur))
			info.Framebuffer = &boot.FramebufferDesc{
				PhysAddr: fb.Addr,
				Width:    fb.Width,
				Height:   fb.Height,
				Pitch:    fb.Pitch,
				BPP:      fb.BPP,
			}
		}

		// Tags are padded to an 8-byte boundary.
		cur += uintptr((hdr.Size + 7) &^ 7)
	}

	return info, nil
}

func parseMemoryMap(tagAddr uintptr) []boot.MemoryRegion {
	tag := (*mmapTag)(unsafe.Pointer(tagAddr))
	entryCount := (tag.Size - uint32(unsafe.Sizeof(mmapTag{}))) / tag.EntrySize

	regions := make([]boot.MemoryRegion, 0, entryCount)
	base := tagAddr + unsafe.Sizeof(mmapTag{})
	for i := uint32(0); i < entryCount; i++ {
		e := (*mmapEntry)(unsafe.Pointer(base + uintptr(i*tag.EntrySize)))
		regions = append(regions, boot.MemoryRegion{
			PhysBase: e.BaseAddr,
			Length:   e.Length,
			Kind:     translateKind(e.Type),
		})
	}
	return regions
}

func translateKind(mbType uint32) boot.Kind {
	switch mbType {
	case mmapEntryAvail:
		return boot.Available
	case mmapEntryAcpiRc:
		return boot.AcpiReclaim
	default:
		return boot.Reserved
	}
}

func readCString(addr uintptr, maxLen uint32) string {
	src := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Data: addr,
		Len:  int(maxLen),
		Cap:  int(maxLen),
	}))
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}
