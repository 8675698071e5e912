// Package fdt is a deliberately small flattened-devicetree reader: enough to
// pull the memory node and bootargs out of the blob QEMU's virt machine (or
// a UEFI stub that located one) hands to the kernel, normalized into
// kernel/boot.Info (spec §6's "thin per-bootloader adapter"). It is not a
// general-purpose devicetree library — no phandles, no overlays, no
// property types beyond the handful device discovery actually needs.
package fdt

import (
	"encoding/binary"
	"unsafe"

	"minios/kernel/boot"
	"minios/kernel/kerror"
)

const (
	magic        = 0xd00dfeed
	tokenBeginNode = 0x00000001
	tokenEndNode   = 0x00000002
	tokenProp      = 0x00000003
	tokenNop       = 0x00000004
	tokenEnd       = 0x00000009
)

type header struct {
	Magic           uint32
	TotalSize       uint32
	OffDtStruct     uint32
	OffDtStrings    uint32
	OffMemRsvmap    uint32
	Version         uint32
	LastCompVersion uint32
	BootCPUIDPhys   uint32
	SizeDtStrings   uint32
	SizeDtStruct    uint32
}

var errBadMagic = &kerror.Error{Module: "fdt", Message: "bad FDT magic"}

// reader walks the big-endian struct block token by token.
type reader struct {
	blob   []byte
	hdr    header
	offset uint32
}

// Parse reads the devicetree blob at addr and extracts the subset of
// information the kernel's boot path needs: available memory and the
// bootargs command line. Unlike kernel/hal/multiboot's Parse, device
// enumeration itself happens later via kernel/device's registry, seeded
// from a static table — spec §1 treats a full devicetree-driven device
// probe as future work, not a requirement.
func Parse(addr uintptr) (*boot.Info, *kerror.Error) {
	hdr := beHeader(addr)
	if hdr.Magic != magic {
		return nil, errBadMagic
	}

	blob := rawBytes(addr, hdr.TotalSize)
	r := &reader{blob: blob, hdr: hdr, offset: hdr.OffDtStruct}

	info := &boot.Info{Version: boot.SupportedVersion}
	var regions []boot.MemoryRegion

	path := ""
	for {
		tok := r.u32()
		switch tok {
		case tokenBeginNode:
			name := r.cstring()
			if path == "/" {
				path = ""
			}
			path = path + "/" + name
		case tokenEndNode:
			if idx := lastSlash(path); idx >= 0 {
				path = path[:idx]
			}
		case tokenProp:
			length := r.u32()
			nameOff := r.u32()
			value := r.bytes(length)
			r.align4()
			name := r.stringAt(nameOff)

			switch {
			case isMemoryNode(path) && name == "reg":
				regions = append(regions, decodeMemReg(value)...)
			case path == "/chosen" && name == "bootargs":
				info.CmdLine = trimNul(value)
			}
			continue // property values already consumed by bytes(); skip the trailing align below
		case tokenNop:
			// no payload
		case tokenEnd:
			info.Regions = regions
			return info, nil
		default:
			info.Regions = regions
			return info, nil
		}
		r.align4()
	}
}

func isMemoryNode(path string) bool {
	return len(path) >= 7 && path[:7] == "/memory"
}

func decodeMemReg(value []byte) []boot.MemoryRegion {
	// Assumes #address-cells = #size-cells = 2 (true for both QEMU virt's
	// default FDT and every board this kernel targets).
	var regions []boot.MemoryRegion
	for i := 0; i+16 <= len(value); i += 16 {
		base := binary.BigEndian.Uint64(value[i : i+8])
		length := binary.BigEndian.Uint64(value[i+8 : i+16])
		regions = append(regions, boot.MemoryRegion{PhysBase: base, Length: length, Kind: boot.Available})
	}
	return regions
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func trimNul(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func (r *reader) u32() uint32 {
	v := binary.BigEndian.Uint32(r.blob[r.offset : r.offset+4])
	r.offset += 4
	return v
}

func (r *reader) bytes(n uint32) []byte {
	v := r.blob[r.offset : r.offset+n]
	r.offset += n
	return v
}

func (r *reader) cstring() string {
	start := r.offset
	for r.blob[r.offset] != 0 {
		r.offset++
	}
	s := string(r.blob[start:r.offset])
	r.offset++ // consume the NUL
	r.align4()
	return s
}

func (r *reader) stringAt(off uint32) string {
	base := r.hdr.OffDtStrings + off
	end := base
	for r.blob[end] != 0 {
		end++
	}
	return string(r.blob[base:end])
}

func (r *reader) align4() {
	r.offset = (r.offset + 3) &^ 3
}

func beHeader(addr uintptr) header {
	raw := rawBytes(addr, uint32(unsafe.Sizeof(header{})))
	return header{
		Magic:           binary.BigEndian.Uint32(raw[0:4]),
		TotalSize:       binary.BigEndian.Uint32(raw[4:8]),
		OffDtStruct:     binary.BigEndian.Uint32(raw[8:12]),
		OffDtStrings:    binary.BigEndian.Uint32(raw[12:16]),
		OffMemRsvmap:    binary.BigEndian.Uint32(raw[16:20]),
		Version:         binary.BigEndian.Uint32(raw[20:24]),
		LastCompVersion: binary.BigEndian.Uint32(raw[24:28]),
		BootCPUIDPhys:   binary.BigEndian.Uint32(raw[28:32]),
		SizeDtStrings:   binary.BigEndian.Uint32(raw[32:36]),
		SizeDtStruct:    binary.BigEndian.Uint32(raw[36:40]),
	}
}

func rawBytes(addr uintptr, n uint32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}
