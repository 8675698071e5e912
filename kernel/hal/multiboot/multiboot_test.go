package multiboot

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"minios/kernel/boot"
)

// buildInfo assembles a minimal, hand-rolled Multiboot2 info buffer with a
// command-line tag and a one-entry memory map tag, mirroring what GRUB
// actually hands the kernel.
func buildInfo(t *testing.T) []byte {
	t.Helper()

	var buf []byte
	putU32 := func(v uint32) { buf = append(buf, u32le(v)...) }
	putU64 := func(v uint64) { buf = append(buf, u64le(v)...) }
	pad8 := func() {
		for len(buf)%8 != 0 {
			buf = append(buf, 0)
		}
	}

	buf = append(buf, make([]byte, 8)...) // total_size + reserved, patched at the end

	// cmdline tag
	cmdStart := len(buf)
	putU32(tagCmdLine)
	cmdLineStr := "console=ttyS0\x00"
	putU32(uint32(8 + len(cmdLineStr)))
	buf = append(buf, []byte(cmdLineStr)...)
	_ = cmdStart
	pad8()

	// memory map tag: one available region
	putU32(tagMemoryMap)
	putU32(8 + 8 + 24) // header + (entry_size,entry_version) + 1 entry
	putU32(24)         // entry size
	putU32(0)          // entry version
	putU64(0x100000)   // base
	putU64(0x1000000)  // length
	putU32(1)          // type = available
	putU32(0)          // reserved
	pad8()

	// end tag
	putU32(tagEnd)
	putU32(8)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	return buf
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func TestParseExtractsCmdLineAndMemoryMap(t *testing.T) {
	buf := buildInfo(t)
	info, err := Parse(uintptr(unsafe.Pointer(&buf[0])))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if info.CmdLine != "console=ttyS0" {
		t.Fatalf("CmdLine = %q, want %q", info.CmdLine, "console=ttyS0")
	}

	if len(info.Regions) != 1 {
		t.Fatalf("Regions = %d entries, want 1", len(info.Regions))
	}
	r := info.Regions[0]
	if r.PhysBase != 0x100000 || r.Length != 0x1000000 || r.Kind != boot.Available {
		t.Fatalf("unexpected region: %+v", r)
	}
}

func TestParseRejectsImplausibleTotalSize(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], 2)
	if _, err := Parse(uintptr(unsafe.Pointer(&buf[0]))); err == nil {
		t.Fatalf("expected an error for an implausible total_size")
	}
}
