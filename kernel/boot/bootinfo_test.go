package boot

import (
	"testing"
	"unsafe"
)

func TestParseRejectsBadMagic(t *testing.T) {
	hdr := rawHeader{Magic: 0xdeadbeef, Version: SupportedVersion}
	_, err := Parse(uintptr(unsafe.Pointer(&hdr)))
	if err != errBadMagic {
		t.Fatalf("expected errBadMagic, got %v", err)
	}
}

func TestParseRejectsBadVersion(t *testing.T) {
	hdr := rawHeader{Magic: Magic, Version: SupportedVersion + 1}
	_, err := Parse(uintptr(unsafe.Pointer(&hdr)))
	if err != errBadVersion {
		t.Fatalf("expected errBadVersion, got %v", err)
	}
}

func TestParseRegionsAndCmdLine(t *testing.T) {
	type payload struct {
		hdr     rawHeader
		regions [2]rawRegion
		cmdline [16]byte
	}

	var p payload
	p.regions[0] = rawRegion{PhysBase: 0, Length: 0x1000, Kind: uint32(Available)}
	p.regions[1] = rawRegion{PhysBase: 0x1000, Length: 0x1000, Kind: uint32(Reserved)}
	copy(p.cmdline[:], "root=ramfs")

	base := uintptr(unsafe.Pointer(&p))
	p.hdr = rawHeader{
		Magic:             Magic,
		Version:           SupportedVersion,
		MemoryMapOffset:   uint64(uintptr(unsafe.Pointer(&p.regions[0])) - base),
		MemoryMapLen:      2,
		MemoryMapStride:   uint32(unsafe.Sizeof(rawRegion{})),
		CommandLineOffset: uint64(uintptr(unsafe.Pointer(&p.cmdline[0])) - base),
		CommandLineLen:    uint32(len("root=ramfs")),
	}

	info, err := Parse(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(info.Regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(info.Regions))
	}
	if info.Regions[0].Kind != Available || info.Regions[1].Kind != Reserved {
		t.Fatalf("region kinds not decoded correctly: %+v", info.Regions)
	}
	if info.CmdLine != "root=ramfs" {
		t.Fatalf("expected cmdline %q, got %q", "root=ramfs", info.CmdLine)
	}

	var seen []MemoryRegion
	info.VisitAvailable(func(r MemoryRegion) bool {
		seen = append(seen, r)
		return true
	})
	if len(seen) != 1 || seen[0].Kind != Available {
		t.Fatalf("VisitAvailable should only yield Available regions, got %+v", seen)
	}
}

func TestValidateOrdering(t *testing.T) {
	specs := []struct {
		name    string
		regions []MemoryRegion
		wantErr bool
	}{
		{
			name: "sorted, non-overlapping",
			regions: []MemoryRegion{
				{PhysBase: 0, Length: 0x1000},
				{PhysBase: 0x1000, Length: 0x1000},
			},
		},
		{
			name: "overlapping",
			regions: []MemoryRegion{
				{PhysBase: 0, Length: 0x2000},
				{PhysBase: 0x1000, Length: 0x1000},
			},
			wantErr: true,
		},
		{
			name: "out of order",
			regions: []MemoryRegion{
				{PhysBase: 0x2000, Length: 0x1000},
				{PhysBase: 0x1000, Length: 0x1000},
			},
			wantErr: true,
		},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			err := validateOrdering(spec.regions)
			if (err != nil) != spec.wantErr {
				t.Fatalf("expected err != nil: %v; got %v", spec.wantErr, err)
			}
		})
	}
}

func TestRegionEnd(t *testing.T) {
	r := MemoryRegion{PhysBase: 0x1000, Length: 0x2000}
	if got := r.End(); got != 0x3000 {
		t.Fatalf("expected end 0x3000, got 0x%x", got)
	}
}

func TestKindString(t *testing.T) {
	if Available.String() != "available" {
		t.Fatalf("unexpected Kind.String() for Available: %q", Available.String())
	}
	if Kind(99).String() != "unknown" {
		t.Fatalf("expected unknown kind fallback")
	}
}
