package vmm

import (
	"testing"
	"unsafe"

	"minios/kernel/kerror"
	"minios/kernel/mem"
	"minios/kernel/mem/pmm"
)

// testFramePool backs the fake frame allocator used by these tests: real Go
// memory standing in for physical frames, exactly as gopher-os's own vmm
// tests do (the table-walking logic never needs real hardware, only
// correctly laid out bytes at a stable address).
var testFramePool [][mem.PageSize]byte

func fakeAlloc() (pmm.Frame, *kerror.Error) {
	testFramePool = append(testFramePool, [mem.PageSize]byte{})
	idx := len(testFramePool) - 1
	addr := uintptr(unsafe.Pointer(&testFramePool[idx][0]))
	return pmm.FrameFromAddress(addr), nil
}

func init() {
	flushTLBEntry = func(uintptr) {}
	switchAddressSpace = func(uintptr) {}
	activeAddressSpace = func() uintptr { return 0 }
}

func TestMapUnmapTranslateRoundTrip(t *testing.T) {
	as, err := New(fakeAlloc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dataFrame, err := fakeAlloc()
	if err != nil {
		t.Fatalf("fakeAlloc: %v", err)
	}

	virt := Page(0x1000)
	if err := as.Map(virt, dataFrame, FlagRW, fakeAlloc, false); err != nil {
		t.Fatalf("Map: %v", err)
	}

	phys, err := as.Translate(virt.Address())
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if phys != dataFrame.Address() {
		t.Fatalf("Translate returned %x, want %x", phys, dataFrame.Address())
	}

	if err := as.Unmap(virt); err != nil {
		t.Fatalf("Unmap: %v", err)
	}
	if _, err := as.Translate(virt.Address()); err == nil {
		t.Fatalf("expected Translate to fail after Unmap")
	}
}

func TestMapOverlapFailsWithoutReplace(t *testing.T) {
	as, err := New(fakeAlloc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f1, _ := fakeAlloc()
	f2, _ := fakeAlloc()

	virt := Page(0x2000)
	if err := as.Map(virt, f1, FlagRW, fakeAlloc, false); err != nil {
		t.Fatalf("first Map: %v", err)
	}
	if err := as.Map(virt, f2, FlagRW, fakeAlloc, false); err != ErrAlreadyMapped {
		t.Fatalf("expected ErrAlreadyMapped, got %v", err)
	}
	if err := as.Map(virt, f2, FlagRW, fakeAlloc, true); err != nil {
		t.Fatalf("Map with replace=true: %v", err)
	}
	phys, _ := as.Translate(virt.Address())
	if phys != f2.Address() {
		t.Fatalf("replace did not retarget mapping")
	}
}

func TestProtectChangesPermissionsOnly(t *testing.T) {
	as, _ := New(fakeAlloc)
	f, _ := fakeAlloc()
	virt := Page(0x3000)
	if err := as.Map(virt, f, FlagRW, fakeAlloc, false); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if err := as.Protect(virt, PageTableEntryFlag(0)); err != nil {
		t.Fatalf("Protect: %v", err)
	}
	phys, err := as.Translate(virt.Address())
	if err != nil {
		t.Fatalf("Translate after Protect: %v", err)
	}
	if phys != f.Address() {
		t.Fatalf("Protect changed the mapped frame")
	}
}

func TestUnmapNotMappedFails(t *testing.T) {
	as, _ := New(fakeAlloc)
	if err := as.Unmap(Page(0x9000)); err != ErrNotMapped {
		t.Fatalf("expected ErrNotMapped, got %v", err)
	}
}
