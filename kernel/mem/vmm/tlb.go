package vmm

import (
	"unsafe"

	"minios/kernel/cpu"
)

// The following are indirected through package-level variables so tests can
// override them; the real bodies below are automatically inlined into
// callers that only ever see the variable already bound to cpu's assembly
// stubs (which fault if executed in userspace test binaries).
var (
	flushTLBEntry      = cpu.FlushTLBEntry
	switchAddressSpace = cpu.SwitchAddressSpace
	activeAddressSpace = cpu.ActiveAddressSpace
)

func unsafePointerAdd(base uintptr, offset uintptr) unsafe.Pointer {
	return unsafe.Pointer(base + offset)
}
