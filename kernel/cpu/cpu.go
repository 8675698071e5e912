// Package cpu exposes the architecture-specific primitives the rest of the
// kernel needs: interrupt masking, halting, TLB/cache control, and reading
// the registers that carry fault/feature information. Each function below
// is implemented in assembly in the matching cpu_$GOARCH.s file; the Go
// declarations here are the portable contract the rest of the kernel codes
// against.
package cpu

// EnableInterrupts unmasks interrupts on the current CPU.
func EnableInterrupts()

// DisableInterrupts masks interrupts on the current CPU.
func DisableInterrupts()

// Halt stops instruction execution until the next interrupt.
func Halt()

// FlushTLBEntry invalidates the TLB entry for virtAddr on the current CPU.
func FlushTLBEntry(virtAddr uintptr)

// SwitchAddressSpace activates the root translation table at rootTablePhys
// and flushes the TLB. On amd64 this loads CR3; on arm64 it loads TTBR0_EL1.
func SwitchAddressSpace(rootTablePhys uintptr)

// ActiveAddressSpace returns the physical address of the currently active
// root translation table.
func ActiveAddressSpace() uintptr

// FaultAddress returns the virtual address that caused the most recent page
// fault (CR2 on amd64, FAR_EL1 on arm64).
func FaultAddress() uintptr
