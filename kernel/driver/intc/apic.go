//go:build amd64

// Package intc provides the per-architecture interrupt controller drivers
// that implement kernel/intc.Controller: the local APIC on amd64 (spec
// §4.5: "apic-timer"/8259-equivalent binding) and the GICv2 on arm64.
package intc

import (
	"unsafe"

	"minios/kernel/cpu"
)

// APIC register offsets (Intel SDM vol. 3, ch. 10), relative to the local
// APIC's MMIO base.
const (
	regEOI        = 0x0B0
	regSpurious   = 0x0F0
	regISR0       = 0x100
	regTPR        = 0x080
)

// APIC is a minimal local-APIC driver: enough to acknowledge and EOI the
// timer and a handful of legacy-replacement IRQs routed through the
// IOAPIC's redirection table (not modeled in detail here — spec §4.4 scopes
// the core to mask/unmask/priority/EOI/routing, not a full IOAPIC redirect
// table editor).
type APIC struct {
	base uintptr
	mask [256 / 64]uint64
}

// NewAPIC wraps the local APIC MMIO region at base (typically 0xFEE00000,
// reported by the ACPI MADT or a fixed virt-machine address under QEMU).
func NewAPIC(base uintptr) *APIC {
	a := &APIC{base: base}
	a.mmioWrite(regSpurious, 0x1FF) // enable APIC, spurious vector 0xFF
	return a
}

func (a *APIC) mmioWrite(offset uintptr, v uint32) {
	cpu.MMIOBarrier()
	*(*uint32)(unsafe.Pointer(a.base + offset)) = v
	cpu.MMIOBarrier()
}

func (a *APIC) mmioRead(offset uintptr) uint32 {
	cpu.MMIOBarrier()
	v := *(*uint32)(unsafe.Pointer(a.base + offset))
	cpu.MMIOBarrier()
	return v
}

// Enable unmasks irq. The core's IOAPIC redirection is left at its
// firmware-programmed default; Enable only clears this driver's own
// software mask so Acknowledge will report it.
func (a *APIC) Enable(irq uint32) {
	a.mask[irq/64] &^= 1 << (irq % 64)
}

// Disable masks irq.
func (a *APIC) Disable(irq uint32) {
	a.mask[irq/64] |= 1 << (irq % 64)
}

// SetPriority programs the task-priority register floor below which
// interrupts are not delivered. MiniOS keeps this coarse: the core's
// non-goal list excludes fine-grained priority scheduling of interrupts
// themselves (only tasks get priorities, per spec §4.8).
func (a *APIC) SetPriority(irq uint32, priority uint8) {
	a.mmioWrite(regTPR, uint32(priority))
}

// Acknowledge reads the in-service register to find the highest-priority
// IRQ currently being serviced.
func (a *APIC) Acknowledge() (uint32, bool) {
	for word := 7; word >= 0; word-- {
		isr := a.mmioRead(regISR0 + uintptr(word)*0x10)
		if isr == 0 {
			continue
		}
		for bit := 31; bit >= 0; bit-- {
			if isr&(1<<uint(bit)) != 0 {
				irq := uint32(word*32 + bit)
				if a.mask[irq/64]&(1<<(irq%64)) != 0 {
					return 0, false
				}
				return irq, true
			}
		}
	}
	return 0, false
}

// EndOfInterrupt writes the EOI register, signalling the APIC the current
// interrupt has been serviced.
func (a *APIC) EndOfInterrupt(irq uint32) {
	a.mmioWrite(regEOI, 0)
}
