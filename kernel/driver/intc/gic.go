//go:build arm64

package intc

import (
	"unsafe"

	"minios/kernel/cpu"
)

// GICv2 distributor/CPU-interface register offsets (ARM IHI 0048, GICv2
// architecture specification), as exposed on QEMU's virt machine.
const (
	gicdCTLR   = 0x000
	gicdISENABLER = 0x100
	gicdICENABLER = 0x180
	gicdIPRIORITYR = 0x400

	giccCTLR = 0x000
	giccPMR  = 0x004
	giccIAR  = 0x00C
	giccEOIR = 0x010
)

// GIC is a minimal GICv2 driver covering SGI/PPI/SPI acknowledge and EOI.
type GIC struct {
	distBase, cpuBase uintptr
}

// NewGIC wraps the distributor and CPU interface MMIO regions (QEMU virt's
// defaults are 0x08000000/0x08010000).
func NewGIC(distBase, cpuBase uintptr) *GIC {
	g := &GIC{distBase: distBase, cpuBase: cpuBase}
	g.write32(g.distBase, gicdCTLR, 1)
	g.write32(g.cpuBase, giccCTLR, 1)
	g.write32(g.cpuBase, giccPMR, 0xFF)
	return g
}

func (g *GIC) write32(base uintptr, offset uintptr, v uint32) {
	cpu.MMIOBarrier()
	*(*uint32)(unsafe.Pointer(base + offset)) = v
	cpu.MMIOBarrier()
}

func (g *GIC) read32(base uintptr, offset uintptr) uint32 {
	cpu.MMIOBarrier()
	v := *(*uint32)(unsafe.Pointer(base + offset))
	cpu.MMIOBarrier()
	return v
}

// Enable sets the distributor's set-enable bit for irq.
func (g *GIC) Enable(irq uint32) {
	reg := gicdISENABLER + (irq/32)*4
	g.write32(g.distBase, uintptr(reg), 1<<(irq%32))
}

// Disable sets the distributor's clear-enable bit for irq.
func (g *GIC) Disable(irq uint32) {
	reg := gicdICENABLER + (irq/32)*4
	g.write32(g.distBase, uintptr(reg), 1<<(irq%32))
}

// SetPriority programs the distributor's 8-bit-per-IRQ priority register.
func (g *GIC) SetPriority(irq uint32, priority uint8) {
	reg := gicdIPRIORITYR + irq
	g.write32(g.distBase, uintptr(reg&^3), uint32(priority)<<((irq%4)*8))
}

// Acknowledge reads the CPU interface's interrupt-acknowledge register.
// IDs 1020-1023 are the GICv2 spurious/special range.
func (g *GIC) Acknowledge() (uint32, bool) {
	iar := g.read32(g.cpuBase, giccIAR)
	id := iar & 0x3FF
	if id >= 1020 {
		return 0, false
	}
	return id, true
}

// EndOfInterrupt writes the interrupt ID back to the end-of-interrupt
// register.
func (g *GIC) EndOfInterrupt(irq uint32) {
	g.write32(g.cpuBase, giccEOIR, irq)
}
