//go:build amd64

package timer

import (
	"minios/kernel/cpu"
	"minios/kernel/device"
	"minios/kernel/intc"
	"minios/kernel/kerror"
)

// PIT ports (Intel 8254), used on platforms where the local APIC timer is
// unavailable or not yet calibrated.
const (
	pitChannel0 = 0x40
	pitCommand  = 0x43
	pitBaseHz   = 1193182
)

// PIT implements device.Driver for the legacy programmable interval timer,
// matching spec §4.5's `pit` binding name.
type PIT struct {
	freqHz uint32
}

func (p *PIT) DriverName() string                     { return "pit-driver" }
func (p *PIT) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }
func (p *PIT) SupportedIDs() []device.SupportedID {
	return []device.SupportedID{{Name: "pit", Type: device.Timer}}
}

// DriverInit programs channel 0 for square-wave mode at DefaultFrequencyHz
// and registers the IRQ0 handler that calls OnTick.
func (p *PIT) DriverInit(d *device.Device) *kerror.Error {
	p.freqHz = DefaultFrequencyHz
	divisor := uint16(pitBaseHz / p.freqHz)

	cpu.MMIOBarrier()
	outb(pitCommand, 0x36) // channel 0, lobyte/hibyte, square wave
	outb(pitChannel0, byte(divisor))
	outb(pitChannel0, byte(divisor>>8))
	cpu.MMIOBarrier()

	irq := uint32(0)
	if d.HasIRQ() {
		irq = d.IRQ
	}
	if err := intc.Register(irq, func() { OnTick(p.freqHz) }); err != nil {
		return err
	}

	SetActive(p)
	return nil
}

func (p *PIT) FrequencyHz() uint32 { return p.freqHz }

// outb writes a byte to an x86 I/O port. Implemented in assembly
// (timer_amd64.s) since Go has no port-I/O instruction; declared here so
// the rest of the driver stays ordinary Go.
func outb(port uint16, value byte)
