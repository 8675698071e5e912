//go:build amd64

package uart

import (
	"minios/kernel/cpu"
	"minios/kernel/device"
	"minios/kernel/intc"
	"minios/kernel/kerror"
)

// NS16550 UART register offsets (relative to the port-mapped base, e.g.
// COM1 at 0x3F8), matching spec §4.5's `ns16550` binding.
const (
	regData       = 0
	regIER        = 1
	regFCR        = 2
	regLCR        = 3
	regMCR        = 4
	regLSR        = 5
	lsrTxReady    = 1 << 5
	lsrRxReady    = 1 << 0
)

// NS16550 implements device.Driver for a 16550-compatible UART accessed via
// x86 I/O ports.
type NS16550 struct {
	port uint16
}

func (u *NS16550) DriverName() string                     { return "ns16550-driver" }
func (u *NS16550) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }
func (u *NS16550) SupportedIDs() []device.SupportedID {
	return []device.SupportedID{{Name: "ns16550", Type: device.UART}}
}

// DriverInit programs 8-N-1 at 115200 baud and enables the receive-ready
// interrupt if the device has an IRQ line.
func (u *NS16550) DriverInit(d *device.Device) *kerror.Error {
	u.port = uint16(d.BaseAddr)

	cpu.MMIOBarrier()
	outb(u.port+regLCR, 0x80) // enable divisor latch
	outb(u.port+0, 1)         // divisor low byte: 115200 baud
	outb(u.port+1, 0)         // divisor high byte
	outb(u.port+regLCR, 0x03) // 8-N-1, latch off
	outb(u.port+regFCR, 0xC7) // enable + clear FIFOs, 14-byte threshold
	outb(u.port+regMCR, 0x0B)
	cpu.MMIOBarrier()

	if d.HasIRQ() {
		outb(u.port+regIER, 0x01) // receive-data-available interrupt
		if err := intc.Register(d.IRQ, u.handleIRQ); err != nil {
			return err
		}
	}

	SetActive(u)
	return nil
}

func (u *NS16550) handleIRQ() {
	for u.rxReady() {
		PushRx(inb(u.port + regData))
	}
}

func (u *NS16550) rxReady() bool {
	return inb(u.port+regLSR)&lsrRxReady != 0
}

// Putc blocks (polling LSR's transmit-ready bit) until the hardware FIFO
// accepts b.
func (u *NS16550) Putc(b byte) {
	for inb(u.port+regLSR)&lsrTxReady == 0 {
	}
	outb(u.port+regData, b)
}

func outb(port uint16, value byte)
func inb(port uint16) byte
