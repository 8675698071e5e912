//go:build arm64

package uart

import (
	"unsafe"

	"minios/kernel/cpu"
	"minios/kernel/device"
	"minios/kernel/intc"
	"minios/kernel/kerror"
)

// PL011 register offsets (ARM PrimeCell UART, as exposed on QEMU's virt
// machine at 0x09000000), matching spec §4.5's `pl011` binding.
const (
	regDR   = 0x00
	regFR   = 0x18
	regIBRD = 0x24
	regFBRD = 0x28
	regLCRH = 0x2C
	regCR   = 0x30
	regIMSC = 0x38
	regICR  = 0x44

	frTXFF = 1 << 5 // transmit FIFO full
	frRXFE = 1 << 4 // receive FIFO empty
)

// PL011 implements device.Driver for the ARM PrimeCell UART.
type PL011 struct {
	base uintptr
}

func (u *PL011) DriverName() string                     { return "pl011-driver" }
func (u *PL011) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }
func (u *PL011) SupportedIDs() []device.SupportedID {
	return []device.SupportedID{{Name: "pl011", Type: device.UART}}
}

func (u *PL011) DriverInit(d *device.Device) *kerror.Error {
	u.base = d.BaseAddr

	u.write(regCR, 0) // disable while configuring
	u.write(regIBRD, 26)
	u.write(regFBRD, 3) // ~115200 baud at 48 MHz UARTCLK
	u.write(regLCRH, 0x70) // 8-bit, FIFOs enabled
	u.write(regCR, 0x301)  // UART enable, TX enable, RX enable

	if d.HasIRQ() {
		u.write(regIMSC, 0x10) // RX interrupt mask
		if err := intc.Register(d.IRQ, u.handleIRQ); err != nil {
			return err
		}
	}

	SetActive(u)
	return nil
}

func (u *PL011) handleIRQ() {
	for u.rxReady() {
		PushRx(byte(u.read(regDR)))
	}
	u.write(regICR, 0x10)
}

func (u *PL011) rxReady() bool {
	return u.read(regFR)&frRXFE == 0
}

// Putc blocks until the transmit FIFO has room for b.
func (u *PL011) Putc(b byte) {
	for u.read(regFR)&frTXFF != 0 {
	}
	u.write(regDR, uint32(b))
}

func (u *PL011) write(offset uintptr, v uint32) {
	cpu.MMIOBarrier()
	*(*uint32)(unsafe.Pointer(u.base + offset)) = v
	cpu.MMIOBarrier()
}

func (u *PL011) read(offset uintptr) uint32 {
	cpu.MMIOBarrier()
	v := *(*uint32)(unsafe.Pointer(u.base + offset))
	cpu.MMIOBarrier()
	return v
}
