//go:build arm64

package timer

import (
	"minios/kernel/device"
	"minios/kernel/intc"
	"minios/kernel/kerror"
)

// ARMGeneric implements device.Driver for the ARM generic timer (CNTP_*
// system registers), matching spec §4.5's `arm,generic-timer` binding.
type ARMGeneric struct {
	freqHz uint32
}

func (t *ARMGeneric) DriverName() string                     { return "arm-generic-timer-driver" }
func (t *ARMGeneric) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }
func (t *ARMGeneric) SupportedIDs() []device.SupportedID {
	return []device.SupportedID{{Name: "arm,generic-timer", Type: device.Timer}}
}

func (t *ARMGeneric) DriverInit(d *device.Device) *kerror.Error {
	t.freqHz = DefaultFrequencyHz

	counterFreq := readCNTFRQ()
	interval := uint64(counterFreq) / uint64(t.freqHz)
	writeCNTPTVAL(interval)
	enableCNTPTimer()

	irq := uint32(30) // PPI 14, the generic timer's fixed virt-machine IRQ
	if d.HasIRQ() {
		irq = d.IRQ
	}
	if err := intc.Register(irq, func() {
		writeCNTPTVAL(interval)
		OnTick(t.freqHz)
	}); err != nil {
		return err
	}

	SetActive(t)
	return nil
}

func (t *ARMGeneric) FrequencyHz() uint32 { return t.freqHz }

// readCNTFRQ, writeCNTPTVAL, enableCNTPTimer read/write the CNTFRQ_EL0,
// CNTP_TVAL_EL0, and CNTP_CTL_EL0 system registers.
func readCNTFRQ() uint64
func writeCNTPTVAL(v uint64)
func enableCNTPTimer()
