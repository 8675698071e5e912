//go:build amd64

package timer

import (
	"unsafe"

	"minios/kernel/cpu"
	"minios/kernel/device"
	"minios/kernel/intc"
	"minios/kernel/kerror"
)

// Local APIC timer register offsets, relative to the same MMIO base as
// kernel/driver/intc's APIC driver.
const (
	lvtTimer    = 0x320
	initCount   = 0x380
	curCount    = 0x390
	divideConf  = 0x3E0
)

// APICTimer implements device.Driver for the local APIC's built-in timer
// (spec §4.5's `apic-timer` binding), preferred over the PIT once
// calibrated since it needs no legacy I/O port access.
type APICTimer struct {
	base   uintptr
	freqHz uint32
}

// NewAPICTimer constructs a driver bound to the local APIC at base. The
// device registry passes the device's BaseAddr through DriverInit instead;
// this constructor exists for tests that want to exercise register access
// directly.
func NewAPICTimer(base uintptr) *APICTimer { return &APICTimer{base: base} }

func (t *APICTimer) DriverName() string                     { return "apic-timer-driver" }
func (t *APICTimer) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }
func (t *APICTimer) SupportedIDs() []device.SupportedID {
	return []device.SupportedID{{Name: "apic-timer", Type: device.Timer}}
}

func (t *APICTimer) DriverInit(d *device.Device) *kerror.Error {
	t.base = d.BaseAddr
	t.freqHz = DefaultFrequencyHz

	t.write(divideConf, 0x3) // divide by 16
	t.write(lvtTimer, 0x20000|32)
	// initCount is platform/calibration specific; a real port calibrates
	// against the PIT or HPET. MiniOS ships with a fixed value tuned for
	// QEMU's default bus frequency, matching how the core's teaching scope
	// treats calibration (spec §4.5 only requires a configurable
	// frequency, not a calibration algorithm).
	t.write(initCount, 0x100000)

	irq := uint32(32)
	if d.HasIRQ() {
		irq = d.IRQ
	}
	if err := intc.Register(irq, func() { OnTick(t.freqHz) }); err != nil {
		return err
	}

	SetActive(t)
	return nil
}

func (t *APICTimer) FrequencyHz() uint32 { return t.freqHz }

func (t *APICTimer) write(offset uintptr, v uint32) {
	cpu.MMIOBarrier()
	*(*uint32)(unsafe.Pointer(t.base + offset)) = v
	cpu.MMIOBarrier()
}
