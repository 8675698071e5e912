//go:build arm64

package kmain

import (
	"minios/kernel/boot"
	"minios/kernel/device"
	drvintc "minios/kernel/driver/intc"
	"minios/kernel/driver/timer"
	"minios/kernel/driver/uart"
	"minios/kernel/hal/fdt"
	"minios/kernel/intc"
	"minios/kernel/kerror"
)

// QEMU's virt machine places the GICv2 distributor/CPU interface and the
// PL011 at these fixed addresses; spec §4.5 leaves discovery itself out of
// scope for the core (Non-goals: "ACPI/device-tree parsing"), so arm64
// registers its fixed QEMU-standard device set directly rather than
// walking a flattened device tree at runtime.
const (
	gicDistBase = 0x08000000
	gicCPUBase  = 0x08010000
	pl011Base   = 0x09000000
	pl011IRQ    = 33
	genericTimerIRQ = 30
)

// parseBootInfo translates the flattened device tree the UEFI stub loader
// left at ptr into the architecture-neutral boot.Info kmain.go codes
// against; see kernel/hal/fdt for the DTB walker.
func parseBootInfo(ptr uintptr) (*boot.Info, *kerror.Error) {
	return fdt.Parse(ptr)
}

func installTrapTable() {
	boot.InstallVBAR()
}

func newInterruptController() intc.Controller {
	return drvintc.NewGIC(gicDistBase, gicCPUBase)
}

func registerDrivers(r *device.Registry) {
	if err := r.RegisterDriver(&timer.ARMGeneric{}); err != nil {
		panic(err.Message)
	}
	if err := r.RegisterDriver(&uart.PL011{}); err != nil {
		panic(err.Message)
	}
}

func registerDevices(r *device.Registry) {
	gt := &device.Device{Name: "arm,generic-timer", Type: device.Timer}
	gt.SetIRQ(genericTimerIRQ)
	if err := r.RegisterDevice(gt); err != nil {
		panic(err.Message)
	}

	pl011 := &device.Device{Name: "pl011", Type: device.UART, BaseAddr: pl011Base}
	pl011.SetIRQ(pl011IRQ)
	if err := r.RegisterDevice(pl011); err != nil {
		panic(err.Message)
	}
}
