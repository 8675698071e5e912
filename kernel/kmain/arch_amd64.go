//go:build amd64

package kmain

import (
	"minios/kernel/boot"
	"minios/kernel/device"
	drvintc "minios/kernel/driver/intc"
	"minios/kernel/driver/timer"
	"minios/kernel/driver/uart"
	"minios/kernel/hal/multiboot"
	"minios/kernel/intc"
	"minios/kernel/kerror"
)

// QEMU's q35/i440fx machine types place the local APIC's MMIO window and
// COM1 at these fixed addresses; spec §4.5 leaves device discovery itself
// out of scope for the core (Non-goals: "ACPI/device-tree parsing"), so
// amd64 registers its fixed QEMU-standard device set directly rather than
// walking the MADT.
const (
	apicBase   = 0xFEE00000
	com1Port   = 0x3F8
	com1IRQ    = 4
	pitIRQ     = 0
)

// parseBootInfo translates the Multiboot2 information block GRUB left at
// ptr into the architecture-neutral boot.Info kmain.go codes against; see
// kernel/hal/multiboot for the tag-by-tag parser.
func parseBootInfo(ptr uintptr) (*boot.Info, *kerror.Error) {
	return multiboot.Parse(ptr)
}

func installTrapTable() {
	boot.InstallIDT()
}

func newInterruptController() intc.Controller {
	return drvintc.NewAPIC(apicBase)
}

func registerDrivers(r *device.Registry) {
	if err := r.RegisterDriver(&timer.PIT{}); err != nil {
		panic(err.Message)
	}
	if err := r.RegisterDriver(&uart.NS16550{}); err != nil {
		panic(err.Message)
	}
}

func registerDevices(r *device.Registry) {
	pit := &device.Device{Name: "pit", Type: device.Timer}
	pit.SetIRQ(pitIRQ)
	if err := r.RegisterDevice(pit); err != nil {
		panic(err.Message)
	}

	com1 := &device.Device{Name: "ns16550", Type: device.UART, BaseAddr: com1Port}
	com1.SetIRQ(com1IRQ)
	if err := r.RegisterDevice(com1); err != nil {
		panic(err.Message)
	}
}
