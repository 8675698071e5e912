//go:build arm64

package boot

import (
	"reflect"

	"minios/kernel/cpu"
	"minios/kernel/trap"
)

// vectorTarget is the address vbar_stub_arm64.s's 16 identical vector
// table slots branch to; set from trap.EntryPoint() before VBAR_EL1 is
// loaded.
var vectorTarget uintptr

// vectorTable's body lives in vbar_stub_arm64.s; only its address (the
// 2 KiB-aligned table base) is ever used.
func vectorTable()

// InstallVBAR builds the AArch64 exception vector table and loads
// VBAR_EL1 with its base. Call once from kernel/kmain after kernel/trap's
// handlers are registered and before cpu.EnableInterrupts (the arm64
// build's STI-equivalent, DAIF manipulation in cpu_arm64.s).
func InstallVBAR() {
	vectorTarget = trap.EntryPoint()
	cpu.LoadVBAR(reflect.ValueOf(vectorTable).Pointer())
}
