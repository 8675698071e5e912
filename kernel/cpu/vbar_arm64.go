//go:build arm64

package cpu

// LoadVBAR programs VBAR_EL1 with the 2 KiB-aligned base of the 16-entry
// exception vector table kernel/boot built. Every exception taken at EL1
// after this call is dispatched through that table.
func LoadVBAR(base uintptr)
