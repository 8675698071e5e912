//go:build arm64

package cpu

// MMIOBarrier issues a DMB SY so that device-register accesses around it
// cannot be reordered or fused by the compiler or the CPU (spec §9). ARM64
// has no CPUID-equivalent user instruction; feature detection instead reads
// ID_AA64PFR0_EL1 via ReadIDReg.
//
//go:nosplit
func MMIOBarrier() {
	dmbSY()
}

func dmbSY()

// ReadIDReg reads the ID_AA64PFR0_EL1 feature register.
func ReadIDReg() uint64
