//go:build amd64

package cpu

var cpuidFn = ID

// ID executes CPUID with EAX=leaf and returns the EAX/EBX/ECX/EDX results.
func ID(leaf uint32) (eax, ebx, ecx, edx uint32)

// IsIntel returns true if the kernel is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

// MMIOBarrier issues a compiler and hardware memory barrier around MMIO
// register accesses. Every device driver's register read/write goes through
// this so the optimizer can never hoist, sink, or fuse accesses (spec §9).
//
//go:nosplit
func MMIOBarrier() {
	mfence()
}

func mfence()
