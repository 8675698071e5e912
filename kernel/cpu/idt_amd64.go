//go:build amd64

package cpu

// LoadIDT executes LIDT against the 10-byte pseudo-descriptor (2-byte limit
// followed by an 8-byte base) at descriptor. kernel/boot builds that
// descriptor once it has populated the gate table.
func LoadIDT(descriptor uintptr)
