//go:build amd64

package trap

// trapEntryWithCode, irqEntry, and syscallEntry are the raw IDT gate targets
// installed by kernel/boot's GDT/IDT setup; their bodies live in
// trap_amd64.s. They are not called directly from Go — only their program
// counters are taken and installed into IDT descriptors — which is why they
// have no Go-visible return value.
func trapEntryWithCode(vector uint64)
func irqEntry(irqLine uint32)
func syscallEntry()

// EntryPoints exposes the three raw entry addresses so kernel/boot can
// populate the IDT without this package needing to know anything about the
// IDT descriptor format itself.
func EntryPoints() (exceptionWithCode, irq, syscall uintptr) {
	return funcPC(trapEntryWithCode), funcPC(irqEntry), funcPC(syscallEntry)
}
