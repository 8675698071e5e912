//go:build amd64

package boot

import (
	"reflect"
	"unsafe"

	"minios/kernel/cpu"
	"minios/kernel/trap"
)

// idtSize is the fixed x86-64 IDT length: one gate per possible vector.
const idtSize = 256

// IRQ vectors 32-47 are the legacy PIC/IOAPIC remap range every PC-class
// bootloader leaves free; the syscall vector follows the historical
// INT 0x80 convention gopher-os's own era of x86 kernels used.
const (
	irqVectorBase = 32
	irqVectorMax  = irqVectorBase + 15
	syscallVector = 0x80

	// kernelCodeSelector must match the flat long-mode code segment the
	// boot-time GDT installs at offset 0x08 — the conventional slot for
	// a minimal two-descriptor (null, code) GDT.
	kernelCodeSelector = 0x08

	gateTypeInterrupt = 0xE // 64-bit interrupt gate, present, DPL 0
	gatePresent       = 0x80
)

// gate64 is one x86-64 IDT entry (Intel SDM vol. 3, figure 6-8).
type gate64 struct {
	offsetLow  uint16
	selector   uint16
	istAttr    uint8 // IST index in bits 0-2, zero elsewhere
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

// idtr is the LIDT pseudo-descriptor: a 2-byte limit followed by an 8-byte
// base, packed with no padding between them.
type idtr struct {
	limit uint16
	base  uint64
}

var idt [idtSize]gate64

// addresses idt_stubs_amd64.s's three raw gate targets index through;
// populated from trap.EntryPoints() before any gate references them.
var (
	trapEntryAddr    uintptr
	irqEntryAddr     uintptr
	syscallEntryAddr uintptr
)

// raw per-vector trampolines; bodies in idt_stubs_amd64.s.
func isrDivideError()
func isrDebug()
func isrBreakpoint()
func isrInvalidOpcode()
func isrDoubleFault()
func isrGeneralProtection()
func isrPageFault()
func isrAlignmentCheck()
func isrOther()
func syscallRaw()

var irqLineStubs = [16]func(){
	irqLine0, irqLine1, irqLine2, irqLine3,
	irqLine4, irqLine5, irqLine6, irqLine7,
	irqLine8, irqLine9, irqLine10, irqLine11,
	irqLine12, irqLine13, irqLine14, irqLine15,
}

func irqLine0()
func irqLine1()
func irqLine2()
func irqLine3()
func irqLine4()
func irqLine5()
func irqLine6()
func irqLine7()
func irqLine8()
func irqLine9()
func irqLine10()
func irqLine11()
func irqLine12()
func irqLine13()
func irqLine14()
func irqLine15()

func entryPC(f func()) uintptr {
	return reflect.ValueOf(f).Pointer()
}

func setGate(vector int, target uintptr) {
	idt[vector] = gate64{
		offsetLow:  uint16(target),
		selector:   kernelCodeSelector,
		istAttr:    0,
		typeAttr:   gatePresent | gateTypeInterrupt,
		offsetMid:  uint16(target >> 16),
		offsetHigh: uint32(target >> 32),
	}
}

// InstallIDT builds the 256-entry interrupt descriptor table and loads it,
// routing every vector to trap's registered handlers: the classified
// exception vectors land on their own named stub, the unclassified rest
// share isrOther, IRQ lines 0-15 land on the IOAPIC remap range, and the
// syscall vector lands on trap.syscallEntry. Call once from kernel/kmain
// after kernel/trap's handlers have been registered via HandleException
// and before cpu.EnableInterrupts.
func InstallIDT() {
	exceptionTarget, irqTarget, syscallTarget := trap.EntryPoints()
	trapEntryAddr = exceptionTarget
	irqEntryAddr = irqTarget
	syscallEntryAddr = syscallTarget

	for v := 0; v < idtSize; v++ {
		setGate(v, entryPC(isrOther))
	}
	setGate(0, entryPC(isrDivideError))
	setGate(1, entryPC(isrDebug))
	setGate(3, entryPC(isrBreakpoint))
	setGate(6, entryPC(isrInvalidOpcode))
	setGate(8, entryPC(isrDoubleFault))
	setGate(13, entryPC(isrGeneralProtection))
	setGate(14, entryPC(isrPageFault))
	setGate(17, entryPC(isrAlignmentCheck))

	for line := 0; line <= irqVectorMax-irqVectorBase; line++ {
		setGate(irqVectorBase+line, entryPC(irqLineStubs[line]))
	}
	setGate(syscallVector, entryPC(syscallRaw))

	desc := idtr{
		limit: uint16(unsafe.Sizeof(idt)) - 1,
		base:  uint64(uintptr(unsafe.Pointer(&idt))),
	}
	cpu.LoadIDT(uintptr(unsafe.Pointer(&desc)))
}
