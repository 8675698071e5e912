//go:build arm64

package trap

import (
	"io"

	"minios/kernel/kfmt"
)

// rawFrame mirrors the layout the arm64 entry stub (trap_arm64.s) pushes:
// X0-X30, SP_EL0, ELR_EL1 (resume PC), SPSR_EL1 (saved processor state). A
// syscall (SVC) passes its number in X8 and arguments in X0-X5, following
// the Linux AArch64 syscall convention the reference pool's ARM64 ports
// (and QEMU's `virt` machine expectations) assume.
type rawFrame struct {
	X [31]uint64
	SP_EL0, ELR_EL1, SPSR_EL1 uint64
}

func (f *rawFrame) pc() uintptr      { return uintptr(f.ELR_EL1) }
func (f *rawFrame) setPC(pc uintptr) { f.ELR_EL1 = uint64(pc) }
func (f *rawFrame) sp() uintptr      { return uintptr(f.SP_EL0) }

// isUserMode inspects SPSR_EL1's M[3:2] field: 0 means the exception was
// taken from EL0.
func (f *rawFrame) isUserMode() bool { return f.SPSR_EL1&0xC == 0 }

func (f *rawFrame) syscallNumber() int64 { return int64(f.X[8]) }

func (f *rawFrame) syscallArgs() [6]int64 {
	return [6]int64{int64(f.X[0]), int64(f.X[1]), int64(f.X[2]), int64(f.X[3]), int64(f.X[4]), int64(f.X[5])}
}

func (f *rawFrame) setSyscallReturn(v int64) { f.X[0] = uint64(v) }
func (f *rawFrame) syscallReturn() int64     { return int64(f.X[0]) }

// newSyscallFrame builds a frame carrying the given syscall number and
// arguments, as if the entry stub had just pushed it.
func newSyscallFrame(number int64, args [6]int64) *TrapFrame {
	raw := rawFrame{}
	raw.X[8] = uint64(number)
	for i, a := range args {
		raw.X[i] = uint64(a)
	}
	return &TrapFrame{raw: raw}
}

func (f *rawFrame) print(w io.Writer) {
	kfmt.Fprintf(w, "ELR_EL1=%16x SP_EL0=%16x SPSR_EL1=%16x\n", f.ELR_EL1, f.SP_EL0, f.SPSR_EL1)
	for i := 0; i < 31; i += 4 {
		for j := i; j < i+4 && j < 31; j++ {
			kfmt.Fprintf(w, "X%d=%16x ", j, f.X[j])
		}
		kfmt.Fprintf(w, "\n")
	}
}
