//go:build amd64

package trap

import (
	"io"

	"minios/kernel/kfmt"
)

// rawFrame mirrors the layout the amd64 entry stub (trap_amd64.s) pushes:
// callee- and caller-saved general purpose registers, then the CPU-pushed
// interrupt frame (RIP, CS, RFLAGS, RSP, SS), matching the x86-64 interrupt
// ABI. Syscalls use the SysV register convention repurposed as an argument
// convention: RAX=number, RDI,RSI,RDX,R10,R8,R9=a0..a5.
type rawFrame struct {
	R15, R14, R13, R12, R11, R10, R9, R8 uint64
	RBP, RDI, RSI, RDX, RCX, RBX, RAX    uint64
	// ErrorCode is 0 for vectors that do not push one; the stub pushes a
	// placeholder 0 to keep the frame layout uniform.
	ErrorCode uint64
	RIP, CS, RFLAGS, RSP, SS uint64
}

func (f *rawFrame) pc() uintptr   { return uintptr(f.RIP) }
func (f *rawFrame) setPC(pc uintptr) { f.RIP = uint64(pc) }
func (f *rawFrame) sp() uintptr   { return uintptr(f.RSP) }

// isUserMode checks the low two bits of CS, which hold the requested
// privilege level; MiniOS's core does not install a ring-3 GDT selector, so
// this is currently always false, kept for forward compatibility with the
// not-yet-implemented user/kernel split spec.md explicitly scopes out.
func (f *rawFrame) isUserMode() bool { return f.CS&0x3 != 0 }

func (f *rawFrame) syscallNumber() int64 { return int64(f.RAX) }

func (f *rawFrame) syscallArgs() [6]int64 {
	return [6]int64{int64(f.RDI), int64(f.RSI), int64(f.RDX), int64(f.R10), int64(f.R8), int64(f.R9)}
}

func (f *rawFrame) setSyscallReturn(v int64) { f.RAX = uint64(v) }
func (f *rawFrame) syscallReturn() int64     { return int64(f.RAX) }

// newSyscallFrame builds a frame carrying the given syscall number and
// arguments, as if the entry stub had just pushed it.
func newSyscallFrame(number int64, args [6]int64) *TrapFrame {
	return &TrapFrame{raw: rawFrame{
		RAX: uint64(number),
		RDI: uint64(args[0]), RSI: uint64(args[1]), RDX: uint64(args[2]),
		R10: uint64(args[3]), R8: uint64(args[4]), R9: uint64(args[5]),
	}}
}

func (f *rawFrame) print(w io.Writer) {
	kfmt.Fprintf(w, "RIP=%16x RSP=%16x RFLAGS=%16x\n", f.RIP, f.RSP, f.RFLAGS)
	kfmt.Fprintf(w, "RAX=%16x RBX=%16x RCX=%16x RDX=%16x\n", f.RAX, f.RBX, f.RCX, f.RDX)
	kfmt.Fprintf(w, "RSI=%16x RDI=%16x RBP=%16x\n", f.RSI, f.RDI, f.RBP)
	kfmt.Fprintf(w, "R8=%16x R9=%16x R10=%16x R11=%16x\n", f.R8, f.R9, f.R10, f.R11)
	kfmt.Fprintf(w, "R12=%16x R13=%16x R14=%16x R15=%16x\n", f.R12, f.R13, f.R14, f.R15)
	kfmt.Fprintf(w, "error_code=%16x CS=%16x SS=%16x\n", f.ErrorCode, f.CS, f.SS)
}
