// Package trap implements the Trap Vectors component (spec §4.3): a single
// assembly stub per entry point builds a TrapFrame on the current stack and
// hands off to a typed Go handler; returning through the stub resumes the
// interrupted context bit-exactly (or, after a Reschedule, resumes whatever
// task the scheduler switched in).
package trap

import "io"

// TrapFrame is the portable view over the architecture-specific register
// snapshot the entry stub pushes. Handlers read/write through this type
// rather than the raw per-arch layout; SyscallArgs/SetSyscallReturn isolate the
// calling convention so kernel/syscall never needs a build-tagged file of
// its own.
type TrapFrame struct {
	raw rawFrame
}

// ProgramCounter returns the instruction pointer the trap occurred at (or,
// for a syscall, the instruction immediately after the trapping
// instruction, per the architecture's syscall-return convention).
func (f *TrapFrame) ProgramCounter() uintptr { return f.raw.pc() }

// SetProgramCounter overrides the resume address; used by fault handlers
// that retry the faulting instruction (e.g. a resolved copy-on-write fault)
// or that must skip over it.
func (f *TrapFrame) SetProgramCounter(pc uintptr) { f.raw.setPC(pc) }

// StackPointer returns the interrupted context's stack pointer.
func (f *TrapFrame) StackPointer() uintptr { return f.raw.sp() }

// IsUserMode reports whether the trapped context was running in user mode.
func (f *TrapFrame) IsUserMode() bool { return f.raw.isUserMode() }

// SyscallNumber returns the syscall number from the architecture's
// number-register convention (spec §4.9: "argument-register-based entry").
func (f *TrapFrame) SyscallNumber() int64 { return f.raw.syscallNumber() }

// SyscallArgs returns the six argument registers a0..a5.
func (f *TrapFrame) SyscallArgs() [6]int64 { return f.raw.syscallArgs() }

// SetSyscallReturn writes the syscall result back into the return-value
// register so it is visible to the caller when the stub resumes it.
func (f *TrapFrame) SetSyscallReturn(v int64) { f.raw.setSyscallReturn(v) }

// SyscallReturn reads back the value a prior SetSyscallReturn wrote.
func (f *TrapFrame) SyscallReturn() int64 { return f.raw.syscallReturn() }

// Print writes a register dump to w, used by the panic path (spec §7:
// "panic the system with a register dump over the UART").
func (f *TrapFrame) Print(w io.Writer) {
	f.raw.print(w)
}

// NewSyscallFrame builds a TrapFrame carrying the given syscall number and
// arguments, as if the entry stub had just captured it. Exported for
// kernel/syscall's tests, which otherwise have no way to drive dispatch
// without real hardware.
func NewSyscallFrame(number int64, args [6]int64) *TrapFrame {
	return newSyscallFrame(number, args)
}
