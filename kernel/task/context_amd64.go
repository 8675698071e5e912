//go:build amd64

package task

// archContext holds the callee-saved register set the System V AMD64 ABI
// requires a function to preserve across a call: RBX, RBP, R12-R15, plus
// the stack pointer. contextSwitch (context_amd64.s) saves/restores exactly
// these; the instruction pointer is recovered implicitly via the RET at the
// end of contextSwitch, popping whatever return address sits on top of the
// restored stack.
type archContext struct {
	rbx, rbp, r12, r13, r14, r15 uintptr
	rsp                          uintptr
}

// initArchContext lays out stack so that contextSwitch's RET lands on
// entryPC with a 16-byte aligned stack, matching what a real `call
// entryPC` would have produced.
func initArchContext(ctx *archContext, stack []byte, entryPC uintptr) {
	top := stackTop(stack)
	top &^= 0xf // 16-byte align per the ABI's incoming-call convention

	top -= 8
	writeUintptr(top, entryPC)

	ctx.rsp = top
}

// contextSwitch saves the caller's callee-saved registers into old, loads
// next's, and resumes there.
func contextSwitch(old, next *archContext)
