//go:build arm64

package task

// archContext holds the AArch64 callee-saved register set (AAPCS64 x19-x28,
// frame pointer x29, link register x30) plus the stack pointer.
// contextSwitch (context_arm64.s) saves/restores exactly these; resuming a
// task is a branch to the saved LR via RET, not a real function return.
type archContext struct {
	x19, x20, x21, x22, x23, x24, x25, x26, x27, x28 uintptr
	fp, lr uintptr
	sp     uintptr
}

// initArchContext seeds LR with entryPC so contextSwitch's final RET
// branches there the first time this task runs, and aligns SP to 16 bytes
// as AAPCS64 requires at every public interface, including a function
// entry reached via RET.
func initArchContext(ctx *archContext, stack []byte, entryPC uintptr) {
	top := stackTop(stack)
	top &^= 0xf

	ctx.sp = top
	ctx.lr = entryPC
	ctx.fp = 0
}

// contextSwitch saves the caller's callee-saved registers into old, loads
// next's, and resumes there.
func contextSwitch(old, next *archContext)
