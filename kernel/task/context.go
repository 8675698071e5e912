package task

// initContext prepares ctx so that the first contextSwitch into this task
// resumes execution at runTrampoline on top of the given stack.
func initContext(ctx *Context, stack []byte) {
	initArchContext(&ctx.arch, stack, funcPC(runTrampoline))
}

// runTrampoline is the landing point for a task's very first context
// switch. It cannot take the entry function as a normal argument because
// the switch that gets it here is a raw register/stack swap, not a Go call
// — so it reads the entry function off the task the scheduler has already
// marked current, exactly as currentTask is expected to be valid the
// instant a switch completes.
func runTrampoline() {
	t := currentTask()
	t.entry()
	Exit()
}
