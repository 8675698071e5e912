package trap

import "minios/kernel/kfmt"

// ExceptionHandlerFunc handles a synchronous exception. errorCode carries
// the architecture-defined cause word (spec §4.3's "cause word"); vector is
// the raw hardware vector/EC number for handlers that need finer
// discrimination than ExceptionKind offers (e.g. vmm's page-fault handler
// decoding the x86-64 error code bits).
type ExceptionHandlerFunc func(frame *TrapFrame, vector uint64, errorCode uint64) Action

// IRQHandlerFunc handles a hardware interrupt once the interrupt controller
// has acknowledged it; irqLine is the controller-relative IRQ number.
type IRQHandlerFunc func(irqLine uint32)

// SyscallHandlerFunc services the syscall vector; it reads arguments via
// frame.SyscallArgs() and writes its result via frame.SetSyscallReturn.
type SyscallHandlerFunc func(frame *TrapFrame)

var (
	exceptionHandlers [numExceptionKinds]ExceptionHandlerFunc
	irqHandler        IRQHandlerFunc
	syscallHandler    SyscallHandlerFunc

	// rescheduleFn is installed by kernel/task once the scheduler exists;
	// it is called whenever a handler returns Reschedule, after the
	// handler itself has run but before the stub restores a frame, so it
	// can pick a (possibly different) next task to resume.
	rescheduleFn func()

	// terminateFn is installed by kernel/task; called when a handler
	// returns Terminate for the currently running task.
	terminateFn func(reason string)
)

// HandleException registers the handler for one ExceptionKind, replacing
// any previous registration. Exactly one handler is active per kind.
func HandleException(kind ExceptionKind, handler ExceptionHandlerFunc) {
	exceptionHandlers[kind] = handler
}

// HandleIRQ registers the single hook the IRQ entry stub calls after the
// interrupt controller has identified and acknowledged the source. The
// interrupt controller package is the only expected caller; it demultiplexes
// further into per-device callbacks itself (spec §4.4).
func HandleIRQ(handler IRQHandlerFunc) {
	irqHandler = handler
}

// HandleSyscall registers the single hook the syscall vector dispatches
// into. kernel/syscall is the only expected caller.
func HandleSyscall(handler SyscallHandlerFunc) {
	syscallHandler = handler
}

// SetSchedulerHooks wires the Reschedule/Terminate actions to the task
// package's scheduler. Called once during kernel/task init.
func SetSchedulerHooks(reschedule func(), terminate func(reason string)) {
	rescheduleFn = reschedule
	terminateFn = terminate
}

// dispatchSync is called by the architecture entry stub for every
// synchronous exception vector. It classifies the vector, finds the
// registered handler (or panics if none is registered, per spec §7:
// "Exceptions in kernel mode that are not explicitly handled panic the
// system"), and acts on the returned Action.
//
//go:nosplit
func dispatchSync(vector uint64, errorCode uint64, raw *rawFrame) {
	frame := &TrapFrame{raw: *raw}
	kind := vectorToKind(vector)
	handler := exceptionHandlers[kind]
	if handler == nil {
		kfmt.Printf("\nunhandled %s (vector %d, error %d) at pc=%x\n", kind, vector, errorCode, frame.ProgramCounter())
		frame.Print(kfmt.GetOutputSink())
		panic(kind.String())
	}

	switch handler(frame, vector, errorCode) {
	case Terminate:
		if terminateFn != nil && frame.IsUserMode() {
			terminateFn(kind.String())
		} else {
			kfmt.Printf("\nfatal %s in kernel mode at pc=%x\n", kind, frame.ProgramCounter())
			frame.Print(kfmt.GetOutputSink())
			panic(kind.String())
		}
	case Reschedule:
		if rescheduleFn != nil {
			rescheduleFn()
		}
	case FaultHandled:
	}

	*raw = frame.raw
}

// dispatchIRQ is called by the architecture entry stub once the interrupt
// controller has identified the firing IRQ line.
//
//go:nosplit
func dispatchIRQ(irqLine uint32) {
	if irqHandler != nil {
		irqHandler(irqLine)
	}
}

// dispatchSyscall is called by the architecture entry stub for the syscall
// vector.
//
//go:nosplit
func dispatchSyscall(raw *rawFrame) {
	frame := &TrapFrame{raw: *raw}
	if syscallHandler != nil {
		syscallHandler(frame)
	} else {
		frame.SetSyscallReturn(-8) // -ENOSYS, kept numeric to avoid an import cycle with kerror
	}
	*raw = frame.raw
}
