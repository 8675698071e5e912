package kfmt

import (
	"minios/kernel/cpu"
	"minios/kernel/kerror"
)

var (
	// haltFn is the halt routine a panic ends with. It is a package-level
	// variable; no test in this package replaces it.
	haltFn = cpu.Halt

	errRuntimePanic = &kerror.Error{Module: "rt", Message: "unknown cause"}
)

// Panic prints a register-dump-friendly error report to the active console
// and halts the CPU. It never returns, and also serves as the redirection
// target for the runtime's panic path (spec §7: "Exceptions in kernel mode
// that are not explicitly handled panic the system with a register dump
// over the UART").
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	var err *kerror.Error

	switch t := e.(type) {
	case *kerror.Error:
		err = t
	case string:
		panicString(t)
		return
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	default:
		err = errRuntimePanic
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** MiniOS panic: system halted ***")
	Printf("\n-----------------------------------\n")

	haltFn()
}

// panicString is the redirection target for runtime.throw.
//
//go:redirect-from runtime.throw
func panicString(msg string) {
	errRuntimePanic.Message = msg
	Panic(errRuntimePanic)
}
