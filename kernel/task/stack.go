package task

import "unsafe"

// stackTop returns the first address past the end of stack, the initial
// value every stack pointer on this kernel's two supported architectures
// starts from (both grow down).
func stackTop(stack []byte) uintptr {
	return uintptr(unsafe.Pointer(&stack[0])) + uintptr(len(stack))
}

// writeUintptr stores v at addr; used only to seed a brand-new task's
// initial stack frame before it has ever run.
func writeUintptr(addr uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = v
}
