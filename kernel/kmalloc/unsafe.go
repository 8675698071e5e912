package kmalloc

import "unsafe"

func ptrAt(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}
