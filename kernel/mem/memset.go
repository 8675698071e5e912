package mem

import (
	"reflect"
	"unsafe"
)

// Memset sets size bytes at addr to value. Rather than looping byte by byte,
// it writes the first byte and then doubles the filled region on each
// iteration (log2(size) copies), which is worthwhile here because page and
// frame addresses are always suitably aligned for wide copies.
func Memset(addr uintptr, value byte, size Size) {
	if size == 0 {
		return
	}

	target := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: addr,
	}))

	target[0] = value
	for index := Size(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

// Memcopy copies size bytes from src to dst.
func Memcopy(src, dst uintptr, size Size) {
	if size == 0 {
		return
	}

	srcSlice := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: src,
	}))
	dstSlice := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: dst,
	}))

	copy(dstSlice, srcSlice)
}
