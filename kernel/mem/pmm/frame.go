// Package pmm manages physical memory frame allocation: the bitmap-backed
// allocator described in spec §4.1.
package pmm

import (
	"math"

	"minios/kernel/mem"
)

// Frame identifies a physical page-sized region of memory by index; frame i
// covers [i*PageSize, (i+1)*PageSize).
type Frame uintptr

// InvalidFrame is returned by allocators that fail to reserve a frame.
const InvalidFrame = Frame(math.MaxUint64)

// Valid reports whether f is a usable frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical address frame f starts at.
func (f Frame) Address() uintptr {
	return uintptr(f) << mem.PageShift
}

// FrameFromAddress returns the frame containing the physical address addr.
func FrameFromAddress(addr uintptr) Frame {
	return Frame(addr >> mem.PageShift)
}
