//go:build amd64

package main

import "minios/kernel/kmain"

// multibootInfoPtr is populated by the rt0 stub (out of scope; spec §1's
// "boot stubs" external collaborator) before jumping here, with the
// physical address of the Multiboot2 information block GRUB left in EBX.
var multibootInfoPtr uintptr

// kernelStart, kernelEnd are populated by the rt0 stub from the linker
// script's _kernel_start/_kernel_end symbols.
var kernelStart, kernelEnd uintptr

// main is the only Go symbol the rt0 stub's assembly calls by name. It is
// a trampoline rather than kmain.Kmain itself so the compiler cannot
// inline and discard it for having no visible caller in the .o the
// assembly links against.
//
// main does not return.
func main() {
	kmain.Kmain(multibootInfoPtr, kernelStart, kernelEnd)
}
