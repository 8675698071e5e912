package trap

import "reflect"

// funcPC returns the entry address of a package-level function value,
// needed to hand the raw trap entry stubs' addresses to kernel/boot's
// IDT/exception-vector-table setup.
func funcPC(f interface{}) uintptr {
	return reflect.ValueOf(f).Pointer()
}
