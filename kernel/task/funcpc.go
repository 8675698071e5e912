package task

import "reflect"

// funcPC returns the entry address of a package-level function value, used
// to seed a new task's saved program counter.
func funcPC(f interface{}) uintptr {
	return reflect.ValueOf(f).Pointer()
}
