// Package sync provides the synchronization primitives available to
// freestanding kernel code: a spinlock, and a preemption-disable guard used
// to protect the short critical sections spec §5 calls out (physical
// allocator bitmap, kernel heap, scheduler run queue, per-task fd tables,
// device/mount/filesystem-type/syscall tables during init).
package sync

import "sync/atomic"

// yieldFn, when non-nil, is installed by the scheduler (kernel/task) once
// task switching is available so a spinning Acquire can yield the CPU
// instead of busy-waiting the whole timeslice away.
var yieldFn func()

// SetYieldFn registers the scheduler's yield function. Called once during
// kernel/task init; nil is a valid value during early boot before tasks
// exist.
func SetYieldFn(fn func()) {
	yieldFn = fn
}

// Spinlock is a lock where a task trying to acquire it busy-waits until the
// lock becomes available. Re-acquiring a lock already held by the current
// task deadlocks; MiniOS is single-CPU so there is no contention across
// cores to reason about, only against interrupt handlers and other tasks.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock is held by the caller.
func (l *Spinlock) Acquire() {
	attempts := 0
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		attempts++
		if attempts > 1000 && yieldFn != nil {
			yieldFn()
			attempts = 0
		}
	}
}

// TryToAcquire attempts to acquire the lock without blocking, returning
// whether it succeeded.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Release relinquishes a held lock. Calling Release on a free lock is a
// no-op.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// Critical disables interrupts for the duration of fn and enables them
// afterwards, whatever their state was before the call; a Critical nested
// inside another re-enables interrupts when it returns. This is the mechanism spec §5 requires for the
// process-wide tables mutated only during init, and for the short
// bitmap/heap/run-queue/fd-table critical sections mutated during normal
// operation on this single-CPU kernel.
func Critical(fn func()) {
	disableInterruptsFn()
	defer enableInterruptsFn()
	fn()
}

// disableInterruptsFn/enableInterruptsFn are indirected through variables so
// tests can run this package without the cpu package's assembly stubs.
var (
	disableInterruptsFn = func() {}
	enableInterruptsFn  = func() {}
)

// BindInterruptControl wires Critical to the real cpu.DisableInterrupts /
// cpu.EnableInterrupts pair. No kernel package calls it, so Critical's
// hooks stay the no-op defaults unless a caller binds them. The pair is
// kept out of this package's import graph directly so kernel/sync has no dependency
// on the architecture layer and stays trivially unit-testable.
func BindInterruptControl(disable, enable func()) {
	disableInterruptsFn = disable
	enableInterruptsFn = enable
}
