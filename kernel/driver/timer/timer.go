// Package timer implements the Timer half of spec §4.5: a monotonic
// microsecond clock and a periodic tick that debits the running task's time
// slice. kernel/driver/timer/pit.go, apictimer.go (amd64) and
// armgeneric.go (arm64) provide the three concrete device.Driver
// implementations the device registry can bind by name.
package timer

import "minios/kernel/sync"

// DefaultFrequencyHz is the tick frequency spec §4.5 specifies as the
// default.
const DefaultFrequencyHz = 100

var (
	lock   sync.Spinlock
	nowUS  uint64
	active Timer

	// tickFn is called by the driver's IRQ handler on every tick; wired
	// to the scheduler's time-slice accounting by kernel/task.Init.
	tickFn func()
)

// Timer is the contract a bound timer driver exposes once Initialized.
type Timer interface {
	// FrequencyHz returns the programmed tick frequency.
	FrequencyHz() uint32
}

// SetActive records the timer driver that owns the monotonic clock. Called
// by each driver's DriverInit on success.
func SetActive(t Timer) { active = t }

// Active returns the currently bound timer driver, or nil before any timer
// has initialized.
func Active() Timer { return active }

// SetTickFn installs the callback the tick IRQ invokes after advancing the
// clock. kernel/task wires this to time-slice accounting during its Init.
func SetTickFn(fn func()) { tickFn = fn }

// OnTick advances the monotonic clock by one tick's worth of microseconds
// and invokes the registered tick callback. Drivers call this from their
// IRQ handler; it is the single place tick accounting happens so every
// driver stays consistent regardless of its underlying hardware period.
func OnTick(freqHz uint32) {
	lock.Acquire()
	if freqHz == 0 {
		freqHz = DefaultFrequencyHz
	}
	nowUS += uint64(1_000_000 / freqHz)
	lock.Release()

	if tickFn != nil {
		tickFn()
	}
}

// NowUS returns microseconds elapsed since the timer was initialized.
func NowUS() uint64 {
	lock.Acquire()
	defer lock.Release()
	return nowUS
}

// SleepUntil busy-waits until NowUS reaches deadlineUS; it does not block
// the calling task. The sleep syscall handler in kernel/kmain uses
// task.SleepUntil instead, which blocks the task until a tick wakes it.
func SleepUntil(deadlineUS uint64) {
	for NowUS() < deadlineUS {
	}
}
