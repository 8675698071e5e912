// Package intc abstracts the Interrupt Controller component (spec §4.4)
// behind a small interface implemented by kernel/driver/intc's APIC and GIC
// drivers, plus the registration table and spurious-IRQ accounting shared by
// both.
package intc

import (
	"minios/kernel/kerror"
	"minios/kernel/trap"
)

// Controller is the per-architecture interrupt controller contract.
type Controller interface {
	Enable(irq uint32)
	Disable(irq uint32)
	SetPriority(irq uint32, priority uint8)
	// Acknowledge returns the IRQ number currently being serviced, or
	// false for a spurious interrupt.
	Acknowledge() (irq uint32, ok bool)
	EndOfInterrupt(irq uint32)
}

// maxIRQs bounds the registration table; both GICv2 (SPI 32-1019, kept
// modest here) and a typical PC 8259-equivalent/IOAPIC setup fit inside it.
const maxIRQs = 256

var (
	active    Controller
	callbacks [maxIRQs]func()

	spuriousCount uint64
)

// ErrNoController is returned by operations attempted before Init.
var ErrNoController = &kerror.Error{Module: "intc", Message: "no controller registered"}

// Init installs the active controller and wires the trap package's IRQ
// vector to this package's dispatch loop. Exactly one controller is active
// at a time in this core (spec's non-goal: no SMP).
func Init(c Controller) {
	active = c
	trap.HandleIRQ(dispatch)
}

// Register installs the callback invoked when irq fires and unmasks it.
// Per spec §4.4, handlers must be short; deferred work belongs on the
// scheduler's deferred-work queue (see kernel/task).
func Register(irq uint32, handler func()) *kerror.Error {
	if active == nil {
		return ErrNoController
	}
	if irq >= maxIRQs {
		return &kerror.Error{Module: "intc", Message: "irq out of range"}
	}
	callbacks[irq] = handler
	active.Enable(irq)
	return nil
}

// Unregister masks irq and removes its callback.
func Unregister(irq uint32) {
	if active == nil || irq >= maxIRQs {
		return
	}
	active.Disable(irq)
	callbacks[irq] = nil
}

// SpuriousCount returns the number of acknowledge() calls that did not
// identify a real source.
func SpuriousCount() uint64 { return spuriousCount }

// dispatch implements spec §4.4's IRQ entry protocol: acknowledge, dispatch
// the registered callback (nested IRQs stay disabled for the duration, per
// spec §4.4's ordering rule — the entry stub that called us already masked
// the CPU's interrupt flag), then end-of-interrupt. A spurious IRQ is
// counted and dropped without invoking end_of_interrupt, matching hardware
// practice for spurious-vector delivery.
func dispatch(_ uint32) {
	if active == nil {
		return
	}

	irq, ok := active.Acknowledge()
	if !ok {
		spuriousCount++
		return
	}

	if cb := callbacks[irq]; cb != nil {
		cb()
	}

	active.EndOfInterrupt(irq)
}
