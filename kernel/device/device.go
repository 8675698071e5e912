// Package device implements the Device Registry component (spec §4.6):
// discovery of named hardware endpoints, driver registration, and
// name/type matching between the two.
package device

import (
	"minios/kernel/kerror"
)

// Type classifies a Device for driver matching.
type Type uint8

const (
	Timer Type = iota
	UART
	InterruptController
	Block
	Other
)

func (t Type) String() string {
	switch t {
	case Timer:
		return "timer"
	case UART:
		return "uart"
	case InterruptController:
		return "intc"
	case Block:
		return "block"
	default:
		return "other"
	}
}

// State is a Device's lifecycle stage.
type State uint8

const (
	Discovered State = iota
	Bound
	Initialized
	Failed
)

func (s State) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case Bound:
		return "bound"
	case Initialized:
		return "initialized"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// SupportedID is one (name, type) pair a Driver claims to handle.
type SupportedID struct {
	Name string
	Type Type
}

// Driver is the interface every device driver implements (spec §3's
// Driver entity: name, version, supported_ids).
type Driver interface {
	DriverName() string
	DriverVersion() (major, minor, patch uint16)
	SupportedIDs() []SupportedID
	// DriverInit performs one-time hardware initialization once bound to
	// a Device. It receives the bound Device so it can read BaseAddr/IRQ
	// and stash driver-private state via Device.SetPrivate.
	DriverInit(d *Device) *kerror.Error
}

// Device is a named hardware endpoint (spec §3's Device entity). Name is
// the binding key and must be unique within a Registry.
type Device struct {
	Name     string
	Type     Type
	BaseAddr uintptr
	IRQ      uint32
	hasIRQ   bool

	driver  Driver
	state   State
	private interface{}
}

// HasIRQ reports whether IRQ was set (some devices, e.g. polled UARTs
// during early boot, have none).
func (d *Device) HasIRQ() bool { return d.hasIRQ }

// SetIRQ records the device's IRQ line.
func (d *Device) SetIRQ(irq uint32) { d.IRQ, d.hasIRQ = irq, true }

// State returns the device's current lifecycle state.
func (d *Device) State() State { return d.state }

// Driver returns the bound driver, or nil if the device is still
// Discovered.
func (d *Device) Driver() Driver { return d.driver }

// SetPrivate stashes driver-private state on the device (e.g. a UART
// driver's receive ring buffer).
func (d *Device) SetPrivate(v interface{}) { d.private = v }

// Private retrieves the driver-private state previously stored via
// SetPrivate.
func (d *Device) Private() interface{} { return d.private }

var (
	// ErrDuplicateName is returned by RegisterDevice/RegisterDriver when
	// the name is already taken within this Registry.
	ErrDuplicateName = &kerror.Error{Module: "device", Message: "duplicate name"}
)
