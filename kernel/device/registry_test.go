package device

import (
	"testing"

	"minios/kernel/kerror"
)

type fakeDriver struct {
	name       string
	ids        []SupportedID
	initErr    *kerror.Error
	initCalled int
}

func (f *fakeDriver) DriverName() string                        { return f.name }
func (f *fakeDriver) DriverVersion() (uint16, uint16, uint16)    { return 1, 0, 0 }
func (f *fakeDriver) SupportedIDs() []SupportedID                { return f.ids }
func (f *fakeDriver) DriverInit(d *Device) *kerror.Error {
	f.initCalled++
	return f.initErr
}

func TestDeviceWithMatchingDriverInitializes(t *testing.T) {
	var r Registry
	drv := &fakeDriver{name: "pl011-drv", ids: []SupportedID{{Name: "pl011", Type: UART}}}
	if err := r.RegisterDriver(drv); err != nil {
		t.Fatalf("RegisterDriver: %v", err)
	}
	dev := &Device{Name: "pl011", Type: UART}
	if err := r.RegisterDevice(dev); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if dev.State() != Initialized {
		t.Fatalf("expected Initialized, got %v", dev.State())
	}
	if drv.initCalled != 1 {
		t.Fatalf("DriverInit called %d times, want 1", drv.initCalled)
	}
}

func TestDeviceWithoutMatchingDriverStaysDiscovered(t *testing.T) {
	var r Registry
	drv := &fakeDriver{name: "ns16550-drv", ids: []SupportedID{{Name: "ns16550", Type: UART}}}
	r.RegisterDriver(drv)
	dev := &Device{Name: "pl011", Type: UART}
	r.RegisterDevice(dev)
	if dev.State() != Discovered {
		t.Fatalf("expected Discovered, got %v", dev.State())
	}
}

func TestDriverRegisteredAfterDeviceStillBinds(t *testing.T) {
	var r Registry
	dev := &Device{Name: "pit", Type: Timer}
	r.RegisterDevice(dev)
	drv := &fakeDriver{name: "pit-drv", ids: []SupportedID{{Name: "pit", Type: Timer}}}
	r.RegisterDriver(drv)
	if dev.State() != Initialized {
		t.Fatalf("expected Initialized after late driver registration, got %v", dev.State())
	}
}

func TestFailedInitLeavesDriverUnbound(t *testing.T) {
	var r Registry
	drv := &fakeDriver{name: "bad-drv", ids: []SupportedID{{Name: "bad", Type: Other}}, initErr: &kerror.Error{Module: "test", Message: "boom"}}
	r.RegisterDriver(drv)
	dev := &Device{Name: "bad", Type: Other}
	r.RegisterDevice(dev)
	if dev.State() != Failed {
		t.Fatalf("expected Failed, got %v", dev.State())
	}
	if dev.Driver() != nil {
		t.Fatalf("driver must be unbound after a failed init")
	}
}

func TestDuplicateNameRejected(t *testing.T) {
	var r Registry
	r.RegisterDevice(&Device{Name: "dup", Type: Other})
	if err := r.RegisterDevice(&Device{Name: "dup", Type: Other}); err != ErrDuplicateName {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}
