package device

import (
	"strconv"

	"minios/kernel/kerror"
	"minios/kernel/kfmt"
)

// deviceNode and driverNode back the singly-linked lists spec §4.6
// describes. A plain Go slice would work too, but the spec calls out the
// list-publish ordering explicitly (§5/§9): new nodes are fully
// initialized before the pointer that makes them reachable is written, and
// that publish must not be reordered ahead of the node's field writes by an
// aggressive optimizer. A linked list makes that single-pointer-write
// publish step explicit in the code; a slice append hides it behind
// runtime.growslice.
type deviceNode struct {
	dev  *Device
	next *deviceNode
}

type driverNode struct {
	drv  Driver
	next *driverNode
}

// Registry holds the process-wide device and driver lists. Per spec §5,
// registration happens only during single-threaded init; the core provides
// no hotplug API, so no locking is required here beyond what callers that
// mutate it from more than one task would need to add themselves.
type Registry struct {
	devices *deviceNode
	drivers *driverNode
}

// RegisterDevice adds d to the registry and immediately attempts to match
// it against every already-registered driver.
func (r *Registry) RegisterDevice(d *Device) *kerror.Error {
	if r.findDevice(d.Name) != nil {
		return ErrDuplicateName
	}

	node := &deviceNode{dev: d}
	// publish: node is fully constructed above; only now does it become
	// reachable from r.devices. memoryBarrier prevents the compiler from
	// hoisting this store ahead of node's field initialization.
	memoryBarrier()
	node.next = r.devices
	r.devices = node

	for drv := r.drivers; drv != nil; drv = drv.next {
		r.tryBind(d, drv.drv)
	}
	return nil
}

// RegisterDriver adds dr to the registry and re-scans devices, binding any
// that match.
func (r *Registry) RegisterDriver(dr Driver) *kerror.Error {
	for n := r.drivers; n != nil; n = n.next {
		if n.drv.DriverName() == dr.DriverName() {
			return ErrDuplicateName
		}
	}

	node := &driverNode{drv: dr}
	memoryBarrier()
	node.next = r.drivers
	r.drivers = node

	for dn := r.devices; dn != nil; dn = dn.next {
		if dn.dev.driver == nil {
			r.tryBind(dn.dev, dr)
		}
	}
	return nil
}

// tryBind implements the match rule: (device.name, device.type) must appear
// in driver.supported_ids. A match transitions Discovered->Bound, runs
// DriverInit exactly once, and transitions Bound->Initialized on success or
// ->Failed (leaving the driver unbound) otherwise.
func (r *Registry) tryBind(d *Device, dr Driver) {
	if d.driver != nil {
		return
	}

	matched := false
	for _, id := range dr.SupportedIDs() {
		if id.Name == d.Name && id.Type == d.Type {
			matched = true
			break
		}
	}
	if !matched {
		return
	}

	d.driver = dr
	d.state = Bound

	w := driverInitWriter(d, dr)
	if err := dr.DriverInit(d); err != nil {
		kfmt.Fprintf(w, "init failed: %s\n", err.Message)
		d.state = Failed
		d.driver = nil
		return
	}
	kfmt.Fprintf(w, "initialized\n")
	d.state = Initialized
}

// driverInitWriter builds the PrefixWriter every line a driver's bind/init
// outcome is reported through goes out via, labeled per spec §4.6's device/
// driver binding model: "[device-name driver-name(version)]: ".
func driverInitWriter(d *Device, dr Driver) *kfmt.PrefixWriter {
	major, minor, patch := dr.DriverVersion()
	prefix := "[" + d.Name + " " + dr.DriverName() + "(" +
		strconv.Itoa(int(major)) + "." + strconv.Itoa(int(minor)) + "." + strconv.Itoa(int(patch)) +
		")]: "
	return &kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: []byte(prefix)}
}

// findDevice returns the device named name, or nil.
func (r *Registry) findDevice(name string) *Device {
	for n := r.devices; n != nil; n = n.next {
		if n.dev.Name == name {
			return n.dev
		}
	}
	return nil
}

// Lookup returns the device named name and whether it was found.
func (r *Registry) Lookup(name string) (*Device, bool) {
	d := r.findDevice(name)
	return d, d != nil
}

// Visit calls fn for every registered device, stopping early if fn returns
// false.
func (r *Registry) Visit(fn func(*Device) bool) {
	for n := r.devices; n != nil; n = n.next {
		if !fn(n.dev) {
			return
		}
	}
}

// memoryBarrier is a compiler-visible no-op that prevents reordering of the
// preceding stores past this point, implementing spec §5's "explicit
// compiler barriers between 'link the new node into the list head' and any
// preceding field writes to the new node". It is an empty call the compiler
// may not inline, with no runtime.KeepAlive or sync/atomic involved: on a
// single-CPU kernel this is strictly a compiler-ordering concern rather than
// a hardware one.
//
//go:noinline
func memoryBarrier() {}
