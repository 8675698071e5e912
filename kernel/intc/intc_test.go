package intc

import "testing"

type fakeController struct {
	enabled  map[uint32]bool
	nextIRQ  uint32
	hasIRQ   bool
	eoiCalls []uint32
}

func (f *fakeController) Enable(irq uint32)                { f.enabled[irq] = true }
func (f *fakeController) Disable(irq uint32)                { f.enabled[irq] = false }
func (f *fakeController) SetPriority(irq uint32, p uint8)   {}
func (f *fakeController) EndOfInterrupt(irq uint32)         { f.eoiCalls = append(f.eoiCalls, irq) }
func (f *fakeController) Acknowledge() (uint32, bool) {
	if !f.hasIRQ {
		return 0, false
	}
	return f.nextIRQ, true
}

func TestRegisterEnablesAndDispatches(t *testing.T) {
	fc := &fakeController{enabled: map[uint32]bool{}, nextIRQ: 5, hasIRQ: true}
	Init(fc)

	fired := false
	if err := Register(5, func() { fired = true }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !fc.enabled[5] {
		t.Fatalf("Register did not enable the IRQ")
	}

	dispatch(0)
	if !fired {
		t.Fatalf("callback was not invoked")
	}
	if len(fc.eoiCalls) != 1 || fc.eoiCalls[0] != 5 {
		t.Fatalf("EndOfInterrupt not called for irq 5: %v", fc.eoiCalls)
	}
}

func TestSpuriousIRQCounted(t *testing.T) {
	fc := &fakeController{enabled: map[uint32]bool{}, hasIRQ: false}
	Init(fc)
	before := SpuriousCount()
	dispatch(0)
	if SpuriousCount() != before+1 {
		t.Fatalf("spurious IRQ was not counted")
	}
	if len(fc.eoiCalls) != 0 {
		t.Fatalf("EndOfInterrupt must not be called for a spurious IRQ")
	}
}

func TestUnregisterDisablesAndClearsCallback(t *testing.T) {
	fc := &fakeController{enabled: map[uint32]bool{}, nextIRQ: 7, hasIRQ: true}
	Init(fc)
	calls := 0
	Register(7, func() { calls++ })
	Unregister(7)
	if fc.enabled[7] {
		t.Fatalf("Unregister did not disable the IRQ")
	}
	dispatch(0)
	if calls != 0 {
		t.Fatalf("callback still fired after Unregister")
	}
}
