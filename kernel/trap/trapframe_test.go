package trap

import "testing"

func TestSyscallFrameRoundTripsNumberAndArgs(t *testing.T) {
	args := [6]int64{10, 20, 30, 40, 50, 60}
	f := NewSyscallFrame(42, args)

	if got := f.SyscallNumber(); got != 42 {
		t.Fatalf("SyscallNumber() = %d, want 42", got)
	}
	if got := f.SyscallArgs(); got != args {
		t.Fatalf("SyscallArgs() = %v, want %v", got, args)
	}
}

func TestSetSyscallReturnIsVisibleOnTheSameFrame(t *testing.T) {
	f := NewSyscallFrame(1, [6]int64{})
	f.SetSyscallReturn(-5)
	if got := f.SyscallReturn(); got != -5 {
		t.Fatalf("SyscallReturn() = %d, want -5", got)
	}
}

func TestDispatchSyscallFallsBackToENOSYS(t *testing.T) {
	syscallHandler = nil
	raw := newSyscallFrame(99, [6]int64{}).raw
	dispatchSyscall(&raw)
	if got := raw.syscallReturn(); got != -8 {
		t.Fatalf("unhandled syscall result = %d, want -8 (ENOSYS)", got)
	}
}

func TestDispatchSyscallInvokesRegisteredHandler(t *testing.T) {
	var gotNumber int64
	HandleSyscall(func(f *TrapFrame) {
		gotNumber = f.SyscallNumber()
		f.SetSyscallReturn(7)
	})
	defer func() { syscallHandler = nil }()

	raw := newSyscallFrame(3, [6]int64{}).raw
	dispatchSyscall(&raw)

	if gotNumber != 3 {
		t.Fatalf("handler saw syscall number %d, want 3", gotNumber)
	}
}
