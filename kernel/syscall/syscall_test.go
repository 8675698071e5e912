package syscall

import (
	"testing"

	"minios/kernel/kerror"
	"minios/kernel/trap"
)

func testImplementation() Implementation {
	ok := func(args [6]int64) int64 { return 0 }
	return Implementation{
		Exit: ok, Print: ok, Read: ok, Write: ok, Getpid: func([6]int64) int64 { return 42 }, Sleep: ok,
		Open: ok, Close: ok, ReadFile: ok, WriteFile: ok, Seek: ok, Mkdir: ok, Rmdir: ok, Unlink: ok,
		Getcwd: ok, Chdir: ok, Stat: ok, Readdir: ok, Exec: ok,
	}
}

func TestInitPanicsOnMissingHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Init to panic on an incomplete Implementation")
		}
	}()
	Init(Implementation{})
}

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	Init(testImplementation())

	f := trap.NewSyscallFrame(Getpid, [6]int64{})
	dispatch(f)
	if got := f.SyscallReturn(); got != 42 {
		t.Fatalf("getpid result = %d, want 42", got)
	}
}

func TestDispatchUnknownNumberReturnsENOSYS(t *testing.T) {
	Init(testImplementation())

	f := trap.NewSyscallFrame(999, [6]int64{})
	dispatch(f)
	if got := f.SyscallReturn(); got != int64(kerror.ENOSYS) {
		t.Fatalf("unknown syscall result = %d, want %d", got, kerror.ENOSYS)
	}
}

func TestNameLooksUpRegisteredSyscalls(t *testing.T) {
	Init(testImplementation())

	if got := Name(Write); got != "write" {
		t.Fatalf("Name(Write) = %q, want %q", got, "write")
	}
	if got := Name(999); got != "" {
		t.Fatalf("Name(999) = %q, want empty", got)
	}
}

func TestSetTraceTogglesDispatchTracing(t *testing.T) {
	Init(testImplementation())
	defer SetTrace(false)

	if Tracing() {
		t.Fatalf("tracing should default to off")
	}

	SetTrace(true)
	if !Tracing() {
		t.Fatalf("expected Tracing() to report on after SetTrace(true)")
	}

	f := trap.NewSyscallFrame(Getpid, [6]int64{})
	dispatch(f)
	if got := f.SyscallReturn(); got != 42 {
		t.Fatalf("getpid result = %d, want 42 (tracing must not change behavior)", got)
	}

	SetTrace(false)
	if Tracing() {
		t.Fatalf("expected Tracing() to report off after SetTrace(false)")
	}
}
