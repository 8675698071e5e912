package task

import "testing"

func TestNewRejectsIdleOrHigherPriority(t *testing.T) {
	if _, err := New(1, "bad", priorityIdle, func() {}); err == nil {
		t.Fatalf("expected New to reject a priority at or above priorityIdle")
	}
}

func TestNewProducesReadyForRunState(t *testing.T) {
	tk, err := New(7, "worker", PriorityNormal, func() {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if tk.State != StateNew {
		t.Fatalf("State = %v, want StateNew", tk.State)
	}
	if tk.PID != 7 || tk.Name != "worker" {
		t.Fatalf("unexpected task identity: %+v", tk)
	}
	if tk.ctx.arch == (archContext{}) {
		t.Fatalf("expected initContext to populate the saved context")
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateNew:     "new",
		StateReady:   "ready",
		StateRunning: "running",
		StateBlocked: "blocked",
		StateZombie:  "zombie",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
