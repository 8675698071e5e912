package task

import "testing"

// resetScheduler restores package-level scheduler state between tests. The
// scheduler is a singleton by design (there is exactly one CPU), so tests
// must not run in parallel.
func resetScheduler() {
	queues = [numPriorities]runQueue{}
	current = nil
	idle = nil
	nextPID = 1
	sleeping = nil
}

func TestRunQueueIsFIFO(t *testing.T) {
	var q runQueue
	a := &Task{PID: 1}
	b := &Task{PID: 2}
	c := &Task{PID: 3}
	q.pushBack(a)
	q.pushBack(b)
	q.pushBack(c)

	for _, want := range []*Task{a, b, c} {
		if got := q.popFront(); got != want {
			t.Fatalf("popFront() = pid %d, want pid %d", got.PID, want.PID)
		}
	}
	if q.popFront() != nil {
		t.Fatalf("expected an empty queue")
	}
}

func TestPickNextPrefersHigherPriority(t *testing.T) {
	resetScheduler()
	defer resetScheduler()

	idle, _ = New(0, "idle", PriorityLow, func() {})
	idle.Priority = priorityIdle

	low, _ := New(1, "low", PriorityLow, func() {})
	high, _ := New(2, "high", PriorityHigh, func() {})
	queues[PriorityLow].pushBack(low)
	queues[PriorityHigh].pushBack(high)

	if got := pickNext(); got != high {
		t.Fatalf("pickNext() = pid %d, want the high-priority task", got.PID)
	}
}

func TestPickNextFallsBackToIdle(t *testing.T) {
	resetScheduler()
	defer resetScheduler()

	idle, _ = New(0, "idle", PriorityLow, func() {})
	idle.Priority = priorityIdle
	if got := pickNext(); got != idle {
		t.Fatalf("expected idle when every run queue is empty")
	}
}

func TestSpawnRejectsIdlePriority(t *testing.T) {
	resetScheduler()
	defer resetScheduler()

	if _, err := Spawn("bad", priorityIdle, func() {}); err == nil {
		t.Fatalf("expected Spawn to reject the reserved idle priority")
	}
}

func TestSpawnEnqueuesReadyTask(t *testing.T) {
	resetScheduler()
	defer resetScheduler()

	tk, err := Spawn("shell", PriorityNormal, func() {})
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	if tk.State != StateReady {
		t.Fatalf("state = %v, want Ready", tk.State)
	}
	if got := queues[PriorityNormal].popFront(); got != tk {
		t.Fatalf("spawned task was not enqueued on its priority's run queue")
	}
}

func TestFdTableAllocReusesLowestFreeSlot(t *testing.T) {
	var fds FdTable
	a := fds.Alloc("stdin")
	b := fds.Alloc("stdout")
	if a != 0 || b != 1 {
		t.Fatalf("got fds %d,%d want 0,1", a, b)
	}

	fds.Release(a)
	c := fds.Alloc("reopened")
	if c != 0 {
		t.Fatalf("Alloc after Release = %d, want the freed fd 0 reused", c)
	}

	if _, ok := fds.Get(a); !ok {
		t.Fatalf("Get did not see the reused fd")
	}
	if _, ok := fds.Get(b); !ok {
		t.Fatalf("Get lost an untouched fd")
	}
}

func TestFdTableGetMissingFd(t *testing.T) {
	var fds FdTable
	if _, ok := fds.Get(3); ok {
		t.Fatalf("expected Get on an unopened fd to fail")
	}
}

func TestWakeSleepersRequeuesExpiredOnly(t *testing.T) {
	resetScheduler()
	defer resetScheduler()

	early, _ := New(1, "early", PriorityNormal, func() {})
	early.State = StateBlocked
	early.sleepUntilUS = 100

	late, _ := New(2, "late", PriorityNormal, func() {})
	late.State = StateBlocked
	late.sleepUntilUS = 10_000

	sleeping = []*Task{early, late}

	wakeSleepers(500)

	if early.State != StateReady {
		t.Fatalf("expected the expired sleeper to become Ready")
	}
	if late.State != StateBlocked {
		t.Fatalf("expected the not-yet-expired sleeper to stay Blocked")
	}
	if len(sleeping) != 1 || sleeping[0] != late {
		t.Fatalf("sleeping list should retain only the still-blocked task")
	}
}
