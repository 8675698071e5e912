package task

import (
	"minios/kernel/cpu"
	"minios/kernel/driver/timer"
	"minios/kernel/kerror"
	"minios/kernel/sync"
	"minios/kernel/trap"
)

// TimeSliceTicks is the number of timer ticks a task runs before a
// Reschedule is forced, matching spec §4.8's "fixed time-slice" requirement.
const TimeSliceTicks = 10

var errOutOfTasks = kerror.FromErrno("task", kerror.ENOTASK)

// maxTasks bounds the PID space; spec §4.8 does not require dynamic growth
// beyond what a teaching kernel's shell and its children ever need
// concurrently.
const maxTasks = 1 << 16

// runQueue is an intrusive FIFO linked list, one per priority level, giving
// round-robin-within-priority with FIFO tie-break exactly as enqueued —
// the same singly-linked-list-over-slice choice kernel/device's Registry
// makes, here for the same reason: insertion order is an observable part
// of the scheduling contract, not an implementation detail a slice's
// append/remove churn could quietly violate.
type runQueue struct {
	head, tail *Task
}

func (q *runQueue) pushBack(t *Task) {
	t.next = nil
	if q.tail == nil {
		q.head, q.tail = t, t
		return
	}
	q.tail.next = t
	q.tail = t
}

func (q *runQueue) popFront() *Task {
	if q.head == nil {
		return nil
	}
	t := q.head
	q.head = t.next
	if q.head == nil {
		q.tail = nil
	}
	t.next = nil
	return t
}

var (
	schedLock sync.Spinlock
	queues    [numPriorities]runQueue
	current   *Task
	idle      *Task
	nextPID   uint32 = 1
	ticksLeft int
	sleeping  []*Task

	// allTasks records every Task created since Init, for the `ps` shell
	// built-in; it is never pruned (spec §5's reaper frees the Task object
	// on exit, not this bookkeeping slice — a teaching kernel's task count
	// is small enough that listing zombies alongside live tasks is fine).
	allTasks []*Task
)

// Init creates the idle task and marks the scheduler ready to run. Call
// once during kernel/kmain's startup, after kernel/trap and
// kernel/driver/timer are both initialized.
func Init() {
	// New rejects priorityIdle, so idle is built at PriorityLow and then
	// moved below every priority a real task can have.
	idle, _ = New(0, "idle", PriorityLow, idleLoop)
	idle.Priority = priorityIdle
	idle.State = StateRunning
	current = idle
	ticksLeft = TimeSliceTicks
	allTasks = append(allTasks, idle)

	trap.SetSchedulerHooks(Reschedule, func(reason string) { Exit() })
	timer.SetTickFn(onTick)
	sync.SetYieldFn(Yield)
}

func idleLoop() {
	for {
		cpuHalt()
	}
}

// Spawn creates a new task running entry at the given priority and makes it
// schedulable immediately.
func Spawn(name string, priority uint8, entry func()) (*Task, *kerror.Error) {
	if priority >= priorityIdle {
		return nil, errInvalidArgument
	}

	schedLock.Acquire()
	if nextPID == maxTasks {
		schedLock.Release()
		return nil, errOutOfTasks
	}
	pid := nextPID
	nextPID++
	schedLock.Release()

	t, err := New(pid, name, priority, entry)
	if err != nil {
		return nil, err
	}

	schedLock.Acquire()
	t.State = StateReady
	queues[priority].pushBack(t)
	allTasks = append(allTasks, t)
	schedLock.Release()
	return t, nil
}

// ListTasks returns a point-in-time snapshot of every task's PID, name,
// state and priority, ordered by creation — used by the `ps` shell
// built-in. It copies rather than returning *Task directly so a caller
// cannot reach into scheduler-owned state.
type TaskInfo struct {
	PID      uint32
	Name     string
	State    State
	Priority uint8
}

func ListTasks() []TaskInfo {
	schedLock.Acquire()
	defer schedLock.Release()

	out := make([]TaskInfo, len(allTasks))
	for i, t := range allTasks {
		out[i] = TaskInfo{PID: t.PID, Name: t.Name, State: t.State, Priority: t.Priority}
	}
	return out
}

// currentTask returns the task presently running on the CPU.
func currentTask() *Task { return current }

// Current is the public accessor for the running task, used by kernel/syscall
// to resolve getpid/getcwd/the fd table and similar per-task state.
func Current() *Task { return current }

// onTick is wired to kernel/driver/timer's per-tick callback; it counts down
// the running task's time slice and forces a reschedule once exhausted.
func onTick() {
	wakeSleepers(timer.NowUS())
	ticksLeft--
	if ticksLeft <= 0 {
		Reschedule()
	}
}

// Reschedule picks the next ready task (highest priority, FIFO within that
// priority) and switches to it, requeuing the previously running task if it
// is still runnable. Called from kernel/trap's dispatch loop whenever a
// handler returns trap.Reschedule, and directly by onTick for timer-driven
// preemption.
func Reschedule() {
	schedLock.Acquire()

	prev := current
	next := pickNext()

	if next == prev {
		ticksLeft = TimeSliceTicks
		schedLock.Release()
		return
	}

	if prev.State == StateRunning {
		prev.State = StateReady
		queues[prev.Priority].pushBack(prev)
	}
	next.State = StateRunning
	current = next
	ticksLeft = TimeSliceTicks

	schedLock.Release()
	contextSwitch(&prev.ctx.arch, &next.ctx.arch)
}

// pickNext returns the head of the highest-priority non-empty queue, or the
// idle task if every queue is empty. Must be called with schedLock held.
func pickNext() *Task {
	for p := 0; p < priorityIdle; p++ {
		if t := queues[p].popFront(); t != nil {
			return t
		}
	}
	return idle
}

// Yield voluntarily relinquishes the CPU for the remainder of the current
// time slice; used by sync.Spinlock once spinning too long, and available
// to kernel/syscall for an explicit yield-like sleep(0).
func Yield() {
	Reschedule()
}

// Block marks the current task StateBlocked and switches away. The caller
// is responsible for arranging some other code path (an IRQ handler, a
// timer callback) to call Unblock later — Block itself never re-adds the
// task to a run queue.
func Block() {
	schedLock.Acquire()
	prev := current
	prev.State = StateBlocked
	next := pickNext()
	next.State = StateRunning
	current = next
	ticksLeft = TimeSliceTicks
	schedLock.Release()

	contextSwitch(&prev.ctx.arch, &next.ctx.arch)
}

// Unblock moves t from StateBlocked back onto its priority's run queue.
func Unblock(t *Task) {
	schedLock.Acquire()
	if t.State == StateBlocked {
		t.State = StateReady
		queues[t.Priority].pushBack(t)
	}
	schedLock.Release()
}

// SleepUntil blocks the current task until the monotonic clock (spec
// §4.5's timer microsecond counter) reaches deadlineUS. kernel/driver/timer
// has no notion of sleeping tasks itself; onTick re-checks blocked sleepers
// each tick, keeping that coupling one-directional.
func SleepUntil(deadlineUS uint64) {
	schedLock.Acquire()
	prev := current
	prev.State = StateBlocked
	prev.sleepUntilUS = deadlineUS
	sleeping = append(sleeping, prev)
	next := pickNext()
	next.State = StateRunning
	current = next
	ticksLeft = TimeSliceTicks
	schedLock.Release()

	contextSwitch(&prev.ctx.arch, &next.ctx.arch)
}

// wakeSleepers is called once per tick and unblocks any task whose sleep
// deadline has passed, moving it back onto its priority's run queue.
func wakeSleepers(nowUS uint64) {
	schedLock.Acquire()
	defer schedLock.Release()

	remaining := sleeping[:0]
	for _, t := range sleeping {
		if t.State == StateBlocked && nowUS >= t.sleepUntilUS {
			t.State = StateReady
			t.sleepUntilUS = 0
			queues[t.Priority].pushBack(t)
		} else {
			remaining = append(remaining, t)
		}
	}
	sleeping = remaining
}

// Exit marks the current task a zombie and switches away permanently; it
// never returns to its caller. The idle task cannot exit.
func Exit() {
	schedLock.Acquire()
	prev := current
	if prev == idle {
		schedLock.Release()
		return
	}
	prev.State = StateZombie
	next := pickNext()
	next.State = StateRunning
	current = next
	ticksLeft = TimeSliceTicks
	schedLock.Release()

	contextSwitch(&prev.ctx.arch, &next.ctx.arch)
}

// cpuHalt is indirected so tests can run the idle task's loop body without
// executing the real HLT/WFI instruction; the real body never returns, so
// idleLoop's surrounding for-loop only matters for the test stub.
var cpuHalt = cpu.Halt
