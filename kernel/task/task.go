// Package task implements the Task and Scheduler components (spec §4.8): a
// single-CPU, priority round-robin scheduler with FIFO tie-break among equal
// priorities, cooperating with kernel/trap's Reschedule action and
// kernel/driver/timer's tick callback for preemption.
package task

import (
	"minios/kernel/kerror"
	"minios/kernel/mem"
)

// State is a Task's position in its lifecycle (spec §4.8).
type State uint8

// Task lifecycle states.
const (
	StateNew State = iota
	StateReady
	StateRunning
	StateBlocked
	StateZombie
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// Priority levels; lower numeric value runs first. The idle task sits below
// every real priority so it only runs when nothing else is ready.
const (
	PriorityHigh   = 0
	PriorityNormal = 1
	PriorityLow    = 2
	priorityIdle   = 3
	numPriorities  = 4
)

// Context is the architecture-specific register set saved across a context
// switch; see context_amd64.go/context_arm64.go.
type Context struct {
	arch archContext
}

// Task is one schedulable unit of execution. MiniOS has no address-space
// separation between tasks (spec §4.8 Non-goals: no virtual memory
// isolation between tasks), so a Task is a stack plus a register context,
// not a process.
type Task struct {
	PID      uint32
	Name     string
	State    State
	Priority uint8

	ctx   Context
	stack []byte // backing store for the task's stack, owned by this Task
	entry func()  // run once, on first switch into this Task, by runTrampoline

	// sleepUntilUS is valid only while State == StateBlocked and the block
	// reason is a timed sleep (spec §4.8's sleep(ms) syscall); 0 otherwise.
	sleepUntilUS uint64

	fds FdTable
	cwd string

	next *Task // intrusive link within whichever queue currently owns this Task
}

// Fds returns the task's fd table. kernel/syscall and kernel/shell use this
// to resolve fd arguments against the calling (or current) task without
// kernel/task needing to know anything about kernel/fs/vfs.
func (t *Task) Fds() *FdTable { return &t.fds }

// Cwd returns the task's current working directory, an already-canonical
// absolute path.
func (t *Task) Cwd() string { return t.cwd }

// SetCwd replaces the task's working directory. Callers (kernel/syscall's
// chdir handler) are responsible for canonicalizing and validating path
// before calling this.
func (t *Task) SetCwd(path string) { t.cwd = path }

// FdTable is the per-task small-integer fd table (spec §4.11's FdTable).
// fd 0/1/2 are reserved for stdin/stdout/stderr by convention; kernel/kmain's
// open and close syscall handlers fill and empty it through Alloc/Release.
type FdTable struct {
	entries []fdEntry
}

type fdEntry struct {
	inUse bool
	file  interface{} // *vfs.OpenFile; kept as interface{} to avoid an import cycle with kernel/fs/vfs
}

// Alloc reserves the lowest free fd and returns it. fd values stay compact:
// a closed fd is reused before the table grows.
func (t *FdTable) Alloc(file interface{}) int {
	for i := range t.entries {
		if !t.entries[i].inUse {
			t.entries[i] = fdEntry{inUse: true, file: file}
			return i
		}
	}
	t.entries = append(t.entries, fdEntry{inUse: true, file: file})
	return len(t.entries) - 1
}

// Get returns the file registered at fd, or nil/false if fd is not open.
func (t *FdTable) Get(fd int) (interface{}, bool) {
	if fd < 0 || fd >= len(t.entries) || !t.entries[fd].inUse {
		return nil, false
	}
	return t.entries[fd].file, true
}

// Release closes fd, making it available for reuse. Releasing an fd that is
// not open is a no-op, matching close()'s idempotence for double-close in
// most Unix-like kernels.
func (t *FdTable) Release(fd int) {
	if fd < 0 || fd >= len(t.entries) {
		return
	}
	t.entries[fd] = fdEntry{}
}

var errInvalidArgument = kerror.FromErrno("task", kerror.EINVAL)

// stackPages is the number of pages reserved per task stack. Spec §4.8 does
// not mandate a size; this is generous enough for a recursive shell parser
// without wasting heap on a teaching kernel's single-digit task count.
const stackPages = 4

// New allocates a stack and builds a Task whose context resumes at entry
// when first switched to. The task starts in StateNew; the scheduler moves
// it to StateReady once Spawn enqueues it.
func New(pid uint32, name string, priority uint8, entry func()) (*Task, *kerror.Error) {
	if priority >= numPriorities-1 {
		return nil, errInvalidArgument
	}

	stack := make([]byte, mem.PageSize*stackPages)
	t := &Task{
		PID:      pid,
		Name:     name,
		State:    StateNew,
		Priority: priority,
		stack:    stack,
		entry:    entry,
		cwd:      "/",
	}
	initContext(&t.ctx, stack)
	return t, nil
}
