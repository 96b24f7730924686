package rtposix

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// MaxNameLength is the maximum number of bytes (including, conceptually, the
// original's trailing NUL) a task name may occupy. Effective usable name
// length is MaxNameLength-1, matching the original's MAX_NAME_LENGTH (32).
const MaxNameLength = 32

// DefaultStackSize is the stack size used when the caller does not specify
// one (or specifies one below the platform minimum). 64 KiB, matching the
// original's DEFAULT_STKSIZE.
const DefaultStackSize = 64 * 1024

// platformMinStackSize is the smallest stack size this implementation will
// honor verbatim; below this, DefaultStackSize is substituted. Go goroutines
// grow their stacks dynamically from a small initial allocation regardless of
// this value - it is recorded for API parity and introspection (see
// DESIGN.md), not enforced by the runtime.
const platformMinStackSize = 16 * 1024

// LimPriorityLo and LimPriorityHi bound the accepted real-time priority
// range: valid priorities are in (LimPriorityLo, LimPriorityHi].
const (
	LimPriorityLo = 0
	LimPriorityHi = 99
)

// State is a Task's position in its lifecycle. States are ordered so that
// comparisons like "state <= Ready" and "state >= Dead" are meaningful, the
// same invariant the original's POSIX_STATE_MACHINE enum relies on.
type State int32

const (
	StateUnknown State = iota
	StateInit
	StateReady
	StatePendingStart
	StateWaiting
	StateRunning
	StateSuspended
	StateDead
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateReady:
		return "Ready"
	case StatePendingStart:
		return "PendingStart"
	case StateWaiting:
		return "Waiting"
	case StateRunning:
		return "Running"
	case StateSuspended:
		return "Suspended"
	case StateDead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// TaskFunc is a task's entry point. arg is the opaque value passed to
// StartTask (or SpawnRT/SpawnNRT); its lifetime must outlive the worker goroutine, the
// same precondition the original places on PTASKFCN/PVOID.
type TaskFunc func(arg any)

type (
	// StackSize is a tagged-variant replacement for the original's
	// SET_DEFAULT_STKSZ sentinel (0 meaning "use the default").
	StackSize struct {
		bytes int
	}

	// StartTime is a tagged-variant replacement for the original's
	// SET_TM_NOW sentinel ((RTTIME)-99 meaning "start counting from now").
	StartTime struct {
		now bool
		ns  uint64
	}
)

// DefaultStack returns the StackSize variant meaning "use the platform
// default".
func DefaultStack() StackSize { return StackSize{bytes: 0} }

// StackBytes returns the StackSize variant requesting exactly n bytes
// (subject to the platform minimum; see CreateRT/CreateNRT).
func StackBytes(n int) StackSize { return StackSize{bytes: n} }

// StartNow returns the StartTime variant meaning "use the current monotonic
// time as the first deadline's base".
func StartNow() StartTime { return StartTime{now: true} }

// StartAt returns the StartTime variant specifying an explicit monotonic
// nanosecond base for the first deadline.
func StartAt(ns uint64) StartTime { return StartTime{ns: ns} }

// Task is a single unit of scheduling: a name, a classification
// (real-time/periodic), resources (stack size, CPU affinity), scheduling
// parameters, and - once started - the running goroutine's state.
//
// A Task is owned by the caller (typically as a value embedded in a longer-
// lived struct, mirroring the original's POSIX_TASK convention of
// stack/static allocation); the library only ever mutates it through pointer
// receivers. The zero value is not ready for use - construct one with
// CreateRT, CreateNRT, SpawnRT, or SpawnNRT.
type Task struct {
	mu sync.Mutex // guards the fields below, other than status/pid/periodic

	name     string
	realTime bool
	priority int
	stackLen int
	cpu      int

	periodic atomic.Bool
	deadline unix.Timespec
	period   uint64

	fn  TaskFunc
	arg any

	startSuspended atomic.Bool
	suspendMu      sync.Mutex
	suspendCond    *sync.Cond

	status atomic.Int32 // State, read/written with sequential consistency
	pid    atomic.Int32 // OS thread id (tid), set once the worker is scheduled
}

// State returns the task's current state. Safe to call from any goroutine.
func (t *Task) State() State {
	return State(t.status.Load())
}

func (t *Task) setState(s State) {
	t.status.Store(int32(s))
}

// Name returns the task's name, as supplied to CreateRT/CreateNRT.
func (t *Task) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// RealTime reports whether the task was created with CreateRT/SpawnRT.
func (t *Task) RealTime() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.realTime
}

// Priority returns the task's fixed SCHED_FIFO priority, or 0 for a
// non-real-time task.
func (t *Task) Priority() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.priority
}

// Periodic reports whether SetPeriod has been called successfully.
func (t *Task) Periodic() bool {
	return t.periodic.Load()
}

// Pid returns the OS-level thread id (Linux TID) assigned to the task's
// worker, or 0 if the task has not yet been scheduled.
func (t *Task) Pid() int32 {
	return t.pid.Load()
}

// reset returns the task to its freshly-zeroed Init state, used by both the
// factory (before first creation) and delete_task's not-yet-started path.
func (t *Task) reset() {
	t.name = ""
	t.realTime = false
	t.priority = 0
	t.stackLen = DefaultStackSize
	t.cpu = 0
	t.periodic.Store(false)
	t.deadline = unix.Timespec{}
	t.period = 0
	t.fn = nil
	t.arg = nil
	t.startSuspended.Store(false)
	t.suspendCond = sync.NewCond(&t.suspendMu)
	t.pid.Store(0)
	t.setState(StateInit)
}
