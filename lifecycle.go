package rtposix

import (
	"os"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/raimdelgado/rt-posix/rtlog"
)

// StartTask creates the worker goroutine for t, which runs fn(arg) (or parks
// on t's suspension condition variable first, if a pre-start suspend was
// requested via SuspendTask). StartTask must be called exactly once per Task.
//
// Returns -EWOULDBLOCK if t is nil or already started (state > StateReady).
func StartTask(t *Task, fn TaskFunc, arg any) int {
	if t == nil {
		return errWouldBlock
	}

	t.mu.Lock()
	if t.State() > StateReady {
		t.mu.Unlock()
		rtlog.Default().Error("StartTask(%s): already started", t.name)
		return errWouldBlock
	}
	t.fn = fn
	t.arg = arg
	t.setState(StatePendingStart)
	t.mu.Unlock()

	// Registers t for the calling goroutine immediately, so sibling calls
	// made before the worker itself schedules also observe it - the
	// original's behavior (_set_current_task is called from start_task
	// itself, not only from the trampoline), including its hazard: this
	// overwrites whatever task the calling goroutine already owned. See
	// DESIGN.md.
	setCurrentTask(t)

	go t.trampoline()

	return errSucc
}

// trampoline is the worker goroutine entry point, driving the state machine
// around the user function. It terminates the process on conditions the
// original treats as unrecoverable scheduler corruption.
func (t *Task) trampoline() {
	state := t.State()
	if state != StatePendingStart && state != StateSuspended {
		rtlog.Default().Error("trampoline(%s): invalid state at start (%v)", t.name, state)
		os.Exit(1)
	}

	if state == StateSuspended || t.startSuspended.Load() {
		rtlog.Default().Trace("trampoline(%s): start suspended, waiting for Resume", t.name)
		t.suspendMu.Lock()
		t.setState(StateSuspended)
		t.suspendCond.Wait()
		t.suspendMu.Unlock()
		t.startSuspended.Store(false)
	}

	runtime.LockOSThread()

	if err := applyAffinity(t); err != nil {
		rtlog.Default().Warn("trampoline(%s): set CPU affinity failed: %v", t.name, err)
	}
	if t.RealTime() {
		if err := applySchedFIFO(t); err != nil {
			rtlog.Default().Warn("trampoline(%s): set SCHED_FIFO failed: %v", t.name, err)
		}
	}
	if err := setThreadName(t.Name()); err != nil {
		rtlog.Default().Warn("trampoline(%s): set thread name failed: %v", t.name, err)
	}

	pid := int32(unix.Gettid())
	t.pid.Store(pid)
	setCurrentTask(t)
	rtlog.Default().Trace("trampoline(%s): started (pid=%d)", t.name, pid)

	t.setState(StateRunning)

	fn, arg := t.fn, t.arg
	fn(arg)

	t.setState(StateDead)
	clearCurrentTask()
	rtlog.Default().Trace("trampoline(%s): ended", t.name)
}

// SuspendTask suspends the resolved target (t, or the caller's own task if t
// is nil). A task that has not yet reached Running parks at its next return
// to library code (start_suspended); a task that is Running/Waiting can only
// suspend itself - per the original's documented hazard (suspend_task on a
// running target actually parks the *caller*, not the target), this
// reimplementation restricts cross-goroutine suspension of an already-
// running task and returns -EPERM instead of silently suspending the wrong
// goroutine. See DESIGN.md.
func SuspendTask(t *Task) int {
	resolved := taskOrSelf(t)
	if resolved == nil {
		return errPerm
	}

	switch {
	case resolved.State() >= StateSuspended:
		return errSucc

	case resolved.State() <= StatePendingStart:
		resolved.startSuspended.Store(true)
		return errSucc

	default:
		if getCurrentTask() != resolved {
			rtlog.Default().Error("SuspendTask(%s): cannot suspend a running task from outside itself", resolved.name)
			return errPerm
		}
		resolved.suspendMu.Lock()
		resolved.setState(StateSuspended)
		resolved.suspendCond.Wait()
		resolved.setState(StateRunning)
		resolved.suspendMu.Unlock()
		return errSucc
	}
}

// ResumeTask wakes the resolved target if it is Suspended. All other states
// are silently successful, matching the original's permissive contract.
func ResumeTask(t *Task) int {
	resolved := taskOrSelf(t)
	if resolved == nil {
		return errPerm
	}

	if resolved.State() == StateSuspended {
		resolved.suspendMu.Lock()
		resolved.suspendCond.Signal()
		resolved.suspendMu.Unlock()
	}
	return errSucc
}

// DeleteTask releases the resolved target. A task that never started is
// reset to its zeroed Init state; an already-Dead task is a no-op. For a
// task that is PendingStart/Running/Waiting/Suspended, DeleteTask sends
// SIGTERM to the worker's recorded OS thread id via tgkill and returns 0 if
// the send succeeds (the original used kill(pid, -SIGKILL), itself a bug: a
// negative signal number has no defined meaning). This does not stop the
// worker goroutine: Go handles signals process-wide, so while the package's
// signal observer is installed (from the first CreateRT/CreateNRT until
// Shutdown) the signal is only logged and the task keeps running, and after
// Shutdown Go's default SIGTERM handling ends the whole process. A worker
// whose thread id is not yet recorded (0) makes tgkill fail, and that error
// is returned. See DESIGN.md.
func DeleteTask(t *Task) int {
	resolved := taskOrSelf(t)
	if resolved == nil {
		return errPerm
	}

	if resolved.State() >= StateDead {
		return errSucc
	}

	if resolved.State() <= StateReady {
		resolved.mu.Lock()
		resolved.reset()
		resolved.mu.Unlock()
		return errSucc
	}

	pid := resolved.Pid()
	if err := unix.Tgkill(os.Getpid(), int(pid), syscall.SIGTERM); err != nil {
		rtlog.Default().Error("DeleteTask(%s): tgkill(pid=%d) failed: %v", resolved.name, pid, err)
		return negErrno(err)
	}
	return errSucc
}

func applyAffinity(t *Task) error {
	t.mu.Lock()
	cpu := t.cpu
	t.mu.Unlock()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}

func applySchedFIFO(t *Task) error {
	return unix.SchedSetscheduler(0, unix.SCHED_FIFO, &unix.SchedParam{Priority: int32(t.Priority())})
}

// setThreadName sets the OS-level name of the calling thread, truncated to
// 15 bytes plus a NUL terminator (the Linux TASK_COMM_LEN limit) - the
// substitute for pthread_setname_np.
func setThreadName(name string) error {
	const maxCommLen = 15
	if len(name) > maxCommLen {
		name = name[:maxCommLen]
	}
	b := append([]byte(name), 0)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0)
}

// negErrno converts an OS-level error into this package's negated-errno
// convention, verbatim for recognized unix.Errno values.
func negErrno(err error) int {
	if errno, ok := err.(unix.Errno); ok {
		return -int(errno)
	}
	return errWouldBlock
}
