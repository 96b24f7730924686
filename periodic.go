package rtposix

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/raimdelgado/rt-posix/rtlog"
)

// SetPeriod arms the periodic-deadline engine for the resolved target (t, or
// the caller's own task if t is nil): the first deadline is start (Now, or an
// explicit monotonic base) plus periodNS, and each subsequent deadline after a
// WaitNextPeriod call is the previous one plus periodNS.
//
// Returns -EWOULDBLOCK if the target cannot be resolved, or if its state is
// past PendingStart (SetPeriod must be called before the task starts
// running). Returns -EINVAL if periodNS is zero.
func SetPeriod(t *Task, start StartTime, periodNS uint64) int {
	resolved := taskOrSelf(t)
	if resolved == nil {
		return errWouldBlock
	}
	if resolved.State() > StatePendingStart {
		rtlog.Default().Error("SetPeriod(%s): must be called at or before PendingStart, state is %v", resolved.name, resolved.State())
		return errWouldBlock
	}
	if periodNS == 0 {
		rtlog.Default().Error("SetPeriod(%s): period must be non-zero", resolved.name)
		return errInval
	}

	base := start.ns
	if start.now {
		base = ReadMonotonicNS()
	}

	resolved.mu.Lock()
	resolved.deadline = addNormalized(NsToTimespec(base), periodNS)
	resolved.period = periodNS
	resolved.mu.Unlock()
	resolved.periodic.Store(true)

	rtlog.Default().Trace("SetPeriod(%s): period=%dns", resolved.name, periodNS)
	return errSucc
}

// WaitNextPeriod blocks the calling task's goroutine until its current
// absolute deadline, then advances the stored deadline by exactly one
// period. Deadlines never resynchronize to the current clock: a task that
// falls behind slips forward one period at a time and accumulates lateness,
// it is never fast-forwarded to "catch up" to now.
//
// If overrunCount is non-nil, it is incremented (and logged) whenever the
// clock has already passed the newly-advanced deadline at the moment of
// wake, and reset to 0 on a wake that is not overrun.
//
// Returns -EWOULDBLOCK if the caller is not a task, or is a task for which
// SetPeriod has not been called. Returns -ETIMEDOUT if the deadline was
// overrun.
//
// The original compares the *current* reading against the deadline with the
// operands swapped (tv_nsec_now < tv_nsec_deadline, where it should be the
// reverse), which makes every on-time wakeup look like an overrun and every
// genuine overrun look on-time. This reimplementation compares the two
// absolute nanosecond counts directly, sidestepping the bug entirely. See
// DESIGN.md.
func WaitNextPeriod(overrunCount *uint64) int {
	self := GetSelf()
	if self == nil || !self.Periodic() {
		return errWouldBlock
	}

	self.mu.Lock()
	deadline := self.deadline
	period := self.period
	self.mu.Unlock()

	self.setState(StateWaiting)
	err := unix.ClockNanosleep(unix.CLOCK_MONOTONIC, unix.TIMER_ABSTIME, &deadline, nil)
	if err != nil && !errors.Is(err, unix.EINTR) {
		rtlog.Default().Warn("WaitNextPeriod(%s): clock_nanosleep: %v", self.name, err)
	}

	// Transient Ready, observable by GetTaskInfo as "woke, not yet back in
	// user code" before Running is restored below.
	self.setState(StateReady)

	next := addNormalized(deadline, period)
	self.mu.Lock()
	self.deadline = next
	self.mu.Unlock()

	overrun := ReadMonotonicNS() > TimespecToNs(next)

	self.setState(StateRunning)

	if overrun {
		if overrunCount != nil {
			*overrunCount++
			rtlog.Default().Warn("WaitNextPeriod(%s): deadline overrun, count=%d", self.name, *overrunCount)
		} else {
			rtlog.Default().Warn("WaitNextPeriod(%s): deadline overrun", self.name)
		}
		return errTimedOut
	}

	if overrunCount != nil {
		*overrunCount = 0
	}
	return errSucc
}
