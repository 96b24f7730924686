package rtposix

import (
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/raimdelgado/rt-posix/rtlog"
)

// NanosecPerSec is the number of nanoseconds in a second, used throughout the
// periodic-deadline engine for timespec normalization. Named after the
// original's NANOSEC_PER_SEC.
const NanosecPerSec = 1_000_000_000

// ReadMonotonicNS returns the current monotonic-clock reading, in
// nanoseconds. On the rare systems where CLOCK_MONOTONIC is unavailable this
// returns the original's sentinel, (uint64)(-1), logging the failure;
// callers must treat a very-large-magnitude return defensively, the same
// caveat the original places on read_timer. Callers that want the error
// directly should use ReadMonotonicNSErr.
func ReadMonotonicNS() uint64 {
	ns, err := ReadMonotonicNSErr()
	if err != nil {
		rtlog.Default().Error("ReadMonotonicNS: clock_gettime(CLOCK_MONOTONIC): %v", err)
		return ^uint64(0)
	}
	return ns
}

// ReadMonotonicNSErr is the explicit-error form of ReadMonotonicNS.
func ReadMonotonicNSErr() (uint64, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, err
	}
	return TimespecToNs(ts), nil
}

// NsToTimespec converts a nanosecond count to a unix.Timespec, with Nsec
// normalized to [0, NanosecPerSec).
func NsToTimespec(ns uint64) unix.Timespec {
	return unix.Timespec{
		Sec:  int64(ns / NanosecPerSec),
		Nsec: int64(ns % NanosecPerSec),
	}
}

// TimespecToNs converts a unix.Timespec to a nanosecond count.
func TimespecToNs(ts unix.Timespec) uint64 {
	return uint64(ts.Sec)*NanosecPerSec + uint64(ts.Nsec)
}

// addNormalized adds deltaNS nanoseconds to ts, normalizing Nsec back into
// [0, NanosecPerSec) and carrying the overflow into Sec. Grounded on the
// original's repeated "tv_nsec += x; tv_sec += tv_nsec/NANOSEC_PER_SEC;
// tv_nsec %= NANOSEC_PER_SEC" pattern in set_task_period/wait_next_period.
func addNormalized(ts unix.Timespec, deltaNS uint64) unix.Timespec {
	ts.Nsec += int64(deltaNS)
	ts.Sec += ts.Nsec / NanosecPerSec
	ts.Nsec %= NanosecPerSec
	return ts
}

// Spin busy-waits until at least d has elapsed, re-reading the monotonic
// clock each iteration. It never sleeps or yields the processor; a compiler
// and CPU memory barrier (the original's cpu_relax/__sync_synchronize) is
// issued each iteration via an atomic load so the loop cannot be hoisted or
// optimized away.
func Spin(d uint64) {
	var barrier atomic.Uint64
	end := ReadMonotonicNS() + d
	for {
		now := ReadMonotonicNS()
		barrier.Store(now)
		if barrier.Load() >= end {
			return
		}
	}
}
