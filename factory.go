package rtposix

import (
	"runtime"

	"github.com/raimdelgado/rt-posix/rtlog"
)

// CreateRT initializes t as a real-time task with a fixed SCHED_FIFO
// priority in (LimPriorityLo, LimPriorityHi]. Returns 0 on success, -EINVAL
// if name exceeds MaxNameLength-1 bytes or priority is out of range.
func CreateRT(t *Task, name string, stack StackSize, priority int) int {
	return createTask(t, name, stack, priority, true)
}

// CreateNRT initializes t as a non-real-time task, scheduled under the
// platform's default time-sharing policy. Returns 0 on success, -EINVAL if
// name exceeds MaxNameLength-1 bytes.
func CreateNRT(t *Task, name string, stack StackSize) int {
	return createTask(t, name, stack, 0, false)
}

// SpawnRT is CreateRT followed by StartTask. On failure there is no structural
// rollback: the record may be left partially initialized (the same
// documented hazard as the original's spawn_rt_task).
func SpawnRT(t *Task, name string, stack StackSize, priority int, fn TaskFunc, arg any) int {
	if rc := CreateRT(t, name, stack, priority); rc != errSucc {
		rtlog.Default().Error("SpawnRT: CreateRT(%s) failed: %v", name, errnoToError(rc))
		return rc
	}
	if rc := StartTask(t, fn, arg); rc != errSucc {
		rtlog.Default().Error("SpawnRT: Start(%s) failed: %v", name, errnoToError(rc))
		return rc
	}
	return errSucc
}

// SpawnNRT is CreateNRT followed by StartTask. See SpawnRT for the rollback
// caveat.
func SpawnNRT(t *Task, name string, stack StackSize, fn TaskFunc, arg any) int {
	if rc := CreateNRT(t, name, stack); rc != errSucc {
		rtlog.Default().Error("SpawnNRT: CreateNRT(%s) failed: %v", name, errnoToError(rc))
		return rc
	}
	if rc := StartTask(t, fn, arg); rc != errSucc {
		rtlog.Default().Error("SpawnNRT: Start(%s) failed: %v", name, errnoToError(rc))
		return rc
	}
	return errSucc
}

func createTask(t *Task, name string, stack StackSize, priority int, realTime bool) int {
	initRegistry()

	if len(name) == 0 || len(name) > MaxNameLength-1 {
		rtlog.Default().Error("createTask: name length must be 1..%d bytes, got %d", MaxNameLength-1, len(name))
		return errInval
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.reset()
	t.name = name
	t.realTime = realTime

	if realTime {
		// only the priority is validated and recorded here; SCHED_FIFO
		// itself (the original's pthread_attr_setschedpolicy in
		// _create_task) is applied by the trampoline via applySchedFIFO.
		if priority <= LimPriorityLo || priority > LimPriorityHi {
			rtlog.Default().Error("createTask(%s): priority must be in (%d, %d], got %d", name, LimPriorityLo, LimPriorityHi, priority)
			return errInval
		}
		t.priority = priority
	}

	// CPU0 by default, matching _init_posix_task's CPU_SET(0, ...).
	t.cpu = 0

	if stack.bytes < platformMinStackSize || stack.bytes == 0 {
		t.stackLen = DefaultStackSize
	} else {
		t.stackLen = stack.bytes
	}

	t.setState(StateReady)

	if realTime {
		rtlog.Default().Trace("createTask: created RT task name=%s priority=%d", name, priority)
	} else {
		rtlog.Default().Trace("createTask: created NRT task name=%s", name)
	}

	return errSucc
}

// SetCPUAffinity pins t to exactly one CPU, identified by a 0-based index.
// It must be called before Start: returns -EPERM if t is nil or already
// scheduled, -EINVAL if cpu is out of range.
func SetCPUAffinity(t *Task, cpu int) int {
	if t == nil {
		return errPerm
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() > StateReady {
		rtlog.Default().Error("SetCPUAffinity(%s): must be called before Start", t.name)
		return errPerm
	}

	available := AvailableCPUs()
	if cpu < 0 || cpu >= available {
		rtlog.Default().Error("SetCPUAffinity(%s): cpu %d is out of range [0,%d)", t.name, cpu, available)
		return errInval
	}

	t.cpu = cpu
	rtlog.Default().Trace("SetCPUAffinity(%s): cpu=%d", t.name, cpu)
	return errSucc
}

// AvailableCPUs returns the number of logical CPUs available to the process,
// the substitute for the original's get_available_cpus (get_nprocs()).
func AvailableCPUs() int {
	return runtime.NumCPU()
}
