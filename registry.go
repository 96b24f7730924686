package rtposix

import (
	"sync"

	"github.com/raimdelgado/rt-posix/internal/gid"
	"github.com/raimdelgado/rt-posix/rtlog"
)

// registry maps a goroutine's id to the Task it is currently executing, the
// substitute for the original's pthread_key_t-based thread-local slot
// (_set_current_task/_get_current_task). A foreign goroutine - one that
// neither ran through the trampoline nor called StartTask (which also
// registers its caller) - simply has no entry, i.e. maps to "none".
var registry sync.Map // map[int64]*Task

func setCurrentTask(t *Task) {
	registry.Store(gid.Current(), t)
}

func clearCurrentTask() {
	registry.Delete(gid.Current())
}

func getCurrentTask() *Task {
	v, ok := registry.Load(gid.Current())
	if !ok {
		return nil
	}
	return v.(*Task)
}

// GetSelf returns the Task owned by the calling goroutine, or nil if none
// (logging a warning in that case, matching get_self's DBG_WARN).
func GetSelf() *Task {
	t := getCurrentTask()
	if t == nil {
		rtlog.Default().Warn("GetSelf: not called from inside a task goroutine, returning nil")
	}
	return t
}

// taskOrSelf resolves the target of an operation that accepts a nil Task to
// mean "the caller's own task", the substitute for
// _get_posix_task_or_self. It logs a warning (the original logs an error)
// if neither resolves.
func taskOrSelf(t *Task) *Task {
	if t != nil {
		return t
	}
	self := getCurrentTask()
	if self == nil {
		rtlog.Default().Warn("taskOrSelf: no task given and no current task resolvable")
	}
	return self
}
