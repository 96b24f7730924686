package rtposix

// TaskInfo is a point-in-time snapshot of a Task's introspectable fields,
// the substitute for the original's POSIX_TASK_INFO output parameter.
type TaskInfo struct {
	Name     string
	State    State
	RealTime bool
	Priority int
	CPU      int
	StackLen int
	Periodic bool
	Period   uint64
	Pid      int32
}

// GetTaskInfo fills info with a snapshot of the resolved target (t, or the
// caller's own task if t is nil). Returns -EPERM if the target cannot be
// resolved or if info is nil (matching the original's get_task_info, which
// reports both failure modes under the same errno).
func GetTaskInfo(t *Task, info *TaskInfo) int {
	resolved := taskOrSelf(t)
	if resolved == nil {
		return errPerm
	}
	if info == nil {
		return errPerm
	}

	resolved.mu.Lock()
	*info = TaskInfo{
		Name:     resolved.name,
		State:    resolved.State(),
		RealTime: resolved.realTime,
		Priority: resolved.priority,
		CPU:      resolved.cpu,
		StackLen: resolved.stackLen,
		Periodic: resolved.periodic.Load(),
		Period:   resolved.period,
		Pid:      resolved.Pid(),
	}
	resolved.mu.Unlock()

	return errSucc
}
