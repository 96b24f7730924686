// Package rtposix is a real-time task-management library for systems with a
// priority-preemptive scheduler and a monotonic clock, reimplementing in Go
// the behavior of the POSIX rt_posix C library it is derived from.
//
// A Task is a named unit of scheduling: one goroutine, pinned to a single OS
// thread and a single CPU (CPU 0 unless SetCPUAffinity selects another),
// optionally real-time with a fixed
// SCHED_FIFO priority, one-shot or strictly periodic. Tasks progress through
// the state machine Init -> Ready -> PendingStart -> Running ->
// {Waiting, Suspended} -> Dead; see State.
//
// Construct a Task with CreateRT/CreateNRT (or SpawnRT/SpawnNRT, which also
// start it), configure its period with SetPeriod if it is meant to run on a
// fixed cadence, then Start it. From inside the task's own worker function,
// call WaitNextPeriod to block until the next release. From any goroutine,
// SuspendTask, ResumeTask, DeleteTask, and GetTaskInfo operate on a task by
// reference (or nil, meaning "the calling goroutine's own task").
package rtposix
