package rtposix

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpawnRT_OneShotReturnPath(t *testing.T) {
	var task Task
	x := 0
	done := make(chan struct{})
	fn := func(arg any) {
		p := arg.(*int)
		*p = 55
		close(done)
	}

	require.Equal(t, errSucc, SpawnRT(&task, "ABCD", DefaultStack(), 99, fn, &x))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run within 2s")
	}

	// Dead is set immediately after fn returns, but that happens on the
	// worker goroutine; give it a moment to land.
	require.Eventually(t, func() bool { return task.State() == StateDead }, time.Second, time.Millisecond)
	require.Equal(t, 55, x)
}

func TestDeleteTask_Idempotence(t *testing.T) {
	var task Task
	if rc := CreateRT(&task, "X", DefaultStack(), 99); rc != errSucc {
		t.Fatalf("CreateRT: %d", rc)
	}

	if rc := DeleteTask(&task); rc != errSucc {
		t.Fatalf("first DeleteTask: %d", rc)
	}
	if task.Priority() != 0 {
		t.Fatalf("priority after delete = %d, want 0 (zeroed)", task.Priority())
	}
	if task.State() != StateInit {
		t.Fatalf("state after delete = %v, want Init", task.State())
	}

	// delete_task again on an already-Dead task is a no-op success; here the
	// task has reverted to Init (never started), which is the documented
	// not-yet-started branch and is likewise idempotent.
	if rc := DeleteTask(&task); rc != errSucc {
		t.Fatalf("second DeleteTask: %d", rc)
	}
}

func TestDeleteTask_AlreadyDead(t *testing.T) {
	var task Task
	done := make(chan struct{})
	if rc := SpawnNRT(&task, "X", DefaultStack(), func(any) { close(done) }, nil); rc != errSucc {
		t.Fatalf("SpawnNRT: %d", rc)
	}
	<-done

	require.Eventually(t, func() bool { return task.State() == StateDead }, time.Second, time.Millisecond)

	require.Equal(t, errSucc, DeleteTask(&task))
}

func TestSuspendResume_PreStart(t *testing.T) {
	var task Task
	if rc := CreateNRT(&task, "pre", DefaultStack()); rc != errSucc {
		t.Fatalf("CreateNRT: %d", rc)
	}
	if rc := SuspendTask(&task); rc != errSucc {
		t.Fatalf("SuspendTask (pre-start): %d", rc)
	}

	ran := make(chan struct{})
	if rc := StartTask(&task, func(any) { close(ran) }, nil); rc != errSucc {
		t.Fatalf("StartTask: %d", rc)
	}

	select {
	case <-ran:
		t.Fatal("task ran despite a pre-start suspend")
	case <-time.After(50 * time.Millisecond):
	}

	if rc := ResumeTask(&task); rc != errSucc {
		t.Fatalf("ResumeTask: %d", rc)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run after Resume")
	}
}

func TestSuspendTask_CrossGoroutineRejected(t *testing.T) {
	var task Task
	started := make(chan struct{})
	release := make(chan struct{})
	if rc := SpawnNRT(&task, "running", DefaultStack(), func(any) {
		close(started)
		<-release
	}, nil); rc != errSucc {
		t.Fatalf("SpawnNRT: %d", rc)
	}
	defer close(release)

	<-started
	if rc := SuspendTask(&task); rc != errPerm {
		t.Fatalf("Suspend of a running task from outside itself: got %d, want -EPERM", rc)
	}
}

func TestStartTask_RejectsAlreadyStarted(t *testing.T) {
	var task Task
	done := make(chan struct{})
	if rc := SpawnNRT(&task, "x", DefaultStack(), func(any) { <-done }, nil); rc != errSucc {
		t.Fatalf("SpawnNRT: %d", rc)
	}
	defer close(done)

	if rc := StartTask(&task, func(any) {}, nil); rc != errWouldBlock {
		t.Fatalf("second StartTask: got %d, want -EWOULDBLOCK", rc)
	}
}
