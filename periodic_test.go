package rtposix

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetPeriod_RejectsZero(t *testing.T) {
	var task Task
	CreateNRT(&task, "p", DefaultStack())
	if rc := SetPeriod(&task, StartNow(), 0); rc != errInval {
		t.Fatalf("SetPeriod(period=0): got %d, want -EINVAL", rc)
	}
}

func TestSetPeriod_RejectsAfterStart(t *testing.T) {
	var task Task
	started := make(chan struct{})
	done := make(chan struct{})
	if rc := SpawnNRT(&task, "p", DefaultStack(), func(any) {
		close(started)
		<-done
	}, nil); rc != errSucc {
		t.Fatalf("SpawnNRT: %d", rc)
	}
	defer close(done)

	// SetPeriod still accepts a PendingStart task, so wait until the worker
	// is actually Running before checking the rejection.
	<-started
	if rc := SetPeriod(&task, StartNow(), 1_000_000); rc != errWouldBlock {
		t.Fatalf("SetPeriod after Start: got %d, want -EWOULDBLOCK", rc)
	}
}

func TestWaitNextPeriod_RejectsNonPeriodic(t *testing.T) {
	done := make(chan int)
	var task Task
	SpawnNRT(&task, "np", DefaultStack(), func(any) {
		done <- WaitNextPeriod(nil)
	}, nil)

	select {
	case rc := <-done:
		if rc != errWouldBlock {
			t.Fatalf("WaitNextPeriod without SetPeriod: got %d, want -EWOULDBLOCK", rc)
		}
	case <-time.After(time.Second):
		t.Fatal("task did not report back")
	}
}

// TestPeriodicCadence mirrors the specification's periodic-cadence scenario,
// at reduced scale and period to keep the suite fast: N iterations of a
// 5ms period should take approximately N*5ms wall-clock, within tolerance.
func TestPeriodicCadence(t *testing.T) {
	const (
		n      = 40
		period = 5_000_000 // 5ms
	)

	var task Task
	if rc := CreateRT(&task, "P", DefaultStack(), 50); rc != errSucc {
		t.Fatalf("CreateRT: %d", rc)
	}
	if rc := SetPeriod(&task, StartNow(), period); rc != errSucc {
		t.Fatalf("SetPeriod: %d", rc)
	}

	start := time.Now()
	done := make(chan uint64, 1)
	loop := func(any) {
		var overruns uint64
		for i := 0; i < n; i++ {
			var thisOverrun uint64
			// -ETIMEDOUT is an expected, non-fatal outcome of an overrun -
			// the deadline still advanced and the wait still completed, so
			// the loop keeps going regardless of rc, exactly as the
			// specification's literal "infinite loop" scenario does.
			WaitNextPeriod(&thisOverrun)
			overruns += thisOverrun
		}
		done <- overruns
	}

	if rc := StartTask(&task, loop, nil); rc != errSucc {
		t.Fatalf("StartTask: %d", rc)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("periodic loop did not finish in time")
	}

	elapsed := time.Since(start)
	want := time.Duration(n) * time.Duration(period) * time.Nanosecond
	tolerance := want / 2 // generous, to absorb scheduler jitter under test load
	assert.InDelta(t, float64(want), float64(elapsed), float64(tolerance),
		"elapsed %v too far from %d periods of %dns", elapsed, n, period)
}

func TestPeriodicDeadlineInvariant(t *testing.T) {
	var task Task
	CreateNRT(&task, "d", DefaultStack())

	base := ReadMonotonicNS()
	const period = 1_000_000
	if rc := SetPeriod(&task, StartAt(base), period); rc != errSucc {
		t.Fatalf("SetPeriod: %d", rc)
	}

	done := make(chan struct{})
	const k = 5
	loop := func(any) {
		for i := 0; i < k; i++ {
			WaitNextPeriod(nil)
		}
		close(done)
	}
	if rc := StartTask(&task, loop, nil); rc != errSucc {
		t.Fatalf("StartTask: %d", rc)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not finish")
	}

	task.mu.Lock()
	got := TimespecToNs(task.deadline)
	task.mu.Unlock()

	want := base + uint64(k+1)*period
	if got != want {
		t.Fatalf("deadline after %d waits = %d, want %d (base + (k+1)*period)", k, got, want)
	}
}

// TestWaitNextPeriod_Overrun starts a task whose deadline is already well in
// the past (period set from a start time far behind "now"), so the first
// WaitNextPeriod call's sleep is a no-op and the post-wake check must detect
// that the clock has already passed the newly-advanced deadline too.
func TestWaitNextPeriod_Overrun(t *testing.T) {
	var task Task
	CreateNRT(&task, "late", DefaultStack())

	const period = 1_000_000 // 1ms
	stale := ReadMonotonicNS() - 10*period
	if rc := SetPeriod(&task, StartAt(stale), period); rc != errSucc {
		t.Fatalf("SetPeriod: %d", rc)
	}

	rcCh := make(chan int, 1)
	overrunCh := make(chan uint64, 1)
	loop := func(any) {
		var overrun uint64
		rcCh <- WaitNextPeriod(&overrun)
		overrunCh <- overrun
	}
	if rc := StartTask(&task, loop, nil); rc != errSucc {
		t.Fatalf("StartTask: %d", rc)
	}

	select {
	case rc := <-rcCh:
		if rc != errTimedOut {
			t.Fatalf("WaitNextPeriod on a stale deadline: got %d, want -ETIMEDOUT", rc)
		}
	case <-time.After(time.Second):
		t.Fatal("task did not report back")
	}
	if overrun := <-overrunCh; overrun == 0 {
		t.Fatalf("overrunCount = 0, want > 0 for a stale deadline")
	}
}

// TestWaitNextPeriod_WaitingDuringSleep observes the task in StateWaiting
// while WaitNextPeriod sleeps toward its deadline, then checks that the wait
// completes. The transient Ready state after waking is too brief to sample
// reliably and is not checked here.
func TestWaitNextPeriod_WaitingDuringSleep(t *testing.T) {
	var task Task
	CreateNRT(&task, "obs", DefaultStack())

	const period = 30_000_000 // 30ms, long enough to reliably sample mid-sleep
	if rc := SetPeriod(&task, StartNow(), period); rc != errSucc {
		t.Fatalf("SetPeriod: %d", rc)
	}

	sawWaiting := make(chan struct{}, 1)
	done := make(chan struct{})
	loop := func(any) {
		WaitNextPeriod(nil)
		close(done)
	}
	if rc := StartTask(&task, loop, nil); rc != errSucc {
		t.Fatalf("StartTask: %d", rc)
	}

	go func() {
		deadline := time.Now().Add(200 * time.Millisecond)
		for time.Now().Before(deadline) {
			if task.State() == StateWaiting {
				select {
				case sawWaiting <- struct{}{}:
				default:
				}
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	select {
	case <-sawWaiting:
	case <-time.After(time.Second):
		t.Fatal("never observed task in StateWaiting during its sleep")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not finish")
	}
}
