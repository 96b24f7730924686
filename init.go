package rtposix

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/raimdelgado/rt-posix/rtlog"
)

// Version mirrors the original library's VER_MAJOR/VER_MINOR/VER_SUB/VER_PATCH
// banner, logged once on first use (the original's _constructor_fcn).
const Version = "1.0.0"

var (
	libInitOnce  sync.Once
	libInitMu    sync.Mutex
	libSignals   chan os.Signal
	libStop      chan struct{}
	libTornDown  bool
)

// initRegistry lazily performs the library's one-time setup: wiring a
// best-effort SIGTERM/SIGINT observer (the original's signal(SIGTERM, ...)/
// signal(SIGINT, ...) in _constructor_fcn, which merely logs the signal and
// does not terminate the process by itself). Go has no link-time
// constructor hook, so sync.Once standing in for __attribute__((constructor))
// is the idiomatic substitute; it is invoked from every task-creation path
// (CreateRT/CreateNRT, and so SpawnRT/SpawnNRT), so it has run before any
// task exists, once per initialization (Shutdown allows it to run again).
func initRegistry() {
	libInitOnce.Do(func() {
		libInitMu.Lock()
		defer libInitMu.Unlock()

		libSignals = make(chan os.Signal, 1)
		libStop = make(chan struct{})
		signal.Notify(libSignals, syscall.SIGTERM, syscall.SIGINT)

		go watchSignals(libSignals, libStop)

		libTornDown = false
		rtlog.Default().Trace("LOADING rt-posix v%s", Version)
	})
}

func watchSignals(sig chan os.Signal, stop chan struct{}) {
	for {
		select {
		case s := <-sig:
			rtlog.Default().Info("rt-posix has been signalled [%v]", s)
		case <-stop:
			return
		}
	}
}

// Shutdown tears down the library's signal observer, the substitute for the
// original's _destructor_fcn (which deletes the pthread_key_t). It is
// idempotent and primarily useful for tests that want a clean slate; it does
// not affect tasks that are already running. After Shutdown, the next task
// creation (CreateRT/CreateNRT/SpawnRT/SpawnNRT) re-initializes automatically.
func Shutdown() {
	libInitMu.Lock()
	defer libInitMu.Unlock()

	if libTornDown || libStop == nil {
		return
	}
	signal.Stop(libSignals)
	close(libStop)
	libTornDown = true
	rtlog.Default().Trace("rt-posix has been unloaded")

	// allow a subsequent initRegistry call to run again
	libInitOnce = sync.Once{}
}
