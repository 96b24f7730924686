// Package gid resolves the numeric ID of the calling goroutine.
//
// Go exposes no public thread-local-storage API, so a goroutine-local slot
// (the substitute this module uses for the original's pthread_key_t) must be
// keyed by something stable for the life of the goroutine. The goroutine ID
// embedded in runtime.Stack output is that something; this is the same
// technique as the well-known goroutine-id packages in the wild (e.g. the
// teacher corpus's own github.com/joeycumines/goroutineid), reimplemented
// here so the core module carries no dependency for a few lines of parsing.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current returns the goroutine ID of the calling goroutine.
//
// This is relatively expensive (it captures and parses a stack trace) and is
// intended for use at goroutine-lifetime boundaries (the trampoline's startup
// and the registry lookup), not in a hot loop.
func Current() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	// the header line looks like: "goroutine 123 [running]:"
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return -1
	}
	buf = buf[len(prefix):]
	if i := bytes.IndexByte(buf, ' '); i >= 0 {
		buf = buf[:i]
	}
	id, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
