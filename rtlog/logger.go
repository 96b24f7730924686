package rtlog

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type (
	// Logger is a four-level logging collaborator backed by zerolog. It
	// discards everything until enabled. The zero value has no output
	// writer; construct a Logger that writes with New.
	Logger struct {
		enabled atomic.Bool
		z       zerolog.Logger
	}
)

// New constructs a Logger writing ANSI-coloured, human-readable lines to w
// (typically os.Stderr), in the style of the original's
// write_lowlevel_logger - timestamp, level, message, then file:line.
func New(w *os.File) *Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    false,
		TimeFormat: "15:04:05",
	}
	l := &Logger{z: zerolog.New(console).With().Timestamp().Logger()}
	return l
}

// Default is the package-wide logger instance, matching the original's
// single process-wide logger (there is exactly one write_lowlevel_logger in
// the whole library). It starts disabled; call Default().SetEnabled(true) to
// turn it on, mirroring init_lowlevel_logger(TRUE).
var defaultLogger = New(os.Stderr)

// Default returns the package-wide Logger instance.
func Default() *Logger { return defaultLogger }

// SetEnabled is the process-wide on/off toggle, equivalent to
// init_lowlevel_logger. Logging is off by default; turning it on must not
// be done from within a path that a task worker blocks on under normal
// conditions.
func (l *Logger) SetEnabled(on bool) {
	l.enabled.Store(on)
}

// Enabled reports whether logging is currently turned on.
func (l *Logger) Enabled() bool {
	return l.enabled.Load()
}

func (l *Logger) log(level Level, skip int, format string, args ...any) {
	if !l.Enabled() {
		return
	}

	msg := format
	if len(args) != 0 {
		msg = fmt.Sprintf(format, args...)
	}

	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		file, line = "???", 0
	}

	var evt *zerolog.Event
	switch level {
	case LevelTrace:
		evt = l.z.Trace()
	case LevelInfo:
		evt = l.z.Info()
	case LevelWarn:
		evt = l.z.Warn()
	case LevelError:
		evt = l.z.Error()
	default:
		evt = l.z.Log()
	}

	evt.Str("caller", fmt.Sprintf("%s:%d", shortFile(file), line)).
		Time("ts", time.Now()).
		Msg(msg)
}

// Trace logs at LevelTrace.
func (l *Logger) Trace(format string, args ...any) { l.log(LevelTrace, 1, format, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(format string, args ...any) { l.log(LevelInfo, 1, format, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(format string, args ...any) { l.log(LevelWarn, 1, format, args...) }

// Error logs at LevelError.
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, 1, format, args...) }

// shortFile trims a source path down to its final element, the same
// transformation as the original's __FILENAME__ macro
// (strrchr(__FILE__, '/') + 1).
func shortFile(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
