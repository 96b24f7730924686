// Package rtlog is a small, four-level (trace/warn/error/info) logging
// collaborator, grounded on the original C library's write_lowlevel_logger
// (include/commons.h, src/commons.c) and backed by
// github.com/rs/zerolog the way the teacher corpus's logiface-zerolog
// submodule wires zerolog underneath its generic logiface.Logger.
//
// Output is a single, process-wide, ANSI-coloured console writer, toggled
// on/off globally (the original's init_lowlevel_logger(BOOL)) rather than
// left on by default - the core package must never produce log output that
// blocks task execution, so this package keeps the write path on a single
// buffered zerolog.ConsoleWriter and never does its own I/O synchronization
// beyond what zerolog already provides.
package rtlog
