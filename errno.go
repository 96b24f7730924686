package rtposix

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Negative-errno return values, mirroring the original C library's
// -EINVAL/-EWOULDBLOCK/-EPERM/-ETIMEDOUT convention so the literal scenarios
// in the specification port verbatim (e.g. create with a too-long name
// returns exactly -EINVAL).
const (
	errInval      = -int(unix.EINVAL)
	errWouldBlock = -int(unix.EWOULDBLOCK)
	errPerm       = -int(unix.EPERM)
	errTimedOut   = -int(unix.ETIMEDOUT)
	errSucc       = 0
)

// Sentinel errors, for callers that prefer errors.Is over inspecting the
// negative-errno int convention.
var (
	ErrInvalid    = errors.New("rtposix: invalid argument")
	ErrWouldBlock = errors.New("rtposix: operation not valid for task's current state")
	ErrPermission = errors.New("rtposix: permission denied")
	ErrTimedOut   = errors.New("rtposix: deadline missed")
)

// errnoToError maps one of this package's negative-errno return codes to its
// sentinel error equivalent, or nil for errSucc. Unrecognized negative codes
// (propagated verbatim from an underlying OS failure) are wrapped generically.
func errnoToError(code int) error {
	switch code {
	case errSucc:
		return nil
	case errInval:
		return ErrInvalid
	case errWouldBlock:
		return ErrWouldBlock
	case errPerm:
		return ErrPermission
	case errTimedOut:
		return ErrTimedOut
	default:
		return unix.Errno(-code)
	}
}
