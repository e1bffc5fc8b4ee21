// Package xerrors adds call-site information to errors without changing
// their messages. Errors built here unwrap normally, so errors.Is and
// errors.As keep working against package sentinels.
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
)

const maxStackDepth = 64

// stacked carries a full stack captured where the error entered the
// program. The logger renders it on error records.
type stacked struct {
	err error
	pcs []uintptr
}

func (s *stacked) Error() string       { return s.err.Error() }
func (s *stacked) Unwrap() error       { return s.err }
func (s *stacked) StackPCs() []uintptr { return s.pcs }

// wrapped prefixes a message and remembers the single frame that added it.
type wrapped struct {
	err error
	msg string
	pc  uintptr
}

func (w *wrapped) Error() string { return w.msg + ": " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }
func (w *wrapped) PC() uintptr   { return w.pc }

// callers skips runtime.Callers, callers itself and skip more frames.
func callers(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	return pcs[:runtime.Callers(2+skip, pcs)]
}

func caller(skip int) uintptr {
	var pcs [1]uintptr
	if runtime.Callers(2+skip, pcs[:]) == 0 {
		return 0
	}
	return pcs[0]
}

// New returns an error with a stack captured at the caller.
func New(msg string) error { return &stacked{err: errors.New(msg), pcs: callers(1)} }

func Newf(format string, args ...any) error {
	return &stacked{err: fmt.Errorf(format, args...), pcs: callers(1)}
}

// WithStack attaches the caller's stack to err. nil stays nil.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return &stacked{err: err, pcs: callers(1)}
}

// EnsureTrace is WithStack for errors that do not already carry a stack
// somewhere in their chain.
func EnsureTrace(err error) error {
	if err == nil || HasStack(err) {
		return err
	}
	return &stacked{err: err, pcs: callers(1)}
}

// HasStack reports whether any error in err's chain carries a stack.
func HasStack(err error) bool {
	var s interface{ StackPCs() []uintptr }
	return errors.As(err, &s) && len(s.StackPCs()) > 0
}

// Wrap prefixes err with msg and records the caller. nil stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrapped{err: err, msg: msg, pc: caller(1)}
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrapped{err: err, msg: fmt.Sprintf(format, args...), pc: caller(1)}
}
