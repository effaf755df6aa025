package membarrier

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/ehrlich-b/go-membarrier/internal/platform"
)

// Error is a structured membarrier error with backend context and errno
// mapping. Probe errors are returned from Probe and ProbeErrors; a heavy
// barrier error is only ever handed to Config.Fatal.
type Error struct {
	Op      string        // Operation that failed ("probe", "heavy")
	Backend Backend       // Backend involved
	Code    ErrorCode     // High-level error category
	Errno   syscall.Errno // Kernel errno (0 if not applicable)
	Msg     string        // Human-readable message
	Inner   error         // Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	parts = append(parts, fmt.Sprintf("backend=%s", e.Backend))

	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	return fmt.Sprintf("membarrier: %s (%s)", msg, strings.Join(parts, ", "))
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is matches sentinel errors and other *Error values by code
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if se, ok := target.(SentinelError); ok {
		return e.Code == ErrorCode(se)
	}

	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}

	return false
}

// ErrorCode represents high-level error categories
type ErrorCode string

const (
	ErrCodeNotSupported       ErrorCode = "not supported"
	ErrCodePermissionDenied   ErrorCode = "permission denied"
	ErrCodeInvalidParameters  ErrorCode = "invalid parameters"
	ErrCodeInsufficientMemory ErrorCode = "insufficient memory"
	ErrCodeBadAddress         ErrorCode = "bad address"
	ErrCodeBarrierFailed      ErrorCode = "barrier failed"
)

// SentinelError is a comparable error matching an ErrorCode via errors.Is
type SentinelError string

func (e SentinelError) Error() string {
	return "membarrier: " + string(e)
}

const (
	ErrNotSupported       SentinelError = SentinelError(ErrCodeNotSupported)
	ErrPermissionDenied   SentinelError = SentinelError(ErrCodePermissionDenied)
	ErrInvalidParameters  SentinelError = SentinelError(ErrCodeInvalidParameters)
	ErrInsufficientMemory SentinelError = SentinelError(ErrCodeInsufficientMemory)
	ErrBadAddress         SentinelError = SentinelError(ErrCodeBadAddress)
	ErrBarrierFailed      SentinelError = SentinelError(ErrCodeBarrierFailed)
)

// NewError creates a new structured error
func NewError(op string, backend Backend, code ErrorCode, msg string) *Error {
	return &Error{
		Op:      op,
		Backend: backend,
		Code:    code,
		Msg:     msg,
	}
}

// WrapError wraps an error returned by a platform mechanism
func WrapError(op string, backend Backend, inner error) *Error {
	if inner == nil {
		return nil
	}

	var me *Error
	if errors.As(inner, &me) {
		return &Error{
			Op:      op,
			Backend: backend,
			Code:    me.Code,
			Errno:   me.Errno,
			Msg:     me.Msg,
			Inner:   me.Inner,
		}
	}

	e := &Error{
		Op:      op,
		Backend: backend,
		Code:    ErrCodeBarrierFailed,
		Msg:     inner.Error(),
		Inner:   inner,
	}

	var errno syscall.Errno
	switch {
	case errors.As(inner, &errno):
		e.Errno = errno
		e.Code = mapErrnoToCode(errno)
	case errors.Is(inner, platform.ErrNotSupported):
		e.Code = ErrCodeNotSupported
	}
	return e
}

// mapErrnoToCode maps syscall errno to membarrier error codes
func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return ErrCodeNotSupported
	case syscall.EPERM, syscall.EACCES:
		return ErrCodePermissionDenied
	case syscall.EINVAL:
		return ErrCodeInvalidParameters
	case syscall.ENOMEM:
		return ErrCodeInsufficientMemory
	case syscall.EFAULT:
		return ErrCodeBadAddress
	default:
		return ErrCodeBarrierFailed
	}
}

// expectedRejection reports whether a probe error only means the facility is
// absent, as on older kernels, rather than something worth a warning.
func expectedRejection(err *Error) bool {
	return err.Code == ErrCodeNotSupported
}

// IsCode checks if an error matches a specific error code
func IsCode(err error, code ErrorCode) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsErrno checks if an error matches a specific errno
func IsErrno(err error, errno syscall.Errno) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Errno == errno
	}
	return false
}
