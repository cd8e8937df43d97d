package sessionlock

import "fmt"

// LockError is the single error type surfaced by the lock service and its
// drivers. Plain contention is never a LockError; it is reported as a false
// result from Acquire. Everything else - protocol errors (unexpected return
// codes), connectivity failures, timeout exhaustion in WaitForLock - is
// wrapped into a LockError with the underlying cause chained for errors.Is /
// errors.As.
type LockError struct {
	msg   string
	cause error
}

// NewLockError creates a LockError with a formatted message and no cause.
// Used for protocol errors where the backend answered, just not with a code
// we accept.
func NewLockError(format string, args ...interface{}) *LockError {
	return &LockError{msg: fmt.Sprintf(format, args...)}
}

// WrapLockError creates a LockError wrapping an underlying failure, typically
// a driver or connectivity error.
func WrapLockError(err error, format string, args ...interface{}) *LockError {
	return &LockError{msg: fmt.Sprintf(format, args...), cause: err}
}

func (e *LockError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *LockError) Unwrap() error {
	return e.cause
}
