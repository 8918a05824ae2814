package capture

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrorCode is the signed status code reported by every registry operation.
// Values are fixed; external bindings compare against them directly.
type ErrorCode int32

const (
	None                 ErrorCode = 0
	NotInitialized       ErrorCode = -1
	InitializationFailed ErrorCode = -2
	InvalidParameter     ErrorCode = -3
	CaptureFailed        ErrorCode = -4
	OutOfMemory          ErrorCode = -5
	Unsupported          ErrorCode = -6
)

// String returns the human readable text for the code.
func (c ErrorCode) String() string {
	switch c {
	case None:
		return "No error"
	case NotInitialized:
		return "Library not initialized"
	case InitializationFailed:
		return "Initialization failed"
	case InvalidParameter:
		return "Invalid parameter"
	case CaptureFailed:
		return "Capture failed"
	case OutOfMemory:
		return "Out of memory"
	case Unsupported:
		return "Operation not supported"
	default:
		return "Unknown error"
	}
}

// Error carries a status code, the failing operation and an optional cause.
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, capture.ErrInvalidParameter).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Code sentinels for errors.Is.
var (
	ErrNotInitialized       = &Error{Code: NotInitialized}
	ErrInitializationFailed = &Error{Code: InitializationFailed}
	ErrInvalidParameter     = &Error{Code: InvalidParameter}
	ErrCaptureFailed        = &Error{Code: CaptureFailed}
	ErrOutOfMemory          = &Error{Code: OutOfMemory}
	ErrUnsupported          = &Error{Code: Unsupported}
)

// ErrNoFrame is returned by a FrameSource when nothing changed since the
// previous acquisition. It is not a failure.
var ErrNoFrame = errors.New("capture: no new frame")

func newError(code ErrorCode, op string, cause error) *Error {
	return &Error{Code: code, Op: op, Err: cause}
}

func errorf(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// CodeOf extracts the status code from err. nil maps to None and errors
// that do not carry a code map to CaptureFailed.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return None
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CaptureFailed
}

// errorSlot is the last-error side channel. It is shared by every goroutine
// using the registry, so concurrent callers may observe each other's codes.
type errorSlot struct{ code atomic.Int32 }

func (s *errorSlot) record(err error) error {
	s.code.Store(int32(CodeOf(err)))
	return err
}

func (s *errorSlot) load() ErrorCode { return ErrorCode(s.code.Load()) }
