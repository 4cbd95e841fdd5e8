package htmlpdf

import (
	"errors"
	"fmt"
)

// Kind classifies conversion failures.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	// KindBusy: another request is in flight.
	KindBusy
	// KindUnsupportedPlatform: the engine cannot host or print surfaces.
	KindUnsupportedPlatform
	// KindNavigation: the source failed to load.
	KindNavigation
	// KindSurfaceLost: the render surface went away mid-request.
	KindSurfaceLost
	// KindNoHost: no render surface could be acquired.
	KindNoHost
	// KindIO: a temporary or output file could not be written or read.
	KindIO
	// KindCapture: the engine failed to paginate the document.
	KindCapture
	// KindTimeout: the request deadline expired.
	KindTimeout
	// KindClosed: the converter was closed.
	KindClosed
)

// Code returns the wire error code of k. Surface loss and capture failures
// share WEBVIEW_ERROR.
func (k Kind) Code() string {
	switch k {
	case KindBusy:
		return "BUSY"
	case KindUnsupportedPlatform:
		return "UNSUPPORTED_PLATFORM"
	case KindNavigation:
		return "NAVIGATION_ERROR"
	case KindSurfaceLost, KindCapture:
		return "WEBVIEW_ERROR"
	case KindNoHost:
		return "NO_VIEW_CONTROLLER"
	case KindIO:
		return "IO_ERROR"
	case KindTimeout:
		return "TIMEOUT"
	case KindClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

func (k Kind) String() string {
	switch k {
	case KindBusy:
		return "busy"
	case KindUnsupportedPlatform:
		return "unsupported platform"
	case KindNavigation:
		return "navigation"
	case KindSurfaceLost:
		return "surface lost"
	case KindNoHost:
		return "no host"
	case KindIO:
		return "i/o"
	case KindCapture:
		return "capture"
	case KindTimeout:
		return "timeout"
	case KindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error is the failure delivered for a conversion request.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := "htmlpdf: " + e.Kind.Code()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrBusy) matches every busy failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Code returns the wire error code.
func (e *Error) Code() string {
	return e.Kind.Code()
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Sentinel errors for use with errors.Is.
var (
	ErrBusy                = &Error{Kind: KindBusy}
	ErrUnsupportedPlatform = &Error{Kind: KindUnsupportedPlatform}
	ErrNavigation          = &Error{Kind: KindNavigation}
	ErrSurfaceLost         = &Error{Kind: KindSurfaceLost}
	ErrNoHost              = &Error{Kind: KindNoHost}
	ErrIO                  = &Error{Kind: KindIO}
	ErrCapture             = &Error{Kind: KindCapture}
	ErrTimeout             = &Error{Kind: KindTimeout}

	// ErrClosed is returned when attempting to use a closed [Converter].
	ErrClosed = &Error{Kind: KindClosed}
)

// CodeOf returns the wire code carried by err, or "" when err is not an
// *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return ""
}
