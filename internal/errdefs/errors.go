// Package errdefs defines the closed set of error kinds the core surfaces,
// per the error handling design: resolvers and fetchers never panic, they
// return one of these tagged errors (or fold it into a record's Error field).
package errdefs

import "fmt"

type ErrorType int

const (
	// ErrTypeNotFound: pacman/AUR returned empty for a query.
	ErrTypeNotFound ErrorType = iota
	// ErrTypeParseError: malformed subprocess or HTTP response; the affected
	// record is omitted and other records continue.
	ErrTypeParseError
	// ErrTypeNetworkError: HTTP failure or timeout; cached data is served
	// and the circuit breaker may open.
	ErrTypeNetworkError
	// ErrTypeCommandFailed: non-zero pacman/helper exit.
	ErrTypeCommandFailed
	// ErrTypePermissionDenied: password-required operation rejected.
	ErrTypePermissionDenied
	// ErrTypeCancellationObserved: preflight_cancelled was set when a worker
	// finished; the result is dropped for UI purposes only.
	ErrTypeCancellationObserved
	ErrTypeGeneric
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotFound:
		return "not_found"
	case ErrTypeParseError:
		return "parse_error"
	case ErrTypeNetworkError:
		return "network_error"
	case ErrTypeCommandFailed:
		return "command_failed"
	case ErrTypePermissionDenied:
		return "permission_denied"
	case ErrTypeCancellationObserved:
		return "cancellation_observed"
	default:
		return "generic"
	}
}

// CustomError is a tagged error carrying enough context to pick a UI surface
// (toast, inline tab error, log line) without inspecting error strings.
type CustomError struct {
	Type    ErrorType
	Message string
	// Status and Stderr are populated for ErrTypeCommandFailed.
	Status int
	Stderr string
	// Err is the underlying cause, if any; exposed via Unwrap.
	Err error
}

func (e *CustomError) Error() string {
	if e.Status != 0 || e.Stderr != "" {
		return fmt.Sprintf("%s (exit %d): %s", e.Message, e.Status, e.Stderr)
	}
	return e.Message
}

func (e *CustomError) Unwrap() error { return e.Err }

func New(t ErrorType, message string) error {
	return &CustomError{Type: t, Message: message}
}

func Wrap(t ErrorType, err error, message string) error {
	return &CustomError{Type: t, Message: message, Err: err}
}

func NotFound(message string, args ...interface{}) error {
	return New(ErrTypeNotFound, fmt.Sprintf(message, args...))
}

func ParseError(message string, args ...interface{}) error {
	return New(ErrTypeParseError, fmt.Sprintf(message, args...))
}

func NetworkError(err error, message string, args ...interface{}) error {
	return Wrap(ErrTypeNetworkError, err, fmt.Sprintf(message, args...))
}

func CommandFailed(status int, stderr, message string) error {
	return &CustomError{Type: ErrTypeCommandFailed, Message: message, Status: status, Stderr: stderr}
}

func PermissionDenied(message string) error {
	return New(ErrTypePermissionDenied, message)
}

func CancellationObserved() error {
	return New(ErrTypeCancellationObserved, "result discarded: preflight was cancelled")
}

// Is reports whether err is a *CustomError of the given type, unwrapping
// through any wrapper errors.
func Is(err error, t ErrorType) bool {
	var ce *CustomError
	for err != nil {
		if c, ok := err.(*CustomError); ok {
			ce = c
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ce != nil && ce.Type == t
}
