package converter

import (
	"errors"
	"net/http"
)

// Kind classifies a conversion failure
type Kind int

const (
	// KindInvalid covers malformed fields and unsupported pairs
	KindInvalid Kind = iota + 1
	// KindNotImplemented is a legal pair with no routine in the dispatch table
	KindNotImplemented
	// KindFailed is a routine that returned an error
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotImplemented:
		return "not_implemented"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sentinel errors, use with errors.Is()
var (
	ErrInvalid        = errors.New("invalid conversion request")
	ErrUnsupported    = errors.New("unsupported conversion")
	ErrNotImplemented = errors.New("conversion not implemented")
	ErrFailed         = errors.New("conversion failed")
)

// Error is returned by the Dispatcher for every rejected or failed conversion.
// Message is safe to show to the client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalid:
		return e.Kind == KindInvalid
	case ErrNotImplemented:
		return e.Kind == KindNotImplemented
	case ErrFailed:
		return e.Kind == KindFailed
	}
	return false
}

// StatusCode maps the kind to an HTTP status
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
