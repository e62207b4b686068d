package runtime

import "fmt"

// Kind classifies a reducer failure for the wire layer and for metrics
// labeling. It mirrors the error-kind taxonomy every reducer result is
// expected to report against.
type Kind string

const (
	KindUnauthorized    Kind = "unauthorized"
	KindBlocked         Kind = "blocked"
	KindNotFound        Kind = "not_found"
	KindPrecondition    Kind = "precondition"
	KindResource        Kind = "resource"
	KindConflict        Kind = "conflict"
	KindInvalidArgument Kind = "invalid_argument"
	KindInternal        Kind = "internal"
)

// Error is the error type every reducer should return on failure. A
// reducer may also return a plain error for a truly unexpected internal
// failure; Dispatch maps those to KindInternal before logging.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an underlying error,
// preserving it for %w-style inspection via Unwrap.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// KindOf extracts the Kind from err, defaulting to KindInternal for any
// error that isn't a *Error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *Error
	if asError(err, &re) {
		return re.Kind
	}
	return KindInternal
}

func asError(err error, target **Error) bool {
	for err != nil {
		if re, ok := err.(*Error); ok {
			*target = re
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
