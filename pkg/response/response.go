package response

import (
	"errors"
)

// Error carries the HTTP status an error maps to and a stable machine code
// (e.g. MISSING_USER) that clients can branch on.
type Error struct {
	Code int
	Kind string
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewKindError(code int, kind string, err string) error {
	return &Error{Code: code, Kind: kind, Err: errors.New(err)}
}

// Wrap keeps the code and kind of base and appends the message of cause. Both
// errors.Is(w, base) and errors.Is(w, cause) hold for the result.
func Wrap(base error, cause error) error {
	var b *Error
	if !errors.As(base, &b) {
		return errors.Join(base, cause)
	}
	return &wrapped{base: b, cause: cause}
}

type wrapped struct {
	base  *Error
	cause error
}

func (w *wrapped) Error() string {
	if w.cause == nil {
		return w.base.Error()
	}
	return w.base.Error() + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() []error {
	if w.cause == nil {
		return []error{w.base}
	}
	return []error{w.base, w.cause}
}

// KindOf returns the machine code of err, or "" when err is not a response error.
func KindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
