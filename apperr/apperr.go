package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable failure category surfaced to API callers.
type Kind string

const (
	Validation   Kind = "validation"
	NotFound     Kind = "not_found"
	InvalidState Kind = "invalid_state"
	Conflict     Kind = "conflict"
	Upstream     Kind = "upstream"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, message string) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, unwrapping as needed. The second
// return is false for errors that carry no kind (treated as internal).
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
