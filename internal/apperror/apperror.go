// Package apperror defines the error taxonomy surfaced at the RPC boundary.
// Kinds are stable strings clients can branch on.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the API boundary.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindPermissionDenied Kind = "permission_denied"
	KindConflict         Kind = "conflict"
	KindNotFound         Kind = "not_found"
	KindExternalProvider Kind = "external_provider"
	KindInternal         Kind = "internal"
)

// Error is a classified error. The message is safe to show to the caller for
// every kind except external_provider, where the detail stays server-side
// unless the failing step was critical.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func PermissionDenied(format string, args ...any) *Error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ExternalProvider wraps a registrar, DNS provider, or edge router failure.
func ExternalProvider(err error, format string, args ...any) *Error {
	return &Error{Kind: KindExternalProvider, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
