// Package apperr defines the application-wide error taxonomy. Every public
// operation in the auth and gitsync cores returns one of these kinds so the
// UI can decide what to render and whether a manual retry makes sense,
// without string-matching messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindConfiguration - missing client credentials, ports or similar
	// process configuration. Fatal, surfaced before any network call.
	KindConfiguration Kind = iota

	// KindValidation - caller-correctable input problems (malformed
	// repository URL, empty token). Never sent to the network layer.
	KindValidation

	// KindSecurity - state-parameter mismatch on the OAuth callback.
	// Aborts the flow, never silently continued.
	KindSecurity

	// KindProvider - the remote API or OAuth provider reported an error;
	// the provider's message is preserved verbatim for display.
	KindProvider

	// KindTransport - network/IO failure. Eligible for a manual retry by
	// re-invoking the operation; never retried automatically.
	KindTransport

	// KindConflict - push rejected by the remote. No auto-resolution.
	KindConflict

	// KindBusy - another operation is already in flight on the same
	// component; the call was rejected without side effects.
	KindBusy

	// KindCanceled - the caller canceled the operation.
	KindCanceled
)

// String returns the short machine-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindSecurity:
		return "security"
	case KindProvider:
		return "provider"
	case KindTransport:
		return "transport"
	case KindConflict:
		return "conflict"
	case KindBusy:
		return "busy"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error carries a kind, a display message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the kind from err. Errors outside the taxonomy report
// KindTransport when ok is false, which is the conservative display default.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindTransport, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Retryable reports whether re-invoking the failed operation may succeed
// without any other change (transport failures only; retry is always the
// user's decision, never automatic).
func Retryable(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindTransport
}
