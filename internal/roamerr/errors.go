// Package roamerr defines the error taxonomy for Roam API operations.
//
// Every failure surfaced by the transport or a higher-level operation is
// tagged with a Kind so that callers (the retry policy in particular)
// branch on a structured error class rather than matching message text.
package roamerr

import (
	"errors"
	"fmt"
)

// Kind classifies an API failure.
type Kind int

const (
	// KindUnknown is the zero value for otherwise unclassified failures.
	KindUnknown Kind = iota
	// KindValidation marks a malformed request detected locally or a
	// server-side 400. Never retried.
	KindValidation
	// KindAuth marks an invalid or insufficient token (401/403). Never
	// retried; fatal to the run.
	KindAuth
	// KindNotFound marks a missing entity (404). An empty query result is
	// not an error; this kind only appears when an entity was expected.
	KindNotFound
	// KindTransient marks a rate-limited or still-warming graph (429/503).
	// The only kind the retry policy retries.
	KindTransient
	// KindServer marks a 500 from the backend.
	KindServer
	// KindRedirect marks a broken redirect handshake (3xx without a usable
	// Location header). Fatal.
	KindRedirect
	// KindExhausted marks a transient failure that outlived the retry
	// budget. The operation's effect on the graph is unknown.
	KindExhausted
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not found"
	case KindTransient:
		return "transient"
	case KindServer:
		return "server"
	case KindRedirect:
		return "redirect"
	case KindExhausted:
		return "retries exhausted"
	default:
		return "unknown"
	}
}

// Error is a kind-tagged API error. Op names the failing operation
// ("write/create-block", "q"), Err carries the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("roam: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("roam: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a kind-tagged error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates a kind-tagged error from a format string.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, or KindUnknown if err is not tagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsNotFound reports whether err marks a missing entity.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsAuth reports whether err marks an authentication failure.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsExhausted reports whether err marks an exhausted retry budget.
func IsExhausted(err error) bool { return KindOf(err) == KindExhausted }
