// Package errors defines the closed TypedError taxonomy an adapter uses
// to report failure to the Provider Manager. Every failure out of an
// adapter is a value of this type; nothing else crosses that boundary.
package errors

import (
	"fmt"
	"time"

	"github.com/textenhance/core/pkg/types"
)

// ProviderError is the single escape hatch out of a ProviderAdapter. Its
// Cause is one of the closed set in types.ErrorCause.
type ProviderError struct {
	Cause      types.ErrorCause
	Provider   string
	Message    string
	StatusCode int
	// RetryAfter carries a vendor-supplied hint (e.g. a rate-limit
	// retry-after header or a quota reset window) when present.
	RetryAfter time.Duration
	Timestamp  time.Time
	Wrapped    error
}

func (e *ProviderError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Provider, e.Cause, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Cause, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Wrapped }

// New builds a ProviderError, stamping the timestamp.
func New(provider string, cause types.ErrorCause, message string) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Cause:     cause,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap builds a ProviderError around an underlying transport/parse error.
func Wrap(provider string, cause types.ErrorCause, message string, err error) *ProviderError {
	pe := New(provider, cause, message)
	pe.Wrapped = err
	return pe
}

// WithRetryAfter attaches a vendor-supplied retry hint.
func (e *ProviderError) WithRetryAfter(d time.Duration) *ProviderError {
	e.RetryAfter = d
	return e
}

// WithStatusCode attaches the HTTP status code that produced this error.
func (e *ProviderError) WithStatusCode(code int) *ProviderError {
	e.StatusCode = code
	return e
}

// CauseOf extracts the ErrorCause from an arbitrary error, defaulting to
// CauseTransport for anything not already classified — an adapter must
// never let an unclassified error escape, but callers composing errors
// from lower layers (e.g. context cancellation slipping through) fall
// back safely here rather than panicking.
func CauseOf(err error) types.ErrorCause {
	if err == nil {
		return types.CauseNone
	}
	var pe *ProviderError
	if As(err, &pe) {
		return pe.Cause
	}
	return types.CauseTransport
}

// As is a small local wrapper so this package does not need to import
// the standard errors package under the same name as our own.
func As(err error, target **ProviderError) bool {
	for err != nil {
		if pe, ok := err.(*ProviderError); ok {
			*target = pe
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
