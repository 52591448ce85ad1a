// Package errors defines the error types staymap passes between the feeds,
// the reconciler, the table sync and the outer surfaces.
//
// Each typed error answers errors.Is for one or more sentinels, so callers
// branch on the class of failure (transient, credential, not found) without
// knowing which component produced it.
package errors

import (
	"errors"
)

// New and Join are re-exported so callers need only one errors import.
var (
	New  = errors.New
	Join = errors.Join
)

// Failure classes.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrAPIKeyRequired means an authenticated feed has no key configured.
	ErrAPIKeyRequired = errors.New("API key required")
	// ErrUnauthorized means an upstream rejected the configured credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransient marks failures worth retrying: 429, 5xx and dropped connections.
	ErrTransient   = errors.New("transient failure")
	ErrRateLimited = errors.New("rate limited")
	ErrTimeout     = errors.New("operation timed out")
	ErrCanceled    = errors.New("operation canceled")
	// ErrUnavailable means a collaborator is missing or misconfigured.
	ErrUnavailable = errors.New("unavailable")
	// ErrPartial marks a feed that answered with part of its data.
	ErrPartial = errors.New("partial result")
	// ErrTruncated means a listing stopped at its pagination cap.
	ErrTruncated = errors.New("result truncated at the pagination cap")
)

// IsNotFound reports whether err is a missing unit, record or resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidationError reports whether err is rejected input.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsTransient reports whether a retry may succeed.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// IsRateLimited reports whether an upstream answered 429.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// IsAuthConfig reports whether err is a missing or invalid credential or
// configuration. These fail fast and are never retried.
func IsAuthConfig(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrAPIKeyRequired)
}

// IsTimeout reports whether err is a *TimeoutError.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsCanceled reports whether err carries ErrCanceled.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// IsPartial reports whether err describes an incomplete but usable result.
// A whole-source FetchError is never partial, whatever it wraps.
func IsPartial(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return false
	}
	return errors.Is(err, ErrPartial)
}

// Partials collects every PartialFetchError in err's tree, including the
// members of joined errors.
func Partials(err error) []*PartialFetchError {
	var out []*PartialFetchError
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case nil:
		case *PartialFetchError:
			out = append(out, e)
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(e.Unwrap())
		}
	}
	walk(err)
	return out
}

// WrapResource returns nil for a nil err, otherwise a *ResourceError.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapIO returns nil for a nil err, otherwise an *IOError.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse returns nil for a nil err, otherwise a *ParseError.
func WrapParse(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, source, err.Error(), err)
}

// WrapFetch returns nil for a nil err, otherwise a *FetchError.
func WrapFetch(source, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewFetchError(source, op, err)
}
