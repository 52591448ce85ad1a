package errors

import (
	"fmt"
	"net/http"
)

// APIError is a non-success answer from a feed. StatusCode is zero when no
// response arrived at all.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Source, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is classifies by status: 429 is rate limited and transient, 5xx and
// connection failures are transient, 401 and 403 are unauthorized, 404 is
// not found.
func (e *APIError) Is(target error) bool {
	code := e.StatusCode
	switch target {
	case ErrRateLimited:
		return code == http.StatusTooManyRequests
	case ErrTransient:
		return code == http.StatusTooManyRequests ||
			code >= http.StatusInternalServerError ||
			(code == 0 && e.Err != nil)
	case ErrUnauthorized:
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	case ErrNotFound:
		return code == http.StatusNotFound
	}
	return false
}

// NewAPIError returns an APIError for a response with the given status.
func NewAPIError(source string, statusCode int, message string) *APIError {
	return &APIError{Source: source, StatusCode: statusCode, Message: message}
}

// AuthenticationError is a feed credential that is missing or was refused.
type AuthenticationError struct {
	Source string
	// Method is the auth scheme: "bearer", "header" or "api_key".
	Method  string
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s credentials: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("%s %s credentials: %s", e.Source, e.Method, e.Message)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) Is(target error) bool {
	switch target {
	case ErrAPIKeyRequired, ErrUnauthorized, ErrUnavailable:
		return true
	}
	return false
}

// NewAuthenticationError returns an AuthenticationError for source.
func NewAuthenticationError(source, method, message string, err error) *AuthenticationError {
	return &AuthenticationError{Source: source, Method: method, Message: message, Err: err}
}

// FetchError is a whole feed failing for one cycle.
type FetchError struct {
	Source string
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError returns a FetchError for op against source.
func NewFetchError(source, op string, err error) *FetchError {
	return &FetchError{Source: source, Op: op, Err: err}
}

// PartialFetchError is one unit's lookup or one query failing, or a
// listing cut short, while the rest of the feed answered. It matches
// ErrPartial.
type PartialFetchError struct {
	Source string
	UnitID string
	Query  string
	Err    error
}

func (e *PartialFetchError) Error() string {
	if e.UnitID != "" {
		return fmt.Sprintf("%s: unit %s: %v", e.Source, e.UnitID, e.Err)
	}
	if e.Query != "" {
		return fmt.Sprintf("%s: %s query: %v", e.Source, e.Query, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *PartialFetchError) Unwrap() error { return e.Err }

func (e *PartialFetchError) Is(target error) bool { return target == ErrPartial }

// TimeoutError is an operation that outlived its deadline. Duration is the
// configured limit as printed by time.Duration.String.
type TimeoutError struct {
	Operation string
	Duration  string
}

func (e *TimeoutError) Error() string {
	if e.Duration == "" {
		return e.Operation + " timed out"
	}
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Duration)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == ErrTransient
}
