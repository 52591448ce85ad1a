// Package response writes the envelope every staymap API endpoint returns:
// {"data": ..., "error": null} on success and {"data": null, "error": {...}}
// on failure.
package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/agentstation/staymap/pkg/errors"
)

// Headers set on snapshot reads.
const (
	// SnapshotIDHeader names the snapshot a response was built from.
	SnapshotIDHeader = "X-Snapshot-ID"
	// CacheHeader is HIT when the snapshot came from the server cache and
	// MISS when the request ran a cycle.
	CacheHeader = "X-Cache"
)

// Error codes.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeUpstream     = "UPSTREAM_FAILED"
	CodeTimeout      = "TIMEOUT"
)

// Response is the API envelope.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// JSON writes resp with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already sent
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes data with status 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Response{Data: data})
}

// Fail writes an error envelope.
func Fail(w http.ResponseWriter, status int, code, message, details string) {
	JSON(w, status, Response{Error: &Error{Code: code, Message: message, Details: details}})
}

// BadRequest writes a 400 for an invalid parameter.
func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, CodeBadRequest, message, "")
}

// Unauthorized writes a 401 naming the header the key belongs in.
func Unauthorized(w http.ResponseWriter, header string) {
	Fail(w, http.StatusUnauthorized, CodeUnauthorized,
		"Invalid or missing API key",
		"Provide a valid API key in the "+header+" header or as a bearer token")
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, CodeNotFound, message, "")
}

// RateLimited writes a 429 with a Retry-After header in whole seconds.
func RateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	secs := max(int((retryAfter+time.Second-1)/time.Second), 1)
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	Fail(w, http.StatusTooManyRequests, CodeRateLimited,
		"Rate limit exceeded",
		"Retry in "+strconv.Itoa(secs)+"s")
}

// InternalError writes a 500 without exposing the cause.
func InternalError(w http.ResponseWriter) {
	Fail(w, http.StatusInternalServerError, CodeInternal, "Internal server error", "An unexpected error occurred")
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	Fail(w, http.StatusServiceUnavailable, CodeUnavailable, "Service unavailable", message)
}

// FromError maps a cycle or sync error to a response:
//
//	not found             404
//	validation            400
//	config or credentials 503
//	timeout               504
//	upstream fetch        502
//	anything else         500
func FromError(w http.ResponseWriter, err error) {
	var fetchErr *errors.FetchError
	switch {
	case errors.IsNotFound(err):
		NotFound(w, err.Error())
	case errors.IsValidationError(err):
		BadRequest(w, err.Error())
	case errors.IsAuthConfig(err):
		ServiceUnavailable(w, err.Error())
	case errors.IsTimeout(err):
		Fail(w, http.StatusGatewayTimeout, CodeTimeout, "Cycle timed out", err.Error())
	case stderrors.As(err, &fetchErr):
		Fail(w, http.StatusBadGateway, CodeUpstream, "Upstream feed failed", fetchErr.Error())
	default:
		InternalError(w)
	}
}
