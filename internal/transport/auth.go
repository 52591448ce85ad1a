package transport

import (
	"net/http"
	"strings"

	"github.com/agentstation/staymap/pkg/errors"
)

// Authenticator attaches a feed's API key to outgoing requests.
// String returns the scheme in the form ParseAuth accepts.
type Authenticator interface {
	Apply(req *http.Request, apiKey string)
	Method() string
	String() string
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

func (*NoAuth) Apply(*http.Request, string) {}
func (*NoAuth) Method() string              { return "none" }
func (*NoAuth) String() string              { return "none" }

// BearerAuth sends the key as "Authorization: Bearer <key>".
type BearerAuth struct{}

func (*BearerAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
}
func (*BearerAuth) Method() string { return "bearer" }
func (*BearerAuth) String() string { return "bearer" }

// HeaderAuth sends the key in a named header.
type HeaderAuth struct {
	Header string
}

func (a *HeaderAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set(a.Header, apiKey)
}
func (*HeaderAuth) Method() string   { return "header" }
func (a *HeaderAuth) String() string { return "header:" + a.Header }

// QueryAuth sends the key as a query parameter, keeping the others.
type QueryAuth struct {
	Param string
}

func (a *QueryAuth) Apply(req *http.Request, apiKey string) {
	if req.URL == nil {
		return
	}
	q := req.URL.Query()
	q.Set(a.Param, apiKey)
	req.URL.RawQuery = q.Encode()
}
func (*QueryAuth) Method() string   { return "query" }
func (a *QueryAuth) String() string { return "query:" + a.Param }

// RequiresKey reports whether requests made with a need an API key.
func RequiresKey(a Authenticator) bool {
	_, none := a.(*NoAuth)
	return !none
}

// ParseAuth builds an Authenticator from its config form: "none",
// "bearer", "header:<name>" or "query:<param>". An empty scheme means bearer.
func ParseAuth(scheme string) (Authenticator, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(scheme), ":")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(kind) {
	case "", "bearer":
		return &BearerAuth{}, nil
	case "none":
		return &NoAuth{}, nil
	case "header":
		if arg == "" {
			return nil, errors.NewValidationError("auth", scheme, "header scheme needs a header name")
		}
		return &HeaderAuth{Header: arg}, nil
	case "query":
		if arg == "" {
			return nil, errors.NewValidationError("auth", scheme, "query scheme needs a parameter name")
		}
		return &QueryAuth{Param: arg}, nil
	}
	return nil, errors.NewValidationError("auth", scheme, "unknown auth scheme")
}
