// Package transport is the HTTP client shared by every upstream source.
// It applies authentication, a shared rate limit, a per-request timeout and
// bounded retries with exponential backoff for transient failures.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
)

// Config configures a Client.
type Config struct {
	// Source names the upstream in errors and logs.
	Source  string
	BaseURL string
	APIKey  string

	// Auth defaults to BearerAuth. Any auth other than NoAuth requires APIKey.
	Auth Authenticator

	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	MaxWait    time.Duration

	// Limiter is shared between clients talking to the same upstream.
	// When nil a limiter of RateLimit requests per second is created.
	Limiter   *rate.Limiter
	RateLimit rate.Limit
	Burst     int
}

func (cfg *Config) defaults() {
	if cfg.Auth == nil {
		cfg.Auth = &BearerAuth{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	} else if cfg.RetryCount == 0 {
		cfg.RetryCount = constants.MaxRetries
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = constants.RetryBackoff
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = constants.MaxRetryBackoff
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = constants.DefaultRateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = constants.BurstSize
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(cfg.RateLimit, cfg.Burst)
	}
}

// Client performs JSON requests against one upstream.
type Client struct {
	source  string
	http    *resty.Client
	limiter *rate.Limiter
}

// New creates a client. A missing base URL is a ConfigError and a missing
// API key for an authenticated upstream is an AuthenticationError; both
// are reported here so a misconfigured deployment fails before its first
// cycle.
func New(cfg Config) (*Client, error) {
	cfg.defaults()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.NewConfigError(cfg.Source, "base URL is required", nil)
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.NewConfigError(cfg.Source, "invalid base URL", err)
	}
	if RequiresKey(cfg.Auth) && cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError(cfg.Source, cfg.Auth.Method(), "API key is required", errors.ErrAPIKeyRequired)
	}

	c := &Client{source: cfg.Source, limiter: cfg.Limiter}
	auth, apiKey := cfg.Auth, cfg.APIKey

	c.http = resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.MaxWait).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{source: cfg.Source}).
		AddRetryCondition(retryable).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return c.limiter.Wait(r.Context())
		}).
		SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
			auth.Apply(req, apiKey)
			return nil
		})
	return c, nil
}

// Source returns the upstream name.
func (c *Client) Source() string {
	return c.source
}

// Get fetches path with the given query and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Do sends one request. Non-2xx responses come back as *errors.APIError,
// undecodable bodies as *errors.ParseError. out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	logger := logging.FromContext(ctx)
	start := time.Now()

	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &errors.APIError{Source: c.source, Endpoint: path, Message: err.Error(), Err: err}
	}

	logger.Debug().
		Str("source", c.source).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Int("attempts", resp.Request.Attempt).
		Dur("duration", time.Since(start)).
		Msg("Upstream request")

	if resp.IsError() {
		return &errors.APIError{
			Source:     c.source,
			StatusCode: resp.StatusCode(),
			Endpoint:   path,
			Message:    truncate(strings.TrimSpace(resp.String()), 200),
		}
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.WrapParse("json", c.source, err)
	}
	return nil
}

// retryable retries connection failures, 429 and 5xx. Other 4xx responses
// never succeed on retry. A nil response means a request hook failed, which
// includes the rate limiter giving up on a done context.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return resp != nil && resp.Request != nil && resp.Request.Context().Err() == nil
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type restyLogger struct {
	source string
}

func (l restyLogger) Errorf(format string, v ...any) {
	logging.Default().Error().Str("source", l.source).Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...any) {
	logging.Default().Warn().Str("source", l.source).Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...any) {
	logging.Default().Debug().Str("source", l.source).Msgf(format, v...)
}
