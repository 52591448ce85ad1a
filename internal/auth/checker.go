package auth

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/agentstation/staymap/internal/transport"
)

var httpSchemes = []string{"http", "https"}

// Check checks one target. It performs local checks only.
func (c *Checker) Check(t Target) Status {
	status := Status{Target: t.Name}
	urlVar := t.Env + "_URL"

	// Step 1: the endpoint itself
	if strings.TrimSpace(t.URL) == "" {
		if t.Required {
			status.State = StateMissing
			status.Summary = fmt.Sprintf("Set %s", urlVar)
			return status
		}
		status.State = StateOptional
		status.Summary = "Not configured"
		return status
	}

	schemes := t.Schemes
	if len(schemes) == 0 {
		schemes = httpSchemes
	}
	u, err := url.Parse(t.URL)
	if err != nil || u.Host == "" || !slices.Contains(schemes, strings.ToLower(u.Scheme)) {
		status.State = StateInvalid
		status.Summary = fmt.Sprintf("%s must be a %s URL", urlVar, strings.Join(schemes, " or "))
		return status
	}

	// Step 2: the auth scheme
	authenticator, err := transport.ParseAuth(t.Auth)
	if err != nil {
		status.State = StateInvalid
		status.Summary = fmt.Sprintf("%s_AUTH: %v", t.Env, err)
		return status
	}
	status.Method = authenticator.Method()
	if !transport.RequiresKey(authenticator) {
		status.State = StateOptional
		status.Summary = "No API key required"
		return status
	}

	// Step 3: the key
	status.KeyVariable = t.Env + "_API_KEY"
	if strings.TrimSpace(t.APIKey) == "" {
		status.State = StateMissing
		status.Summary = fmt.Sprintf("Set %s", status.KeyVariable)
		return status
	}

	status.State = StateConfigured
	status.Summary = fmt.Sprintf("API key configured (%s)", status.Method)
	return status
}

// CheckAll checks every target in order.
func (c *Checker) CheckAll(targets []Target) []Status {
	out := make([]Status, 0, len(targets))
	for _, t := range targets {
		out = append(out, c.Check(t))
	}
	return out
}

// Failures returns the names of targets whose state would stop a cycle.
func Failures(statuses []Status) []string {
	var names []string
	for _, s := range statuses {
		if s.State.Failed() {
			names = append(names, s.Target)
		}
	}
	return names
}
