// Package auth checks whether the upstream feeds, the store and Redis have
// usable credentials. Checks are local: no network calls are made.
package auth

// State represents the credential state of one target.
type State string

const (
	// StateConfigured means the target has everything it needs.
	StateConfigured State = "configured"
	// StateMissing means a required URL or API key is not set.
	StateMissing State = "missing"
	// StateInvalid means a value is set but malformed.
	StateInvalid State = "invalid"
	// StateOptional means the target is not required or needs no key.
	StateOptional State = "optional"
)

// Failed reports whether the state would stop a cycle from running.
func (s State) Failed() bool {
	return s == StateMissing || s == StateInvalid
}

// Target describes one endpoint staymap talks to.
type Target struct {
	// Name is the display name, e.g. "catalog".
	Name string
	// Env is the environment prefix, e.g. "CATALOG" for CATALOG_URL.
	Env string
	// URL is the endpoint or DSN.
	URL string
	// Auth is the transport auth scheme: bearer, none, header:<name> or query:<param>.
	Auth string
	// APIKey is the configured key, if any.
	APIKey string
	// Required marks targets a cycle cannot run without.
	Required bool
	// Schemes lists the accepted URL schemes. Empty means http and https.
	Schemes []string
}

// Status is the result of checking one target.
type Status struct {
	Target      string `json:"target" yaml:"target"`
	State       State  `json:"state" yaml:"state"`
	Method      string `json:"method,omitempty" yaml:"method,omitempty"`
	KeyVariable string `json:"key_variable,omitempty" yaml:"key_variable,omitempty"`
	Summary     string `json:"summary" yaml:"summary"`
}

// Checker checks credential status for targets.
type Checker struct{}

// NewChecker creates a new credential checker.
func NewChecker() *Checker {
	return &Checker{}
}
