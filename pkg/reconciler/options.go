package reconciler

import (
	"time"

	"github.com/agentstation/staymap/pkg/authority"
	"github.com/agentstation/staymap/pkg/classifier"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/stays"
)

type options struct {
	authority  authority.Authority
	classifier *classifier.Classifier
	filter     *stays.Filter
	now        func() time.Time
}

func defaultOptions() *options {
	return &options{
		authority:  authority.New(),
		classifier: classifier.New(),
		filter:     stays.NewFilter(nil),
		now:        time.Now,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithAuthority sets the signal precedence table.
func WithAuthority(a authority.Authority) Option {
	return func(o *options) error {
		if a == nil {
			return &errors.ValidationError{Field: "authority", Message: "cannot be nil"}
		}
		o.authority = a
		return nil
	}
}

// WithClassifier sets the category classifier.
func WithClassifier(c *classifier.Classifier) Option {
	return func(o *options) error {
		if c == nil {
			return &errors.ValidationError{Field: "classifier", Message: "cannot be nil"}
		}
		o.classifier = c
		return nil
	}
}

// WithTestDetector sets the test-booking detector.
func WithTestDetector(d stays.Detector) Option {
	return func(o *options) error {
		if d == nil {
			return &errors.ValidationError{Field: "detector", Message: "cannot be nil"}
		}
		o.filter = stays.NewFilter(d)
		return nil
	}
}

// WithClock sets the time source used for result metadata.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}
