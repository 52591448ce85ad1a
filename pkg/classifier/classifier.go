// Package classifier maps unit metadata to a bedroom category through a
// first-match cascade of strategies. Classification is pure: the same unit
// always yields the same category and nothing here performs I/O.
package classifier

import (
	"github.com/agentstation/staymap/pkg/units"
)

// Classifier runs its strategies in order; the first that answers wins.
type Classifier struct {
	strategies []Strategy
	premium    PremiumSet
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithPremiumUnits marks two-bedroom units as premium by ID.
func WithPremiumUnits(ids ...units.ID) Option {
	return func(c *Classifier) {
		for id := range NewPremiumSet(ids...) {
			c.premium[id] = struct{}{}
		}
	}
}

// WithStrategies replaces the default cascade.
func WithStrategies(strategies ...Strategy) Option {
	return func(c *Classifier) {
		c.strategies = strategies
	}
}

// New creates a classifier. Without WithStrategies the cascade is bedroom
// count, then name tokens, then guest capacity.
func New(opts ...Option) *Classifier {
	c := &Classifier{premium: PremiumSet{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.strategies == nil {
		c.strategies = []Strategy{
			BedroomCount{Premium: c.premium},
			NameTokens{Premium: c.premium},
			GuestCapacity{},
		}
	}
	return c
}

// Classify returns the unit's category, or CategoryUnknown when no
// strategy answers.
func (c *Classifier) Classify(u units.Unit) units.Category {
	cat, _ := c.Explain(u)
	return cat
}

// Explain returns the category and the name of the strategy that decided
// it ("" for Unknown).
func (c *Classifier) Explain(u units.Unit) (units.Category, string) {
	for _, s := range c.strategies {
		if cat, ok := s.Classify(u); ok {
			return cat, s.Name()
		}
	}
	return units.CategoryUnknown, ""
}

// ClassifyAll sets Category on every unit and returns the slice.
func (c *Classifier) ClassifyAll(list []units.Unit) []units.Unit {
	for i := range list {
		list[i].Category = c.Classify(list[i])
	}
	return list
}
