// Package authority holds the precedence table that decides which signal
// sets a unit's occupancy status when several fire at once.
package authority

import (
	"sort"

	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/units"
)

// Signal is one piece of evidence about a unit's state today.
type Signal string

// Signals, from strongest to weakest in the default table.
const (
	SignalOverrideBlocked     Signal = "override_blocked"
	SignalCalendarBlocked     Signal = "calendar_blocked"
	SignalActiveStay          Signal = "active_stay"
	SignalCalendarUnavailable Signal = "calendar_unavailable"
	SignalDefault             Signal = "default"
)

// Rule maps a signal to the status it implies and its priority.
type Rule struct {
	Signal   Signal       `json:"signal" yaml:"signal"`
	Source   sources.ID   `json:"source" yaml:"source"`
	Status   units.Status `json:"status" yaml:"status"`
	Priority int          `json:"priority" yaml:"priority"` // higher = more authoritative
}

// Authority determines which fired signal decides the status.
type Authority interface {
	// Find returns the rule for a signal
	Find(signal Signal) *Rule

	// List returns every rule, highest priority first
	List() []Rule

	// Decide returns the highest-priority rule among the fired signals,
	// falling back to the default rule
	Decide(fired ...Signal) Rule
}

type table struct {
	rules []Rule
}

// New creates an Authority with the default precedence:
// manual override, calendar block, active stay, calendar unavailable,
// default Available.
func New() Authority {
	return NewTable(DefaultRules())
}

// NewTable creates an Authority over custom rules. A missing default rule
// is added with priority 0 and status Available.
func NewTable(rules []Rule) Authority {
	t := &table{rules: append([]Rule(nil), rules...)}
	if t.Find(SignalDefault) == nil {
		t.rules = append(t.rules, Rule{Signal: SignalDefault, Source: sources.Defaults, Status: units.StatusAvailable})
	}
	sort.SliceStable(t.rules, func(i, j int) bool {
		return t.rules[i].Priority > t.rules[j].Priority
	})
	return t
}

// DefaultRules returns the standard precedence table.
func DefaultRules() []Rule {
	return []Rule{
		{Signal: SignalOverrideBlocked, Source: sources.Overrides, Status: units.StatusBlocked, Priority: 100},
		{Signal: SignalCalendarBlocked, Source: sources.Calendar, Status: units.StatusBlocked, Priority: 90},
		{Signal: SignalActiveStay, Source: sources.Reservations, Status: units.StatusReserved, Priority: 80},
		{Signal: SignalCalendarUnavailable, Source: sources.Calendar, Status: units.StatusReserved, Priority: 70},
		{Signal: SignalDefault, Source: sources.Defaults, Status: units.StatusAvailable, Priority: 0},
	}
}

// Find returns the rule for a signal, or nil.
func (t *table) Find(signal Signal) *Rule {
	for i := range t.rules {
		if t.rules[i].Signal == signal {
			return &t.rules[i]
		}
	}
	return nil
}

// List returns every rule, highest priority first.
func (t *table) List() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Decide returns the rule that wins among fired.
func (t *table) Decide(fired ...Signal) Rule {
	return *ByPriority(fired, t.rules)
}

// ByPriority returns the highest-priority rule whose signal fired, or the
// default rule. Equal priorities keep table order. rules must contain a
// default rule.
func ByPriority(fired []Signal, rules []Rule) *Rule {
	var best *Rule
	for i := range rules {
		r := &rules[i]
		if r.Signal != SignalDefault && !contains(fired, r.Signal) {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = r
		}
	}
	return best
}

func contains(fired []Signal, s Signal) bool {
	for _, f := range fired {
		if f == s {
			return true
		}
	}
	return false
}
