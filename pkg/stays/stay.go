// Package stays models guest reservations and the predicates that decide
// whether a reservation occupies a unit on a given day.
package stays

import (
	"strings"
	"time"

	"github.com/agentstation/staymap/pkg/units"
)

// Lifecycle is the booking state reported by the reservation feed.
type Lifecycle string

// Lifecycle states. Anything the feed reports beyond new, modified and
// cancelled (expired, declined, inquiry) maps to LifecycleOther.
const (
	LifecycleNew       Lifecycle = "new"
	LifecycleModified  Lifecycle = "modified"
	LifecycleCancelled Lifecycle = "cancelled"
	LifecycleOther     Lifecycle = "other"
)

// ParseLifecycle maps an upstream status string onto a Lifecycle.
func ParseLifecycle(s string) Lifecycle {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new", "confirmed", "booked":
		return LifecycleNew
	case "modified", "changed", "updated":
		return LifecycleModified
	case "cancelled", "canceled":
		return LifecycleCancelled
	}
	return LifecycleOther
}

// Stay is one guest reservation. Arrival and Departure are civil dates held
// as UTC midnight.
type Stay struct {
	ID         string    `json:"id" yaml:"id"`
	UnitID     units.ID  `json:"unit_id" yaml:"unit_id"`
	GuestName  string    `json:"guest_name" yaml:"guest_name"`
	Arrival    time.Time `json:"arrival" yaml:"arrival"`
	Departure  time.Time `json:"departure" yaml:"departure"`
	Lifecycle  Lifecycle `json:"lifecycle" yaml:"lifecycle"`
	Comment    string    `json:"comment,omitempty" yaml:"comment,omitempty"`
	Notes      string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	TotalPrice float64   `json:"total_price,omitempty" yaml:"total_price,omitempty"`
	Currency   string    `json:"currency,omitempty" yaml:"currency,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
	LikelyTest bool      `json:"likely_test" yaml:"likely_test"`
}

// Nights returns the number of nights between arrival and departure.
func (s Stay) Nights() int {
	n := int(Day(s.Departure).Sub(Day(s.Arrival)).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// NightlyRate spreads the total price evenly across the nights of the stay.
func (s Stay) NightlyRate() float64 {
	n := s.Nights()
	if n == 0 {
		return 0
	}
	return s.TotalPrice / float64(n)
}

// Day truncates t to its civil date at UTC midnight. The calendar fields of
// t are used as-is, so a local 2024-01-12 stays 2024-01-12.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date, also accepting a full RFC 3339
// timestamp whose date part is then used.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// Window is the date range the reservation fetch covers.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow builds the window [today-lookback, today+lookahead].
func NewWindow(today time.Time, lookback, lookahead time.Duration) Window {
	today = Day(today)
	return Window{From: Day(today.Add(-lookback)), To: Day(today.Add(lookahead))}
}
