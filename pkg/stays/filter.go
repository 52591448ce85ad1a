package stays

import "time"

// IsActiveToday reports whether the stay occupies its unit on today:
// arrival <= today < departure. The checkout day is not occupied.
func IsActiveToday(s Stay, today time.Time) bool {
	today = Day(today)
	return !Day(s.Arrival).After(today) && today.Before(Day(s.Departure))
}

// IsCheckingOutToday reports whether the stay departs on today. It is an
// independent flag and is never folded into IsActiveToday.
func IsCheckingOutToday(s Stay, today time.Time) bool {
	return Day(s.Departure).Equal(Day(today))
}

// IsEligibleStatus reports whether the booking counts as real: only new and
// modified reservations do.
func IsEligibleStatus(s Stay) bool {
	return s.Lifecycle == LifecycleNew || s.Lifecycle == LifecycleModified
}

// IsLikelyTestBooking applies the default token detector.
func IsLikelyTestBooking(s Stay) bool {
	return DefaultDetector.IsLikelyTest(s)
}

// Filter evaluates stays with a pluggable test-booking detector.
type Filter struct {
	Detector Detector
}

// NewFilter returns a Filter using d, or DefaultDetector when d is nil.
func NewFilter(d Detector) *Filter {
	if d == nil {
		d = DefaultDetector
	}
	return &Filter{Detector: d}
}

// Countable reports whether the stay is an eligible, non-test booking.
func (f *Filter) Countable(s Stay) bool {
	return IsEligibleStatus(s) && !f.Detector.IsLikelyTest(s)
}

// Mark sets LikelyTest on every stay and returns the slice.
func (f *Filter) Mark(list []Stay) []Stay {
	for i := range list {
		list[i].LikelyTest = f.Detector.IsLikelyTest(list[i])
	}
	return list
}

// ActiveToday returns the countable stays active on today, keeping order.
func (f *Filter) ActiveToday(list []Stay, today time.Time) []Stay {
	var out []Stay
	for _, s := range list {
		if f.Countable(s) && IsActiveToday(s, today) {
			out = append(out, s)
		}
	}
	return out
}

// CheckingOutToday returns the countable stays departing on today.
func (f *Filter) CheckingOutToday(list []Stay, today time.Time) []Stay {
	var out []Stay
	for _, s := range list {
		if f.Countable(s) && IsCheckingOutToday(s, today) {
			out = append(out, s)
		}
	}
	return out
}
