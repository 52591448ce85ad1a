package units

import "fmt"

// Status is the occupancy state of a unit for one snapshot.
// The zero value is not a valid status.
type Status string

// Occupancy states.
const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusBlocked   Status = "blocked"
)

// String returns the string representation of a status.
func (s Status) String() string {
	return string(s)
}

// IsValid reports whether s is one of the three occupancy states.
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusBlocked:
		return true
	}
	return false
}

// ParseStatus parses a status, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(lower(s))
	if !st.IsValid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}
