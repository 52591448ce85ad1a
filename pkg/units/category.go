package units

import (
	"fmt"
	"strings"
)

// Category is the bedroom classification used for reporting.
type Category string

// Categories, in reporting order.
const (
	CategoryStudio       Category = "studio"
	CategoryOneBR        Category = "1br"
	CategoryTwoBR        Category = "2br"
	CategoryTwoBRPremium Category = "2br_premium"
	CategoryThreeBR      Category = "3br"
	CategoryUnknown      Category = "unknown"
)

var categoryOrder = []Category{
	CategoryStudio,
	CategoryOneBR,
	CategoryTwoBR,
	CategoryTwoBRPremium,
	CategoryThreeBR,
	CategoryUnknown,
}

var categoryLabels = map[Category]string{
	CategoryStudio:       "Studio",
	CategoryOneBR:        "1BR",
	CategoryTwoBR:        "2BR",
	CategoryTwoBRPremium: "2BR Premium",
	CategoryThreeBR:      "3BR",
	CategoryUnknown:      "Unknown",
}

// Categories returns every category in reporting order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// String returns the string representation of a category.
func (c Category) String() string {
	return string(c)
}

// Label returns the display label, e.g. "2BR Premium".
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryUnknown]
}

// Rank returns the position of c in reporting order. Unrecognized values
// sort last.
func (c Category) Rank() int {
	for i, cat := range categoryOrder {
		if cat == c {
			return i
		}
	}
	return len(categoryOrder)
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory accepts either the string form or the display label.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, c := range categoryOrder {
		if norm == string(c) || norm == strings.ToLower(c.Label()) {
			return c, nil
		}
	}
	return CategoryUnknown, fmt.Errorf("unknown category %q", s)
}
