// Package units defines the rental unit model: identity, bedroom category,
// occupancy status, and the region filter applied to the catalog.
package units

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unit is one rentable apartment as reported by the catalog.
type Unit struct {
	ID            ID       `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	InternalName  string   `json:"internal_name,omitempty" yaml:"internal_name,omitempty"`
	Category      Category `json:"category" yaml:"category"`
	Region        string   `json:"region,omitempty" yaml:"region,omitempty"`
	City          string   `json:"city,omitempty" yaml:"city,omitempty"`
	Country       string   `json:"country,omitempty" yaml:"country,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	GuestCapacity *int     `json:"guest_capacity,omitempty" yaml:"guest_capacity,omitempty"`
}

// Normalize cleans the display fields in place: whitespace is collapsed,
// an empty name falls back to the internal name and then to "Unit <id>",
// the city is title-cased, the country code upper-cased, and Region is
// derived from them.
func (u *Unit) Normalize() {
	u.Name = collapseSpace(u.Name)
	u.InternalName = collapseSpace(u.InternalName)
	if u.Name == "" {
		u.Name = u.InternalName
	}
	if u.Name == "" {
		u.Name = "Unit " + u.ID.String()
	}

	u.City = collapseSpace(u.City)
	if u.City != "" && (u.City == strings.ToUpper(u.City) || u.City == strings.ToLower(u.City)) {
		u.City = cases.Title(language.Und).String(strings.ToLower(u.City))
	}
	u.Country = strings.ToUpper(strings.TrimSpace(u.Country))

	switch {
	case u.City != "" && u.Country != "":
		u.Region = u.City + ", " + u.Country
	case u.City != "":
		u.Region = u.City
	default:
		u.Region = u.Country
	}
}

// RegionFilter restricts the catalog to one region. A unit matches when any
// configured criterion matches; an empty filter matches every unit.
type RegionFilter struct {
	Countries  []string `json:"countries,omitempty" yaml:"countries,omitempty"`
	Cities     []string `json:"cities,omitempty" yaml:"cities,omitempty"`
	NameTokens []string `json:"name_tokens,omitempty" yaml:"name_tokens,omitempty"`
}

// IsEmpty reports whether the filter has no criteria.
func (f RegionFilter) IsEmpty() bool {
	return len(f.Countries) == 0 && len(f.Cities) == 0 && len(f.NameTokens) == 0
}

// Match reports whether u belongs to the region. Country codes compare
// exactly; cities and name tokens are case-insensitive substrings.
func (f RegionFilter) Match(u Unit) bool {
	if f.IsEmpty() {
		return true
	}
	for _, c := range f.Countries {
		if c = strings.TrimSpace(c); c != "" && strings.EqualFold(c, u.Country) {
			return true
		}
	}
	city := lower(u.City)
	for _, c := range f.Cities {
		if c = lower(c); c != "" && strings.Contains(city, c) {
			return true
		}
	}
	names := lower(u.Name + " " + u.InternalName)
	for _, tok := range f.NameTokens {
		if tok = lower(tok); tok != "" && strings.Contains(names, tok) {
			return true
		}
	}
	return false
}

// Filter returns the units that match, preserving order.
func (f RegionFilter) Filter(list []Unit) []Unit {
	if f.IsEmpty() {
		return list
	}
	out := make([]Unit, 0, len(list))
	for _, u := range list {
		if f.Match(u) {
			out = append(out, u)
		}
	}
	return out
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
