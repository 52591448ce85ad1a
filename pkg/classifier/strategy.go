package classifier

import (
	"regexp"
	"strconv"

	"github.com/agentstation/staymap/pkg/units"
)

// Strategy is one step of the classification cascade. It reports ok=false
// when it has no opinion, letting the next step run.
type Strategy interface {
	Name() string
	Classify(u units.Unit) (units.Category, bool)
}

// PremiumSet holds the unit IDs whose two-bedroom layout is sold as premium.
type PremiumSet map[units.ID]struct{}

// NewPremiumSet builds a PremiumSet from ids.
func NewPremiumSet(ids ...units.ID) PremiumSet {
	set := make(PremiumSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// Contains reports whether id is premium.
func (p PremiumSet) Contains(id units.ID) bool {
	_, ok := p[id]
	return ok
}

func (p PremiumSet) byBedrooms(id units.ID, n int) units.Category {
	switch {
	case n <= 0:
		return units.CategoryStudio
	case n == 1:
		return units.CategoryOneBR
	case n == 2:
		if p.Contains(id) {
			return units.CategoryTwoBRPremium
		}
		return units.CategoryTwoBR
	default:
		return units.CategoryThreeBR
	}
}

// BedroomCount classifies from the explicit bedroom count.
type BedroomCount struct {
	Premium PremiumSet
}

// Name implements Strategy.
func (BedroomCount) Name() string { return "bedroom_count" }

// Classify implements Strategy.
func (s BedroomCount) Classify(u units.Unit) (units.Category, bool) {
	if u.Bedrooms == nil || *u.Bedrooms < 0 {
		return "", false
	}
	return s.Premium.byBedrooms(u.ID, *u.Bedrooms), true
}

var (
	studioPattern = regexp.MustCompile(`(?i)\bstudios?\b`)

	// 2BR, 2 BR, 2-br, 2bd, 2 bed, 2-bedroom, 2 bedrooms
	bedroomPattern = regexp.MustCompile(`(?i)\b([1-9])\s*[-_]?\s*(?:br|bd|bdr|bed|beds|bedroom|bedrooms)\b`)

	// (2B), ( 2 b )
	parenPattern = regexp.MustCompile(`(?i)\(\s*([1-9])\s*b\s*\)`)
)

// NameTokens classifies from tokens in the display or internal name.
type NameTokens struct {
	Premium PremiumSet
}

// Name implements Strategy.
func (NameTokens) Name() string { return "name_tokens" }

// Classify implements Strategy.
func (s NameTokens) Classify(u units.Unit) (units.Category, bool) {
	for _, name := range []string{u.Name, u.InternalName} {
		if name == "" {
			continue
		}
		if studioPattern.MatchString(name) {
			return units.CategoryStudio, true
		}
		for _, re := range []*regexp.Regexp{bedroomPattern, parenPattern} {
			if m := re.FindStringSubmatch(name); m != nil {
				n, _ := strconv.Atoi(m[1])
				return s.Premium.byBedrooms(u.ID, n), true
			}
		}
	}
	return "", false
}

// GuestCapacity classifies from how many guests the unit sleeps.
type GuestCapacity struct{}

// Name implements Strategy.
func (GuestCapacity) Name() string { return "guest_capacity" }

// Classify implements Strategy.
func (GuestCapacity) Classify(u units.Unit) (units.Category, bool) {
	if u.GuestCapacity == nil || *u.GuestCapacity <= 0 {
		return "", false
	}
	switch n := *u.GuestCapacity; {
	case n <= 2:
		return units.CategoryStudio, true
	case n <= 4:
		return units.CategoryOneBR, true
	case n <= 6:
		return units.CategoryTwoBR, true
	default:
		return units.CategoryThreeBR, true
	}
}
