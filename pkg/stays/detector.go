package stays

import (
	"strings"
	"unicode"
)

// Detector decides whether a reservation is a test or placeholder booking.
// Detection is heuristic and may flag real guests; swap the detector when
// the default token list does not fit a portfolio.
type Detector interface {
	IsLikelyTest(s Stay) bool
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(s Stay) bool

// IsLikelyTest calls f(s).
func (f DetectorFunc) IsLikelyTest(s Stay) bool {
	return f(s)
}

// DefaultTestTokens are the disallowed words and phrases.
var DefaultTestTokens = []string{"test", "testing", "new guest", "guest", "dummy", "fake", "asdf"}

// DefaultDetector is the token detector over DefaultTestTokens.
var DefaultDetector Detector = NewTokenDetector(DefaultTestTokens...)

// TokenDetector flags a stay when the guest name is empty, or when the guest
// name, comment or notes contain a disallowed token as a whole word or
// phrase, case-insensitively.
type TokenDetector struct {
	tokens [][]string
}

// NewTokenDetector builds a detector over the given tokens.
func NewTokenDetector(tokens ...string) *TokenDetector {
	d := &TokenDetector{}
	for _, tok := range tokens {
		if words := words(tok); len(words) > 0 {
			d.tokens = append(d.tokens, words)
		}
	}
	return d
}

// IsLikelyTest implements Detector.
func (d *TokenDetector) IsLikelyTest(s Stay) bool {
	if strings.TrimSpace(s.GuestName) == "" {
		return true
	}
	for _, field := range []string{s.GuestName, s.Comment, s.Notes} {
		if d.matches(words(field)) {
			return true
		}
	}
	return false
}

func (d *TokenDetector) matches(text []string) bool {
	for _, tok := range d.tokens {
		for i := 0; i+len(tok) <= len(text); i++ {
			if equalWords(text[i:i+len(tok)], tok) {
				return true
			}
		}
	}
	return false
}

func equalWords(a, b []string) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// words lower-cases s and splits it on anything that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
