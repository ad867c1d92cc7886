package validator

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericClaimPattern finds "<subject> <operator> <number>[%]" claims in
// free text, e.g. "VIX > 25" or "drawdown > 15%" (§4.3 thesis-logic
// numeric coherence).
var numericClaimPattern = regexp.MustCompile(`(?i)([A-Za-z_][A-Za-z0-9_]*)\s*(>=|<=|==|!=|>|<)\s*(-?\d+(?:\.\d+)?)\s*(%)?`)

// NumericClaim is one parsed threshold mention.
type NumericClaim struct {
	Subject  string
	Operator string
	Value    float64 // percentages are unit-normalized to a fraction
}

// ParseNumericClaims extracts every numeric threshold claim from text.
func ParseNumericClaims(text string) []NumericClaim {
	matches := numericClaimPattern.FindAllStringSubmatch(text, -1)
	claims := make([]NumericClaim, 0, len(matches))
	for _, m := range matches {
		value, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}
		if m[4] == "%" {
			value /= 100
		}
		claims = append(claims, NumericClaim{
			Subject:  strings.ToUpper(m[1]),
			Operator: m[2],
			Value:    value,
		})
	}
	return claims
}

// WithinTolerance reports whether a and b are within relTolerance of
// each other, relative to the larger magnitude.
func WithinTolerance(a, b, relTolerance float64) bool {
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return true
	}
	return math.Abs(a-b)/denom <= relTolerance
}

// AnyWithinTolerance reports whether claim matches at least one of
// candidates within relTolerance.
func AnyWithinTolerance(claim float64, candidates []float64, relTolerance float64) bool {
	for _, c := range candidates {
		if WithinTolerance(claim, c, relTolerance) {
			return true
		}
	}
	return false
}

// ContainsKeyword reports whether text contains any of keywords as a
// case-insensitive, word-boundary match.
func ContainsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		pattern := `\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`
		if matched, _ := regexp.MatchString(pattern, lower); matched {
			return true
		}
	}
	return false
}
