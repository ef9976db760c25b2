package estimate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// numberPrefix matches the longest leading decimal literal of an input.
var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads a form value the way a browser's parseFloat does:
// leading whitespace is skipped and the longest numeric prefix is parsed,
// so "3 days" is 3. Anything unparsable or non-finite is 0.
func ParseNumber(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return Sanitize(v)
}

// Sanitize maps NaN and ±Inf to 0.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// positiveOr returns v when it is finite and positive, fallback otherwise.
func positiveOr(v, fallback float64) float64 {
	if v = Sanitize(v); v > 0 {
		return v
	}
	return fallback
}
