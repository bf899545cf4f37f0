package quote

import (
	"math"
	"strconv"
	"strings"
)

// ParseDimension reads a user supplied number. Anything that is not a finite
// number becomes 0; a comma is accepted as the decimal separator.
func ParseDimension(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseQuantity defaults to 1 when the input is not an integer. Values
// below 1 are returned as is so the caller can reject them.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 1
		}
		return int(f)
	}
	return n
}

// ParseComplexity falls back to the neutral value.
func ParseComplexity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return neutralComplex
	}
	return ClampComplexity(n)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
