package normalize

import (
	"math"
	"strconv"
	"strings"
)

// CleanAmount strips thousands-separator commas, currency symbols, and
// surrounding whitespace, then parses the result as a float64.
// Returns ok=false for empty, non-numeric, or non-finite values; callers
// treat those as absent rather than as errors.
func CleanAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
