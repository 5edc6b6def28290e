package normalize

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// NormalizeCode trims whitespace, uppercases, and strips non-alphanumeric
// characters. Returns "" if nothing survives.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(s)
	return nonAlphanumeric.ReplaceAllString(s, "")
}

// StripLeadingZero removes the leading zero from 6-character codes.
// Some sources pad 5-character CPT codes with a zero: "099213" -> "99213".
func StripLeadingZero(code string) string {
	code = strings.TrimSpace(code)
	if len(code) == 6 && code[0] == '0' {
		return code[1:]
	}
	return code
}
