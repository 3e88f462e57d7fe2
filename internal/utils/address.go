package utils

import (
	"regexp"
	"strings"
)

// NoPostalZone is the grouping zone for addresses without a recognisable ZIP.
const NoPostalZone = "no-postal"

var zipPattern = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)

// PostalCodeFromAddress returns the first 5-digit ZIP (ignoring any +4 suffix)
// found in a free-text address, or "" when there is none.
func PostalCodeFromAddress(addr string) string {
	m := zipPattern.FindStringSubmatch(addr)
	if m == nil {
		return ""
	}
	return m[1]
}

// PostalZone prefers an explicit postal code and falls back to the address text.
func PostalZone(explicit *string, addr string) string {
	if explicit != nil {
		if z := PostalCodeFromAddress(*explicit); z != "" {
			return z
		}
		if z := strings.TrimSpace(*explicit); z != "" {
			return z
		}
	}
	if z := PostalCodeFromAddress(addr); z != "" {
		return z
	}
	return NoPostalZone
}
