package kataster

import (
	"regexp"
	"strings"
	"time"
)

// tunnusPattern is the cadastral identifier format: administrative unit,
// block and parcel number separated by colons (e.g. 79501:027:0011).
var tunnusPattern = regexp.MustCompile(`^\d{5}:\d{3}:\d{4}$`)

// ValidTunnus reports whether s is a well-formed cadastral identifier.
// Surrounding whitespace is ignored; no other normalization is done.
func ValidTunnus(s string) bool {
	return tunnusPattern.MatchString(strings.TrimSpace(s))
}

// ValidDate reports whether s is an ISO calendar date (YYYY-MM-DD).
// As-of dates are compared date-only, never with a time component.
func ValidDate(s string) bool {
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
