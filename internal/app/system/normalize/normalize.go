// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"
	"unicode"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses inner whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone trims a phone number as entered. Use PhoneDigits for lookups.
func Phone(s string) string {
	return strings.TrimSpace(s)
}

// PhoneDigits keeps only the digits of a phone number, so "+91 98765-43210"
// and "919876543210" match the same record.
func PhoneDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MembershipID trims and uppercases a membership id.
func MembershipID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Region normalizes a state or district name: trimmed, inner whitespace
// collapsed, case preserved.
func Region(s string) string {
	return Name(s)
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Label trims a free-text label and drops control characters.
func Label(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return Name(s)
}
