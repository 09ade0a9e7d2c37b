package user

import (
	"strings"
	"unicode"
)

// IsValidEmail reports whether s has the shape local@domain: exactly one '@',
// at least one character on each side and no whitespace.
func IsValidEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	if strings.IndexByte(s[at+1:], '@') >= 0 {
		return false
	}
	return strings.IndexFunc(s, unicode.IsSpace) < 0
}

// IsNonBlank reports whether s contains anything besides whitespace.
func IsNonBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
