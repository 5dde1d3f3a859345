// Package normalize holds the pure field normalizers used before a contact
// lookup or insert.
package normalize

import (
	"strings"
	"unicode"
)

// SplitFullName splits a free-text name on whitespace. The first token is the
// given name and the remaining tokens, joined by a single space, form the
// family name. Callers must reject blank input first.
func SplitFullName(fullName string) (given, family string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// Digits drops every character that is not an ASCII decimal digit.
func Digits(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SamePhone compares two phone numbers after reducing both to digits.
func SamePhone(a, b string) bool {
	return Digits(a) == Digits(b)
}
