package entities

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, drops every rune that is not a letter, digit or space,
// collapses whitespace and trims. Input is NFC-composed first so accented letters
// written with combining marks survive.
func Normalize(text string) string {
	composed := norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
