package strings

import (
	"unicode"
	"unicode/utf8"
)

// Capitalize upper-cases the first rune of s ("age" -> "Age"). Used to derive
// conventional method names such as adjustAge and validateAge.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
