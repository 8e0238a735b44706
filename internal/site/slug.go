package site

import (
	"strings"
	"unicode"
)

// Slugify converts a title into a URL-safe slug, applying the configured
// replacement pairs before the generic transliteration.
func Slugify(title string, replacements [][2]string) string {
	s := title
	for _, rep := range replacements {
		s = strings.ReplaceAll(s, rep[0], rep[1])
	}
	s = strings.ToLower(s)

	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
