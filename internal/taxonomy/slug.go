// Package taxonomy holds helpers shared by genre, band and song handling.
package taxonomy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a name to a URL-safe slug.
// "Thrash Metal" -> "thrash-metal".
// "Motörhead" -> "motorhead".
// "AC/DC" -> "ac-dc".
func Slugify(s string) string {
	// Decompose accents so the base letter survives the ASCII filter.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeName trims a display name and collapses internal whitespace.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
